package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetArgs(append([]string{"--config", filepath.Join(t.TempDir(), "none.yaml")}, args...))
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	err := root.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if err != nil {
		return 1
	}
	return 0
}

func TestParseLenient(t *testing.T) {
	r := run(t, "", "parse", "Name <a@b.com>, bad-address")
	require.NoError(t, r.err)
	assert.Equal(t, "Name\ta@b.com\n\t\n", r.stdout)
}

func TestParseStrict(t *testing.T) {
	r := run(t, "", "parse", "--strict", "Name <a@b.com>, bad-address")
	assert.Equal(t, exDataErr, exitCode(r.err))
	assert.Equal(t, "Name\ta@b.com\n", r.stdout)
	assert.Contains(t, r.stderr, `entry 1 "bad-address"`)
	assert.Contains(t, r.stderr, "missing @")
}

func TestParseStdin(t *testing.T) {
	r := run(t, "alice@example.com\nBob <bob@example.com>\n", "parse")
	require.NoError(t, r.err)
	assert.Equal(t, "\talice@example.com\nBob\tbob@example.com\n", r.stdout)
}

func TestParseStrictFromConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "mboxaddr.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("parsing:\n  strict: true\n"), 0o600))

	var stdout bytes.Buffer
	root := newRootCmd()
	root.SetArgs([]string{"--config", cfgPath, "parse", "bad-address"})
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	err := root.Execute()
	assert.Equal(t, exDataErr, exitCode(err))
	assert.Empty(t, stdout.String())

	// An explicit flag overrides the config.
	root = newRootCmd()
	stdout.Reset()
	root.SetArgs([]string{"--config", cfgPath, "parse", "--strict=false", "bad-address"})
	root.SetOut(&stdout)
	require.NoError(t, root.Execute())
	assert.Equal(t, "\t\n", stdout.String())
}

const sampleMbox = `From alice@example.com Mon Jan  1 00:00:00 2024
From: Alice <alice@example.com>
To: Name <a@b.com>, bad-address
Date: Mon, 01 Jan 2024 00:00:00 +0000

first body

From bob@example.com Tue Jan  2 00:00:00 2024
From: bob@example.com
Date: Tue, 02 Jan 2024 00:00:00 +0000
Message-ID: <1@example.com>
Status: D

second body
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "INBOX")
	require.NoError(t, os.WriteFile(path, []byte(sampleMbox), 0o600))
	return path
}

func TestValidate(t *testing.T) {
	r := run(t, "", "validate", "--path", writeSample(t))
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Message 0: Message-ID header is missing\n")
	assert.Contains(t, r.stdout, `Message 0: To header is invalid (entry 1 "bad-address": missing @ in addr-spec)`)
	assert.Contains(t, r.stdout, "Message 1: Status = D (will be removed)\n")
}

func TestValidateRequiresPath(t *testing.T) {
	r := run(t, "", "validate")
	assert.Error(t, r.err)
}

func TestFixToFile(t *testing.T) {
	in := writeSample(t)
	out := filepath.Join(t.TempDir(), "fixed")
	r := run(t, "", "fix", "--path", in, "--out", out, "--remove-deleted")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Message 0: To header rewritten (dropped entry 1")

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	fixed := string(data)
	assert.Contains(t, fixed, "To: Name <a@b.com>\n")
	assert.Contains(t, fixed, "Message-ID: <")
	assert.NotContains(t, fixed, "second body")

	original, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, sampleMbox, string(original))
}

func TestFixDryRun(t *testing.T) {
	in := writeSample(t)
	r := run(t, "", "fix", "--path", in, "--dry-run")
	require.NoError(t, r.err)
	assert.Contains(t, r.stdout, "Message-ID header is missing")
	assert.NotContains(t, r.stdout, "first body")
}

func TestFixToStdout(t *testing.T) {
	r := run(t, "", "fix", "--path", writeSample(t), "--quiet")
	require.NoError(t, r.err)
	assert.True(t, strings.HasPrefix(r.stdout, "From alice@example.com "))
	assert.Contains(t, r.stdout, "To: Name <a@b.com>\n")
	assert.Empty(t, r.stderr)
}

func TestFixExclusiveOutputs(t *testing.T) {
	r := run(t, "", "fix", "--path", writeSample(t), "--inplace", "--out", "x")
	assert.Error(t, r.err)
}

func TestShow(t *testing.T) {
	path := writeSample(t)
	r := run(t, "", "show", "--path", path, "--msg", "1")
	require.NoError(t, r.err)
	assert.True(t, strings.HasPrefix(r.stdout, "Message 1:\nFrom: bob@example.com\n"))

	r = run(t, "", "show", "--path", path, "--msg", "5")
	assert.Error(t, r.err)
}

const incoming = "Return-Path: <bounce@example.com>\r\n" +
	"From: Alice <alice@example.com>\r\n" +
	"To: bob@example.com\r\n" +
	"Subject: hi\r\n" +
	"\r\n" +
	"From here on\r\n"

func TestAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "INBOX")
	r := run(t, incoming, "append", path)
	require.NoError(t, r.err)
	r = run(t, strings.Replace(incoming, "Return-Path: <bounce@example.com>\r\n", "", 1), "append", path)
	require.NoError(t, r.err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := string(data)
	assert.True(t, strings.HasPrefix(got, "From bounce@example.com "))
	assert.Contains(t, got, "\nFrom alice@example.com ")
	assert.Contains(t, got, "\n>From here on\n")
	assert.NotContains(t, got, "\r")
}

func TestAppendStrictRejects(t *testing.T) {
	path := filepath.Join(t.TempDir(), "INBOX")
	msg := "From: Alice <alice@example.com>\nTo: bad-address\n\nbody\n"
	r := run(t, msg, "append", "--strict", path)
	assert.Equal(t, exDataErr, exitCode(r.err))
	assert.Contains(t, r.stderr, "To header is invalid")
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	r = run(t, msg, "append", path)
	require.NoError(t, r.err)
}

func TestAppendUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "INBOX")
	r := run(t, "From: a@b.com\n\nbody\n", "append", path)
	assert.Equal(t, exTempFail, exitCode(r.err))
}
