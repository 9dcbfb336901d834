package mboxheader

import (
	"bufio"
	"strings"
)

const maxHeaderLineLength = 78

type ParsedHeaderField struct {
	name   string   // original field-name
	values []string // folded lines
}

// Name returns the field name as written in the message.
func (f ParsedHeaderField) Name() string { return f.name }

// Value returns the unfolded field body.
func (f ParsedHeaderField) Value() string {
	return strings.TrimSpace(strings.Join(f.values, " "))
}

type ParsedMailHeaders struct {
	keys   map[string][]int    // lowercased field-name -> field indexes, in order
	fields []ParsedHeaderField // Preserve header field order
}

func NewParsedMailHeaders(headers string) *ParsedMailHeaders {
	h := &ParsedMailHeaders{keys: map[string][]int{}}
	for _, field := range parseField(headers) {
		h.append(field)
	}
	return h
}

func (h *ParsedMailHeaders) append(field ParsedHeaderField) {
	key := strings.ToLower(field.name)
	h.keys[key] = append(h.keys[key], len(h.fields))
	h.fields = append(h.fields, field)
}

func parseField(headers string) (fields []ParsedHeaderField) {
	var current *ParsedHeaderField
	scanner := bufio.NewScanner(strings.NewReader(headers))

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")

		if strings.HasPrefix(line, " ") || strings.HasPrefix(line, "\t") {
			// Continuation of the previous field
			if current != nil {
				current.values = append(current.values, strings.TrimLeft(line, " \t"))
			}
		} else if i := strings.Index(line, ":"); i != -1 {
			fields = append(fields, ParsedHeaderField{
				name:   strings.TrimSpace(line[:i]),
				values: []string{strings.TrimSpace(line[i+1:])},
			})
			current = &fields[len(fields)-1]
		} else {
			// Not a header line; drop it and any continuation
			current = nil
		}
	}

	return
}

// Has reports whether a field with the given (case-insensitive) name exists.
func (h *ParsedMailHeaders) Has(key string) bool {
	return len(h.keys[strings.ToLower(key)]) > 0
}

// GetFieldValue returns the unfolded value of the first field named key.
func (h *ParsedMailHeaders) GetFieldValue(key string) (string, bool) {
	idx := h.keys[strings.ToLower(key)]
	if len(idx) == 0 {
		return "", false
	}
	return h.fields[idx[0]].Value(), true
}

// Lookup returns the indexes of every field named key.
func (h *ParsedMailHeaders) Lookup(key string) []int {
	return h.keys[strings.ToLower(key)]
}

// Field returns the field at index i.
func (h *ParsedMailHeaders) Field(i int) ParsedHeaderField {
	return h.fields[i]
}

// Len returns the number of fields.
func (h *ParsedMailHeaders) Len() int {
	return len(h.fields)
}

// SetValue replaces the body of field i, folding it at ", " boundaries
// when it would not fit on one line.
func (h *ParsedMailHeaders) SetValue(i int, value string) {
	h.fields[i].values = foldList(len(h.fields[i].name)+2, value)
}

// Add appends a new field.
func (h *ParsedMailHeaders) Add(name, value string) {
	h.append(ParsedHeaderField{name: name, values: foldList(len(name)+2, value)})
}

// String renders the header block, one field per line with continuation
// lines indented by a tab.
func (h *ParsedMailHeaders) String() string {
	var folded strings.Builder

	for _, field := range h.fields {
		if len(field.values) == 0 {
			continue
		}
		folded.WriteString(field.name + ": " + field.values[0] + "\n")
		for _, value := range field.values[1:] {
			folded.WriteString("\t" + value + "\n")
		}
	}

	return folded.String()
}

// foldList splits a comma-separated value into lines no longer than
// maxHeaderLineLength where possible. prefix is the width already used
// on the first line by the field name.
func foldList(prefix int, value string) []string {
	if prefix+len(value) <= maxHeaderLineLength {
		return []string{value}
	}
	parts := strings.SplitAfter(value, ", ")
	var lines []string
	var line strings.Builder
	width := prefix
	for _, part := range parts {
		if line.Len() > 0 && width+len(part) > maxHeaderLineLength {
			lines = append(lines, strings.TrimRight(line.String(), " "))
			line.Reset()
			width = 1 // tab
		}
		line.WriteString(part)
		width += len(part)
	}
	if line.Len() > 0 {
		lines = append(lines, strings.TrimRight(line.String(), " "))
	}
	return lines
}
