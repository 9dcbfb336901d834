package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/mail"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/emersion/go-imap/utf7"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/emurenMRz/mboxaddr/internal/mbox"
)

var errStopWalk = errors.New("stop")

// mboxPath maps the UTF-8 mailbox name in the URL to its IMAP-UTF7
// encoded file name on disk.
func (s *Server) mboxPath(r *http.Request) (string, bool) {
	name, err := url.PathUnescape(chi.URLParam(r, "mailbox"))
	if err != nil {
		return "", false
	}
	encoded, err := utf7.Encoding.NewEncoder().String(name)
	if err != nil || encoded == "" || encoded != filepath.Base(encoded) || encoded == ".." {
		return "", false
	}
	return filepath.Join(s.cfg.MboxDir, encoded), true
}

func emailID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	return id, err == nil && id >= 0
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func (s *Server) mailboxesHandler(w http.ResponseWriter, _ *http.Request) {
	files, err := os.ReadDir(s.cfg.MboxDir)
	if err != nil {
		s.log.Error("failed to read mailbox directory", zap.String("dir", s.cfg.MboxDir), zap.Error(err))
		http.Error(w, "Failed to read directory", http.StatusInternalServerError)
		return
	}

	mailboxes := []string{}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		// Files on disk are IMAP-UTF7 encoded; decode to UTF-8 for API response
		decodedName, err := utf7.Encoding.NewDecoder().String(file.Name())
		if err != nil {
			s.log.Warn("failed to decode mailbox filename", zap.String("file", file.Name()), zap.Error(err))
			continue
		}
		mailboxes = append(mailboxes, decodedName)
	}

	writeJSON(w, mailboxes)
}

func (s *Server) listEmailsHandler(w http.ResponseWriter, r *http.Request) {
	mboxPath, ok := s.mboxPath(r)
	if !ok {
		http.Error(w, "Invalid mailbox name", http.StatusBadRequest)
		return
	}
	f, err := os.Open(mboxPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	emails := []Email{}
	err = mbox.Walk(f, func(i int, msg *mail.Message, err error) error {
		if err != nil {
			s.log.Warn("failed to parse message headers", zap.String("mailbox", mboxPath), zap.Int("index", i), zap.Error(err))
			return nil
		}

		header := msg.Header
		status := header.Get("Status")
		if status == "D" {
			return nil
		}
		if status == "" {
			// No Status header means the message is new
			status = "N"
		}

		from, senders := s.formatSenders(header.Get("From"))
		dateStr := header.Get("Date")
		emails = append(emails, Email{
			ID:        i,
			From:      from,
			Senders:   senders,
			Date:      dateStr,
			Subject:   decodeHeader(header.Get("Subject")),
			Status:    status,
			Timestamp: parseDate(dateStr),
		})
		return nil
	})
	if err != nil {
		s.log.Error("error reading mbox", zap.String("mailbox", mboxPath), zap.Error(err))
		http.Error(w, "Error reading mbox", http.StatusInternalServerError)
		return
	}

	// Newest first; zero timestamps go last.
	sort.SliceStable(emails, func(a, b int) bool {
		ta, tb := emails[a].Timestamp, emails[b].Timestamp
		if ta.Equal(tb) {
			return emails[a].ID < emails[b].ID
		}
		if ta.IsZero() {
			return false
		}
		if tb.IsZero() {
			return true
		}
		return ta.After(tb)
	})

	writeJSON(w, emails)
}

func (s *Server) emailContentHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := emailID(r)
	if !ok {
		http.Error(w, "Invalid email ID", http.StatusBadRequest)
		return
	}
	mboxPath, ok := s.mboxPath(r)
	if !ok {
		http.Error(w, "Invalid mailbox name", http.StatusBadRequest)
		return
	}
	f, err := os.Open(mboxPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	var content *EmailContent
	err = mbox.Walk(f, func(i int, msg *mail.Message, err error) error {
		if i != id {
			return nil
		}
		if err != nil {
			s.log.Warn("failed to parse message", zap.String("mailbox", mboxPath), zap.Int("index", i), zap.Error(err))
			return errStopWalk
		}
		c := s.parseMessageBody(msg)
		content = &c
		return errStopWalk
	})
	if err != nil && !errors.Is(err, errStopWalk) {
		s.log.Error("error reading mbox", zap.String("mailbox", mboxPath), zap.Error(err))
		http.Error(w, "Error reading mbox", http.StatusInternalServerError)
		return
	}
	if content == nil {
		http.NotFound(w, r)
		return
	}

	writeJSON(w, content)
}

func (s *Server) updateStatus(w http.ResponseWriter, r *http.Request, status string) {
	mboxPath, ok := s.mboxPath(r)
	if !ok {
		http.Error(w, "Invalid mailbox name", http.StatusBadRequest)
		return
	}
	id, ok := emailID(r)
	if !ok {
		http.Error(w, "Invalid email ID", http.StatusBadRequest)
		return
	}

	messages, err := mbox.ReadMessages(mboxPath)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if id >= len(messages) {
		http.Error(w, "Invalid email ID", http.StatusBadRequest)
		return
	}

	envelopeLine, rest := mbox.SplitAtFirstNewline(messages[id])
	headers, body := mbox.SplitHeadersFromBody(rest)
	newHeaders, updated := mbox.UpdateStatusHeader(headers, status)
	if !updated {
		w.WriteHeader(http.StatusOK)
		return
	}
	messages[id] = envelopeLine + "\n" + newHeaders + "\n" + body

	if err := mbox.WriteMessages(mboxPath, messages); err != nil {
		s.log.Error("error updating mbox", zap.String("mailbox", mboxPath), zap.Error(err))
		http.Error(w, "Error updating mbox", http.StatusInternalServerError)
		return
	}
	s.log.Info("status updated", zap.String("mailbox", mboxPath), zap.Int("id", id), zap.String("status", status))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) markEmailReadHandler(w http.ResponseWriter, r *http.Request) {
	s.updateStatus(w, r, "RO")
}

func (s *Server) deleteEmailHandler(w http.ResponseWriter, r *http.Request) {
	s.updateStatus(w, r, "D")
}

// drain discards the rest of a request body so the connection can be reused.
func drain(r io.Reader) {
	_, _ = io.Copy(io.Discard, r)
}
