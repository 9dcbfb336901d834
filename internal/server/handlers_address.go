package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

const maxParseBody = 1 << 20

func (s *Server) capabilitiesHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, Capabilities{
		SupportsStrictParsing: addrlist.SupportsStrictParsing,
		DefaultMode:           s.mode.String(),
	})
}

// parseAddressesHandler parses header values as one address list. A
// strict parse with malformed entries still answers 200; the failures
// are listed in the response for the caller to act on.
func (s *Server) parseAddressesHandler(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxParseBody)
	defer drain(body)

	var req ParseRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Values == nil {
		http.Error(w, "values is required", http.StatusBadRequest)
		return
	}

	mode := s.mode
	if req.Strict != nil {
		mode = addrlist.ModeFor(*req.Strict)
	}

	entries, err := addrlist.GetAddresses(req.Values, mode)
	resp := ParseResponse{
		Strict:   mode == addrlist.Strict,
		Entries:  entries,
		Failures: []ParseFailure{},
	}
	var invalid *addrlist.InvalidAddressError
	switch {
	case errors.As(err, &invalid):
		for _, f := range invalid.Failures {
			resp.Failures = append(resp.Failures, ParseFailure{
				Index:  f.Index,
				Token:  f.Token,
				Reason: strings.TrimPrefix(f.Err.Error(), "addrlist: "),
			})
		}
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, resp)
}
