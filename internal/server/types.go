package server

import (
	"time"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

type Email struct {
	ID      int              `json:"id"`
	From    string           `json:"from"`
	Senders []addrlist.Entry `json:"senders"`
	Date    string           `json:"date"`
	Subject string           `json:"subject"`
	Status  string           `json:"status"`
	// Timestamp is parsed Date used for sorting. Not exported to JSON.
	Timestamp time.Time `json:"-"`
}

type EmailContent struct {
	Body        string   `json:"body"`
	BodyType    string   `json:"bodyType"`
	Attachments []string `json:"attachments"`
}

// ParseRequest is the body of POST /api/addresses/parse. Strict falls
// back to the server default when omitted.
type ParseRequest struct {
	Values []string `json:"values"`
	Strict *bool    `json:"strict,omitempty"`
}

type ParseFailure struct {
	Index  int    `json:"index"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

type ParseResponse struct {
	Strict   bool             `json:"strict"`
	Entries  []addrlist.Entry `json:"entries"`
	Failures []ParseFailure   `json:"failures"`
}

type Capabilities struct {
	SupportsStrictParsing bool   `json:"supports_strict_parsing"`
	DefaultMode           string `json:"default_mode"`
}
