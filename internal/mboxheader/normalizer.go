package mboxheader

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

// NormalizeHeaders normalizes a message's headers to RFC 5322 compliance.
//
// A missing Message-ID is generated from the Date header. Address fields
// holding malformed entries are rewritten from the entries that pass
// strict parsing; a field with no valid entry at all is left as is.
func NormalizeHeaders(headers string, msgIndex int) (string, []ValidationResult) {
	var results []ValidationResult

	parsedHeaders := NewParsedMailHeaders(headers)

	for _, name := range []string{"From", "Date"} {
		if !parsedHeaders.Has(name) {
			results = append(results, ValidationResult{
				MsgIndex: msgIndex,
				Field:    name,
				Status:   StatusMissing,
			})
		}
	}

	if !parsedHeaders.Has("Message-ID") {
		results = append(results, ValidationResult{
			MsgIndex: msgIndex,
			Field:    "Message-ID",
			Status:   StatusMissing,
		})
		id := makeUUIDByDateField(parsedHeaders)
		parsedHeaders.Add("Message-ID", fmt.Sprintf("<%s@%s>", id, "mboxaddr"))
	}

	results = append(results, normalizeAddressFields(parsedHeaders, msgIndex)...)

	return parsedHeaders.String(), results
}

func normalizeAddressFields(h *ParsedMailHeaders, msgIndex int) []ValidationResult {
	var results []ValidationResult
	for _, name := range addressHeaders {
		for _, i := range h.Lookup(name) {
			field := h.Field(i)
			entries, err := addrlist.GetAddresses([]string{field.Value()}, addrlist.Strict)
			if err == nil {
				continue
			}

			details := failureDetails(err)
			if len(entries) == 0 {
				for _, detail := range details {
					results = append(results, ValidationResult{
						MsgIndex: msgIndex,
						Field:    field.Name(),
						Status:   StatusInvalid,
						Detail:   detail + " (left unchanged)",
					})
				}
				continue
			}

			h.SetValue(i, addrlist.FormatList(entries))
			for _, detail := range details {
				results = append(results, ValidationResult{
					MsgIndex: msgIndex,
					Field:    field.Name(),
					Status:   StatusRewritten,
					Detail:   "dropped " + detail,
				})
			}
		}
	}
	return results
}

func makeUUIDByDateField(h *ParsedMailHeaders) string {
	var timestamp time.Time

	if date, exists := h.GetFieldValue("date"); exists {
		if t, err := mail.ParseDate(date); err == nil {
			timestamp = t
		}
	}

	if timestamp.IsZero() {
		// Fallback to UUIDv4 if date is missing or parsing failed
		return makeUUID()
	}
	return makeUUIDv7(timestamp)
}
