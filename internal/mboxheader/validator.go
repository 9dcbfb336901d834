package mboxheader

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/emurenMRz/mboxaddr/internal/addrlist"
)

var (
	// Required headers for RFC 5322 compliance
	requiredHeaders = []string{"From", "Date", "Message-ID"}

	// Fields holding address lists, checked with strict parsing
	addressHeaders = []string{"From", "Sender", "Reply-To", "To", "Cc", "Bcc"}

	// Regular expression for valid message ID format
	messageIDRegex = regexp.MustCompile(`^<[^<>@]+@[^<>@]+>$`)
)

// ValidateHeaders validates a message's headers against RFC 5322
func ValidateHeaders(headers string, msgIndex int) []ValidationResult {
	var results []ValidationResult

	parsedHeaders := NewParsedMailHeaders(headers)

	for _, name := range requiredHeaders {
		if !parsedHeaders.Has(name) {
			results = append(results, ValidationResult{
				MsgIndex: msgIndex,
				Field:    name,
				Status:   StatusMissing,
			})
		}
	}

	results = append(results, validateAddressFields(parsedHeaders, msgIndex)...)

	if date, exists := parsedHeaders.GetFieldValue("date"); exists && !isValidDate(date) {
		results = append(results, ValidationResult{
			MsgIndex: msgIndex,
			Field:    "Date",
			Status:   StatusInvalid,
			Detail:   "Invalid Date format",
		})
	}

	if msgID, exists := parsedHeaders.GetFieldValue("message-id"); exists && !isValidMessageID(msgID) {
		results = append(results, ValidationResult{
			MsgIndex: msgIndex,
			Field:    "Message-ID",
			Status:   StatusInvalid,
			Detail:   "Invalid Message-ID format",
		})
	}

	if status, exists := parsedHeaders.GetFieldValue("status"); exists && status == "D" {
		results = append(results, ValidationResult{
			MsgIndex: msgIndex,
			Field:    "Status",
			Status:   StatusDeleted,
		})
	}

	return results
}

// ValidateAddresses checks only the address fields of a header block.
func ValidateAddresses(headers string, msgIndex int) []ValidationResult {
	return validateAddressFields(NewParsedMailHeaders(headers), msgIndex)
}

func validateAddressFields(h *ParsedMailHeaders, msgIndex int) []ValidationResult {
	var results []ValidationResult
	for _, name := range addressHeaders {
		for _, i := range h.Lookup(name) {
			field := h.Field(i)
			entries, err := addrlist.GetAddresses([]string{field.Value()}, addrlist.Strict)
			for _, detail := range failureDetails(err) {
				results = append(results, ValidationResult{
					MsgIndex: msgIndex,
					Field:    field.Name(),
					Status:   StatusInvalid,
					Detail:   detail,
				})
			}
			if err == nil && len(entries) == 0 && strings.EqualFold(name, "From") {
				results = append(results, ValidationResult{
					MsgIndex: msgIndex,
					Field:    field.Name(),
					Status:   StatusInvalid,
					Detail:   "no address",
				})
			}
		}
	}
	return results
}

// failureDetails renders one line per malformed entry of a strict parse.
func failureDetails(err error) []string {
	if err == nil {
		return nil
	}
	var invalid *addrlist.InvalidAddressError
	if !errors.As(err, &invalid) {
		return []string{err.Error()}
	}
	details := make([]string, len(invalid.Failures))
	for i, f := range invalid.Failures {
		details[i] = fmt.Sprintf("entry %d %q: %s", f.Index, f.Token, strings.TrimPrefix(f.Err.Error(), "addrlist: "))
	}
	return details
}

// isValidDate checks if a Date header is valid
func isValidDate(date string) bool {
	_, err := mail.ParseDate(date)
	return err == nil
}

// isValidMessageID checks if a Message-ID header is valid. Missing
// angle brackets are tolerated.
func isValidMessageID(msgID string) bool {
	msgID = strings.Trim(msgID, "<>")
	return messageIDRegex.MatchString("<" + msgID + ">")
}
