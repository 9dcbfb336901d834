package mboxheader

const (
	StatusValid     = "valid"
	StatusMissing   = "missing"
	StatusInvalid   = "invalid"
	StatusDeleted   = "deleted"
	StatusRewritten = "rewritten"
)

// ValidationResult represents the result of validating a message header
type ValidationResult struct {
	MsgIndex int    `json:"msgIndex"`
	Field    string `json:"field"`
	Status   string `json:"status"` // "valid", "missing", "invalid", "deleted", "rewritten"
	Detail   string `json:"detail,omitempty"`
}
