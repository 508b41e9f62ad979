package shared

// DomainError is the error type domain operations raise. Code selects the
// failure class (and, at the transport layer, the HTTP status); Details
// optionally carries structured values such as available and requested
// counts.
type DomainError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError builds a DomainError from a code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// NewDomainErrorWithDetails builds a DomainError carrying structured detail
// values that the transport layer can expose alongside the message.
func NewDomainErrorWithDetails(code, message string, details map[string]interface{}) *DomainError {
	return &DomainError{Code: code, Message: message, Details: details}
}

// Error codes used across the inventory domain. Validation failures are
// always raised before any state is mutated.
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeConflict          = "CONFLICT"
	CodeInsufficientStock = "INSUFFICIENT_STOCK"
)

// ErrNotFound is the sentinel stores return when a lookup or update hits a
// missing row. Callers that need a specific message wrap it in their own
// CodeNotFound error instead.
var ErrNotFound = NewDomainError(CodeNotFound, "Resource not found")
