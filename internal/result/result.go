// Package result defines the structured outcome envelope returned by the
// partnership and shared-goal services, so UI callers can branch on a
// machine-readable code instead of parsing error strings.
package result

// Error codes carried in Result.ErrorCode.
const (
	CodeAlreadyPartnered  = "ALREADY_PARTNERED"
	CodeNotAvailable      = "NOT_AVAILABLE"
	CodeNoPreferences     = "NO_PREFERENCES"
	CodeNoMatches         = "NO_MATCHES"
	CodeLowCompatibility  = "LOW_COMPATIBILITY"
	CodeCreationFailed    = "CREATION_FAILED"
	CodeNotFound          = "NOT_FOUND"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeOperationFailed   = "OPERATION_FAILED"
)

// Result is the envelope every public lifecycle/task operation returns.
type Result struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message"`
	ErrorCode string      `json:"error_code,omitempty"`
}

// Ok builds a successful result.
func Ok(data interface{}, message string) *Result {
	return &Result{Success: true, Data: data, Message: message}
}

// Fail builds a failed result with a machine-readable code.
func Fail(code, message string) *Result {
	return &Result{Success: false, Message: message, ErrorCode: code}
}
