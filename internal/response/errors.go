package response

// ErrCode is a typed error code enum for consistent API error identification.
type ErrCode string

const (
	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation      ErrCode = "VALIDATION_ERROR"
	ErrInvalidID       ErrCode = "INVALID_ID"
	ErrInvalidPayload  ErrCode = "INVALID_PAYLOAD"
	ErrUnknownField    ErrCode = "UNKNOWN_FIELD"
	ErrUnknownFormKind ErrCode = "UNKNOWN_FORM_KIND"

	// Form rule failures use form.Code as their ErrCode and carry the
	// rule's own message.

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrFormNotFound ErrCode = "FORM_NOT_FOUND"

	// ─── Backend ───────────────────────────────────────────────────────
	ErrBackendDisconnected ErrCode = "BACKEND_DISCONNECTED"
	ErrBackendBusy         ErrCode = "BACKEND_BUSY"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given error code.
func GetMessage(code ErrCode) string {
	switch code {
	case ErrValidation:
		return "Validation failed. Please check your input."
	case ErrInvalidID:
		return "Invalid ID format."
	case ErrInvalidPayload:
		return "Invalid request payload."
	case ErrUnknownField:
		return "This form has no such field."
	case ErrUnknownFormKind:
		return "Unknown form kind."

	case ErrNotFound:
		return "Resource not found."
	case ErrFormNotFound:
		return "Form not found or expired."

	case ErrBackendDisconnected:
		return "Not connected to the reservation backend."
	case ErrBackendBusy:
		return "Too many pending requests. Please try again."

	case ErrRateLimitExceeded:
		return "Too many requests. Please try again later."

	case ErrInternal:
		return "Internal server error."
	default:
		return "An unexpected error occurred."
	}
}
