package form

import "errors"

// Code identifies a validation rule.
type Code string

const (
	CodeMissingFields   Code = "MISSING_FIELDS"
	CodeInvalidIDPrefix Code = "INVALID_ID_PREFIX"
	CodeInvalidIDSuffix Code = "INVALID_ID_SUFFIX"
)

// ValidationError is a user input error. Message is shown verbatim.
type ValidationError struct {
	Code    Code
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

var (
	ErrMissingFields   = &ValidationError{Code: CodeMissingFields, Message: "All fields must be filled in."}
	ErrInvalidIDPrefix = &ValidationError{Code: CodeInvalidIDPrefix, Message: "ID MUST CONTAIN 'TRAIN' FOLLOWED BY ID"}
	ErrInvalidIDSuffix = &ValidationError{Code: CodeInvalidIDSuffix, Message: "ID MUST CONTAIN 'TRAIN' FOLLOWED BY ID BETWEEN 0 AND 999"}
)

var (
	ErrUnknownKind  = errors.New("unknown form kind")
	ErrUnknownField = errors.New("unknown form field")
	ErrDisconnected = errors.New("transport disconnected")
)

// AsValidation extracts a ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
