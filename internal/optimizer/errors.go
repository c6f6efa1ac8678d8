package optimizer

import (
	"errors"
	"net/http"

	"resume-optimizer/internal/shared/server/respond"
)

var (
	ErrMissingResume         = errors.New("resume is required")
	ErrMissingJobDescription = errors.New("job description is required")
)

const (
	MessageMissingResume         = "Please upload a resume to continue."
	MessageMissingJobDescription = "Please provide a job description or a valid URL."
	MessageFileTooLarge          = "The resume file is too large."
)

const (
	ErrorCodeValidation = "VALIDATION_ERROR"
	ErrorCodeModel      = "model_error"
	ErrorCodeInternal   = respond.CodeInternal
)

// ModelError reports a failed model call. No outputs are produced when it is returned.
type ModelError struct {
	Err error
}

func (e *ModelError) Error() string {
	return "Model API error: " + e.Err.Error()
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is one of the input validation errors.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingResume) || errors.Is(err, ErrMissingJobDescription)
}

// UserMessage maps pipeline errors to the text shown to the user.
// IsTooLarge reports whether err came from an upload or request body over its limit.
func IsTooLarge(err error) bool {
	var tooLarge *http.MaxBytesError
	return errors.As(err, &tooLarge)
}

func UserMessage(err error) string {
	var modelErr *ModelError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingResume):
		return MessageMissingResume
	case errors.Is(err, ErrMissingJobDescription):
		return MessageMissingJobDescription
	case IsTooLarge(err):
		return MessageFileTooLarge
	case errors.As(err, &modelErr):
		return modelErr.Error()
	default:
		return "Something went wrong while preparing the optimized resume."
	}
}
