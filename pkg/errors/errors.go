package errors

import "errors"

// Codes shared between the domain packages and the HTTP layer.
const (
	CodeInvalidInput           = "invalid_input"
	CodeDataUnavailable        = "data_unavailable"
	CodeUnauthenticated        = "unauthenticated"
	CodeGeolocationDenied      = "geolocation_denied"
	CodeGeolocationUnavailable = "geolocation_unavailable"
	CodeGeolocationTimeout     = "geolocation_timeout"
	CodeLLM                    = "llm_error"
	CodeAuth                   = "auth_error"
	CodeInvalidToken           = "invalid_token"
	CodeInvalidCredentials     = "invalid_credentials"
	CodeEmailExists            = "email_exists"
	CodeUserNotFound           = "user_not_found"
)

// AppError encodes domain specific error details.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Wrap produces a new AppError instance.
func Wrap(code, message string, err error) error {
	if err == nil {
		return &AppError{Code: code, Message: message}
	}
	return &AppError{Code: code, Message: message, Err: err}
}

// IsCode helps handler differentiate failures.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// CodeOf returns the code of the outermost AppError, or "" when err carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// MessageOf returns the user facing message of the outermost AppError.
func MessageOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
