package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/aqi-advisor/internal/domain/airquality"
	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// HTTPError captures the metadata required to serialize an error response consistently.
type HTTPError struct {
	Status  int
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewHTTPError is a helper to build an HTTPError instance.
func NewHTTPError(status int, code, message string, err error) *HTTPError {
	return &HTTPError{Status: status, Code: code, Message: message, Err: err}
}

func asHTTPError(err error) *HTTPError {
	if err == nil {
		return nil
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}
	return &HTTPError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "something went wrong",
		Err:     err,
	}
}

// fromDomainError translates an AppError into its HTTP representation.
// Errors without a code are reported as internal failures.
func fromDomainError(err error) *HTTPError {
	code := apperrors.CodeOf(err)
	if code == "" {
		return asHTTPError(err)
	}
	return NewHTTPError(statusFor(code, err), code, apperrors.MessageOf(err), err)
}

func statusFor(code string, err error) int {
	switch code {
	case apperrors.CodeInvalidInput,
		apperrors.CodeGeolocationDenied,
		apperrors.CodeGeolocationUnavailable,
		apperrors.CodeGeolocationTimeout:
		return http.StatusBadRequest
	case apperrors.CodeUnauthenticated, apperrors.CodeInvalidToken, apperrors.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case apperrors.CodeEmailExists:
		return http.StatusConflict
	case apperrors.CodeUserNotFound:
		return http.StatusNotFound
	case apperrors.CodeDataUnavailable:
		if errors.Is(err, airquality.ErrStationNotFound) {
			return http.StatusNotFound
		}
		return http.StatusBadGateway
	case apperrors.CodeLLM:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err *HTTPError) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func abortWithDomainError(c *gin.Context, err error) {
	abortWithError(c, fromDomainError(err))
}

func abortInvalidRequest(c *gin.Context, err error) {
	abortWithError(c, NewHTTPError(http.StatusBadRequest, apperrors.CodeInvalidInput, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
