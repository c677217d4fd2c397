package aqiapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

// apiError is a failed backend answer: a non 2xx status or a body carrying
// an error field.
type apiError struct {
	Status  int
	Code    string
	Message string
	Body    string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("backend request error: status=%d code=%s body=%s", e.Status, e.Code, e.Body)
}

func (e *apiError) message(fallback string) string {
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

type errorEnvelope struct {
	Error json.RawMessage `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newAPIError(status int, payload []byte) *apiError {
	apiErr := &apiError{Status: status, Body: string(payload)}
	var env errorEnvelope
	if json.Unmarshal(payload, &env) == nil {
		apiErr.Code, apiErr.Message = parseErrorField(env.Error)
	}
	return apiErr
}

// embeddedError detects a 2xx body whose top level object has an error field.
func embeddedError(status int, payload []byte) *apiError {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil
	}
	var env errorEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil
	}
	if len(env.Error) == 0 || string(env.Error) == "null" {
		return nil
	}
	code, message := parseErrorField(env.Error)
	return &apiError{Status: status, Code: code, Message: message, Body: string(trimmed)}
}

// parseErrorField accepts both {"code","message"} objects and plain strings.
func parseErrorField(raw json.RawMessage) (string, string) {
	if len(raw) == 0 {
		return "", ""
	}
	var detail errorDetail
	if err := json.Unmarshal(raw, &detail); err == nil {
		return detail.Code, detail.Message
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return "", text
	}
	return "", ""
}

func unauthorized(err error) bool {
	var apiErr *apiError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

func unavailable(fallback string, err error) error {
	var apiErr *apiError
	if errors.As(err, &apiErr) {
		return apperrors.Wrap(apperrors.CodeDataUnavailable, apiErr.message(fallback), err)
	}
	return apperrors.Wrap(apperrors.CodeDataUnavailable, fallback, err)
}
