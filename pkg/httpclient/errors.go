package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/mustafakutlankale/my-ecommerce-app/pkg/errors"
)

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponseError reads a non-2xx response and translates it back into
// the error taxonomy, so callers can use errors.Is on the result. The body
// is consumed and closed.
func ParseResponseError(resp *http.Response, service string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s returned status %d (failed to read body: %w)", service, resp.StatusCode, err)
	}

	var env errorEnvelope
	if json.Unmarshal(body, &env) != nil || env.Error == nil {
		return fmt.Errorf("%s returned status %d: %s", service, resp.StatusCode, body)
	}
	return mapRemoteError(resp.StatusCode, env.Error.Code, env.Error.Message, service)
}

func mapRemoteError(status int, code, message, service string) error {
	qualified := fmt.Sprintf("%s: %s", service, message)

	var sentinel error
	switch {
	case status == http.StatusNotFound:
		sentinel = apperrors.ErrNotFound
	case status == http.StatusBadRequest:
		sentinel = apperrors.ErrInvalidInput
	case status == http.StatusUnauthorized:
		sentinel = apperrors.ErrUnauthorized
	case status == http.StatusForbidden:
		sentinel = apperrors.ErrForbidden
	case status == http.StatusConflict && code == "POLICY_VIOLATION":
		sentinel = apperrors.ErrPolicyViolation
	case status == http.StatusConflict:
		sentinel = apperrors.ErrAlreadyExists
	case status == http.StatusServiceUnavailable:
		sentinel = apperrors.ErrStorage
	}

	return &apperrors.AppError{Code: code, Message: qualified, Status: status, Err: sentinel}
}
