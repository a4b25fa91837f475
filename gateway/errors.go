package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrResponseHook is returned when a classifier rejects an otherwise
// successful response.
var ErrResponseHook = errors.New("response hook failed")

// APIError is a non-2xx response from the backend.
//
// The body follows the error envelope {status, message, error, data?}. Any
// field may be missing when the backend (or a proxy in front of it) returns
// something else.
type APIError struct {
	HTTPStatus int             `json:"-"`
	RequestID  string          `json:"-"`
	Status     int             `json:"status"`
	Message    string          `json:"message"`
	Err        string          `json:"error"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.HTTPStatus, e.UserMessage())
}

// IsValidation reports whether the backend rejected the request as invalid
// input (HTTP 422).
func (e *APIError) IsValidation() bool {
	return e != nil && e.HTTPStatus == http.StatusUnprocessableEntity
}

// UserMessage is the human-readable text shown to the user: the envelope
// message, else its error field, else the HTTP status text.
func (e *APIError) UserMessage() string {
	if e == nil {
		return ""
	}
	if m := strings.TrimSpace(e.Message); m != "" {
		return m
	}
	if m := strings.TrimSpace(e.Err); m != "" {
		return m
	}
	if t := http.StatusText(e.HTTPStatus); t != "" {
		return t
	}
	return "request failed"
}

// TransportError is a failure that produced no HTTP response: connection
// refused, DNS, TLS, timeout, or an undecodable body.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the transport gave up waiting.
func (e *TransportError) Timeout() bool {
	if e == nil {
		return false
	}
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var te interface{ Timeout() bool }
	return errors.As(e.Err, &te) && te.Timeout()
}

// IsValidation reports whether err is (or wraps) a 422 [APIError].
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsValidation()
}

// StatusCode returns the HTTP status carried by err, or 0 for transport and
// non-gateway errors.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatus
	}
	return 0
}

// FieldErrors extracts per-field validation messages from a 422 response.
// Both {"field": "msg"} and {"field": ["msg", ...]} shapes are accepted; for
// lists the first message wins. Non-validation errors yield nil.
func FieldErrors(err error) map[string]string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || !apiErr.IsValidation() || len(apiErr.Data) == 0 {
		return nil
	}

	var raw map[string]json.RawMessage
	if json.Unmarshal(apiErr.Data, &raw) != nil {
		return nil
	}

	out := make(map[string]string, len(raw))
	for field, value := range raw {
		var single string
		if json.Unmarshal(value, &single) == nil {
			out[field] = single
			continue
		}
		var many []string
		if json.Unmarshal(value, &many) == nil && len(many) > 0 {
			out[field] = many[0]
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Message returns the text the gateway would show for err.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.UserMessage()
	}
	var tErr *TransportError
	if errors.As(err, &tErr) {
		if tErr.Timeout() {
			return "the server took too long to respond"
		}
		return tErr.Err.Error()
	}
	return err.Error()
}
