package gateway

import (
	"context"
	"encoding/json"
	"net/http"
)

// Envelope is the wrapper every successful backend response uses.
type Envelope[T any] struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

// Decode parses an envelope out of a successful response body.
func Decode[T any](body []byte) (*Envelope[T], error) {
	var env Envelope[T]
	if len(body) == 0 {
		return &env, nil
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &TransportError{Op: "decode response", Err: err}
	}
	return &env, nil
}

// Post sends body as JSON to path and decodes the envelope.
func Post[T any](ctx context.Context, c *Client, path string, body any) (*Envelope[T], error) {
	resp, err := c.Do(ctx, http.MethodPost, path, body)
	if err != nil {
		return nil, err
	}
	return Decode[T](resp.Body)
}

// Get fetches path and decodes the envelope.
func Get[T any](ctx context.Context, c *Client, path string) (*Envelope[T], error) {
	resp, err := c.Do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return Decode[T](resp.Body)
}
