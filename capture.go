package portal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/miniapp-agency/portal/internal/logctx"
)

// decodeAuthPayload reads {accessToken, user} either from the envelope's
// data field or, for backends that skip the envelope, from the top level.
func decodeAuthPayload(body []byte) (authPayload, error) {
	var out authPayload
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return out, nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedAuthResponse, err)
	}
	if len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
		if err := json.Unmarshal(env.Data, &out); err == nil && out.AccessToken != "" {
			return out, nil
		}
	}

	out = authPayload{}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("%w: %v", ErrMalformedAuthResponse, err)
	}
	return out, nil
}

// credentialCapture persists the token and profile carried by a successful
// login-like response. It is registered on the gateway by the engine, one
// instance per endpoint.
type credentialCapture struct {
	engine       *Engine
	path         string
	requireToken bool
}

func (c *credentialCapture) Match(method, path string) bool {
	return method == http.MethodPost && path == c.path
}

func (c *credentialCapture) OnSuccess(ctx context.Context, body []byte) error {
	p, err := decodeAuthPayload(body)
	if err != nil {
		return err
	}
	if p.AccessToken == "" {
		if c.requireToken {
			return fmt.Errorf("%w: no access token", ErrMalformedAuthResponse)
		}
		return nil
	}

	e := c.engine
	if err := e.store.Save(ctx, p.AccessToken, p.User); err != nil {
		e.metricInc(MetricSessionPersistFailure)
		return fmt.Errorf("%w: %v", ErrSessionPersist, err)
	}
	e.client.SetToken(p.AccessToken)
	e.metricInc(MetricSessionCreated)

	logctx.FromOr(ctx, e.logger).InfoContext(ctx, "session captured",
		slog.String("path", c.path),
		slog.String("token", logctx.Token(p.AccessToken)),
		slog.Bool("profile", p.User != nil),
	)
	return nil
}
