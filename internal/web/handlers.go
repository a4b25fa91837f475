package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	portal "github.com/miniapp-agency/portal"
	"github.com/miniapp-agency/portal/gateway"
	"github.com/miniapp-agency/portal/middleware"
	"github.com/miniapp-agency/portal/session"
)

const maxBodyBytes = 64 << 10

type handlers struct {
	engine *portal.Engine
}

type credentialsBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type codeBody struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Email    string `json:"email"`
	Code     string `json:"code"`
	Password string `json:"password"`
}

type stateResponse struct {
	IsAuthenticated bool                 `json:"isAuthenticated"`
	Profile         *session.UserProfile `json:"profile,omitempty"`
	IsAdmin         bool                 `json:"isAdmin"`
	LoginState      string               `json:"loginState"`
	ResetState      string               `json:"resetState"`
}

type redirectResponse struct {
	Redirect string               `json:"redirect"`
	Profile  *session.UserProfile `json:"profile,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
	State   string `json:"state,omitempty"`
}

type pageResponse struct {
	Page    string               `json:"page"`
	Profile *session.UserProfile `json:"profile,omitempty"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *handlers) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "ok"})
}

func (h *handlers) state(w http.ResponseWriter, _ *http.Request) {
	snap := h.engine.Snapshot()
	writeJSON(w, http.StatusOK, stateResponse{
		IsAuthenticated: snap.IsAuthenticated,
		Profile:         snap.Profile,
		IsAdmin:         h.engine.AdminPolicy().IsAdmin(snap),
		LoginState:      h.engine.LoginState().String(),
		ResetState:      h.engine.ResetState().String(),
	})
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var in credentialsBody
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.engine.Login(r.Context(), in.Email, in.Password); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{
		Message: "code sent",
		State:   h.engine.LoginState().String(),
	})
}

func (h *handlers) checkCode(w http.ResponseWriter, r *http.Request) {
	var in codeBody
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := h.engine.CheckCode(r.Context(), in.Email, in.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: res.Redirect, Profile: res.Profile})
}

func (h *handlers) resendCode(w http.ResponseWriter, r *http.Request) {
	var in emailBody
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.engine.ResendCode(r.Context(), in.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{Message: "code resent"})
}

func (h *handlers) requestForgotPassword(w http.ResponseWriter, r *http.Request) {
	var in emailBody
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.engine.RequestForgotPassword(r.Context(), in.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, messageResponse{
		Message: "reset code sent",
		State:   h.engine.ResetState().String(),
	})
}

func (h *handlers) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var in resetBody
	if err := decodeStrict(r, &in); err != nil {
		writeBadRequest(w, err)
		return
	}
	res, err := h.engine.ForgotPassword(r.Context(), in.Email, in.Code, in.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: res.Redirect, Profile: res.Profile})
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Logout(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{Redirect: RouteLogin})
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, "home")
}

func (h *handlers) loginPage(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, "login")
}

func (h *handlers) projects(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, "projects")
}

func (h *handlers) admin(w http.ResponseWriter, r *http.Request) {
	writePage(w, r, "admin")
}

func writePage(w http.ResponseWriter, r *http.Request, page string) {
	snap, _ := middleware.SnapshotFromContext(r.Context())
	writeJSON(w, http.StatusOK, pageResponse{Page: page, Profile: snap.Profile})
}

func decodeStrict(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
}

// writeError maps an engine error onto a response. Backend statuses pass
// through; a failure without one is a bad gateway unless the input was
// rejected locally.
func writeError(w http.ResponseWriter, err error) {
	status := gateway.StatusCode(err)
	switch {
	case status != 0:
	case errors.Is(err, portal.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, portal.ErrNotAuthenticated):
		status = http.StatusUnauthorized
	default:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{Message: gateway.Message(err), Fields: gateway.FieldErrors(err)})
}
