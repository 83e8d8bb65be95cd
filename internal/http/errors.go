package http

import (
	"log/slog"
	"net/http"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/session"
)

// errorPanel is the inline error state a screen shows in place of its data.
type errorPanel struct {
	Kind     clients.Kind
	Message  string
	RetryURL string
	BackURL  string
}

// signOutOnUnauthorized applies the global 401 policy: stored credentials are
// dropped and the browser is sent to /login. It reports whether it handled
// the error.
func (s *Server) signOutOnUnauthorized(w http.ResponseWriter, r *http.Request, err error) bool {
	if !clients.IsUnauthorized(err) {
		return false
	}
	sess := sessionFromContext(r.Context())
	sess.ClearAuth()
	slog.Info("session_cleared", "reason", "backend_unauthorized", "path", r.URL.Path, "request_id", requestIDFromContext(r.Context()))
	http.Redirect(w, r, "/login", http.StatusFound)
	return true
}

// fail flashes the classified message and redirects to back.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, back string) {
	if s.signOutOnUnauthorized(w, r, err) {
		return
	}
	apiErr := clients.Classify(err)
	s.logAPIError(r, apiErr)
	sessionFromContext(r.Context()).AddFlash(session.FlashError, apiErr.Message)
	http.Redirect(w, r, back, http.StatusSeeOther)
}

// panel flashes the classified message and returns the inline error state.
// ok is false when the 401 policy already answered the request.
func (s *Server) panel(w http.ResponseWriter, r *http.Request, err error, retry, back string) (*errorPanel, bool) {
	if s.signOutOnUnauthorized(w, r, err) {
		return nil, false
	}
	apiErr := clients.Classify(err)
	s.logAPIError(r, apiErr)
	sessionFromContext(r.Context()).AddFlash(session.FlashError, apiErr.Message)
	return &errorPanel{Kind: apiErr.Kind, Message: apiErr.Message, RetryURL: retry, BackURL: back}, true
}

func (s *Server) logAPIError(r *http.Request, apiErr *clients.Error) {
	attrs := []any{
		"kind", string(apiErr.Kind),
		"status", apiErr.Status,
		"path", r.URL.Path,
		"request_id", requestIDFromContext(r.Context()),
	}
	if apiErr.Err != nil {
		attrs = append(attrs, "error", apiErr.Err.Error())
	}
	if apiErr.Kind == clients.KindServer || apiErr.Kind == clients.KindNetwork || apiErr.Kind == clients.KindGeneric {
		slog.Error("backend_error", attrs...)
		return
	}
	slog.Warn("backend_error", attrs...)
}

func flashSuccess(r *http.Request, message string) {
	sessionFromContext(r.Context()).AddFlash(session.FlashSuccess, message)
}

func flashError(r *http.Request, message string) {
	sessionFromContext(r.Context()).AddFlash(session.FlashError, message)
}
