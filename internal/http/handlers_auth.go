package http

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/session"
)

type loginPage struct {
	Role                 string
	Heading              string
	Error                string
	PasswordLoginEnabled bool
}

func (s *Server) handleStudentLogin(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, roleStudent)
}

func (s *Server) handleTeacherLogin(w http.ResponseWriter, r *http.Request) {
	s.renderLogin(w, r, roleTeacher)
}

func (s *Server) renderLogin(w http.ResponseWriter, r *http.Request, role string) {
	sess := sessionFromContext(r.Context())
	if sess.IsLoggedIn() {
		if home := homeFor(effectiveRole(sess)); home != "/login" {
			http.Redirect(w, r, home, http.StatusFound)
			return
		}
	}
	heading := "探究学習日記"
	if role == roleTeacher {
		heading = "探究学習日記 教師用"
	}
	s.render(w, r, http.StatusOK, "login.html", loginPage{
		Role:                 role,
		Heading:              heading,
		Error:                r.URL.Query().Get("error"),
		PasswordLoginEnabled: s.cfg.PasswordLoginEnabled,
	})
}

func loginPath(role string) string {
	if role == roleTeacher {
		return "/teacher/login"
	}
	return "/login"
}

// handleGoogleLogin asks the backend for the Google authorization URL for the
// requested role and sends the browser there.
func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	role := r.PostFormValue("role")
	if role != roleTeacher {
		role = roleStudent
	}
	sess := sessionFromContext(r.Context())
	authURL, err := s.api.GoogleLoginURL(r.Context(), role)
	if err != nil {
		s.fail(w, r, err, loginPath(role))
		return
	}
	if authURL == "" {
		flashError(r, "ログインURLの取得に失敗しました")
		http.Redirect(w, r, loginPath(role), http.StatusSeeOther)
		return
	}
	sess.RequestedRole = role
	http.Redirect(w, r, authURL, http.StatusSeeOther)
}

func (s *Server) handlePasswordLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.PasswordLoginEnabled {
		http.NotFound(w, r)
		return
	}
	role := r.PostFormValue("role")
	form := passwordLoginForm{
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
	}
	if msg := validationMessage(form); msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, loginPath(role), http.StatusSeeOther)
		return
	}
	token, err := s.api.PasswordLogin(r.Context(), form.Email, form.Password)
	if err != nil {
		apiErr := clients.Classify(err)
		s.logAPIError(r, apiErr)
		message := apiErr.Message
		if apiErr.Status == http.StatusUnauthorized {
			message = "メールアドレスまたはパスワードが正しくありません"
		}
		flashError(r, message)
		http.Redirect(w, r, loginPath(role), http.StatusSeeOther)
		return
	}
	s.signIn(w, r, token.AccessToken, &token.User)
}

// handleAuthCallback finishes the OAuth round trip. The backend either
// redirects here with an authorization code (exchanged via the backend), or
// with a ready access token and role.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	sess := sessionFromContext(r.Context())

	if msg := query.Get("error"); msg != "" {
		slog.Warn("oauth_callback_error", "error", msg, "request_id", requestIDFromContext(r.Context()))
		sess.ClearAuth()
		http.Redirect(w, r, "/login?error="+url.QueryEscape(msg), http.StatusFound)
		return
	}

	if code := query.Get("code"); code != "" {
		role := roleFromState(query.Get("state"))
		if role == "" {
			role = sess.RequestedRole
		}
		resp, err := s.api.GoogleCallback(r.Context(), clients.GoogleCallbackRequest{
			Code:          code,
			RedirectURI:   s.cfg.PublicURL + "/auth/callback",
			RequestedRole: role,
		})
		if err != nil {
			s.callbackFailed(w, r, err)
			return
		}
		s.signIn(w, r, resp.AccessToken, &resp.User)
		return
	}

	if token := query.Get("token"); token != "" {
		role := query.Get("role")
		if role != roleStudent && role != roleTeacher {
			slog.Warn("oauth_callback_error", "error", "invalid role", "role", role, "request_id", requestIDFromContext(r.Context()))
			sess.ClearAuth()
			http.Redirect(w, r, "/login?error="+url.QueryEscape("ロール情報が不正です"), http.StatusFound)
			return
		}
		sess.SetAuth(token, &clients.User{Role: role})
		me, err := s.api.Me(clients.WithToken(r.Context(), token))
		if err != nil {
			if clients.IsUnauthorized(err) {
				s.callbackFailed(w, r, err)
				return
			}
			// The token is still good; keep the role from the callback.
			s.logAPIError(r, clients.Classify(err))
			me = &clients.User{Role: role}
		}
		s.signIn(w, r, token, me)
		return
	}

	http.Redirect(w, r, "/login?error="+url.QueryEscape("認証情報が見つかりません"), http.StatusFound)
}

func (s *Server) callbackFailed(w http.ResponseWriter, r *http.Request, err error) {
	apiErr := clients.Classify(err)
	s.logAPIError(r, apiErr)
	sessionFromContext(r.Context()).ClearAuth()
	http.Redirect(w, r, "/login?error="+url.QueryEscape(apiErr.Message), http.StatusFound)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request, token string, user *clients.User) {
	sess := sessionFromContext(r.Context())
	sess.SetAuth(token, user)
	sess.RequestedRole = ""
	sess.Wizard = nil
	sess.Chat = nil
	slog.Info("signed_in", "user_id", user.ID, "role", user.Role, "request_id", requestIDFromContext(r.Context()))
	sess.AddFlash(session.FlashSuccess, "ログインしました")
	http.Redirect(w, r, homeFor(effectiveRole(sess)), http.StatusFound)
}

// roleFromState reads role=... out of the base64 OAuth state.
func roleFromState(state string) string {
	if state == "" {
		return ""
	}
	var raw []byte
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		decoded, err := enc.DecodeString(state)
		if err == nil {
			raw = decoded
			break
		}
	}
	if raw == nil {
		return ""
	}
	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return ""
	}
	switch role := values.Get("role"); role {
	case roleStudent, roleTeacher:
		return role
	}
	return ""
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	if sess.IsLoggedIn() {
		if err := s.api.Logout(r.Context()); err != nil {
			slog.Warn("backend_logout_failed", "error", err.Error(), "request_id", requestIDFromContext(r.Context()))
		}
	}
	sess.ClearAuth()
	sess.AddFlash(session.FlashInfo, "ログアウトしました")
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}
