package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ashiato/journal/internal/auth"
	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/imageproc"
	"ashiato/journal/internal/session"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "journal_http_requests_total",
		Help: "HTTP requests by route pattern, method and status.",
	}, []string{"route", "method", "status"})
	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "journal_http_request_duration_seconds",
		Help:    "HTTP request latency by route pattern.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
)

type requestIDKey struct{}

type sessionKey struct{}

func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), requestIDKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http_request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}

func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		httpDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

type bodyLimitKey struct{}

// limitedBody remembers whether the size cap was hit, so a form that failed
// to parse can be answered with the upload size message.
type limitedBody struct {
	io.ReadCloser
	exceeded *bool
}

func (b *limitedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var tooLarge *http.MaxBytesError
	if err != nil && errors.As(err, &tooLarge) {
		*b.exceeded = true
	}
	return n, err
}

// limitBodyMiddleware caps request bodies at the upload limit plus room for
// the remaining form fields.
func (s *Server) limitBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil && s.cfg.UploadMaxBytes > 0 {
			exceeded := new(bool)
			r.Body = &limitedBody{
				ReadCloser: http.MaxBytesReader(w, r.Body, s.cfg.UploadMaxBytes+1<<20),
				exceeded:   exceeded,
			}
			r = r.WithContext(context.WithValue(r.Context(), bodyLimitKey{}, exceeded))
		}
		next.ServeHTTP(w, r)
	})
}

func bodyTooLarge(r *http.Request) bool {
	exceeded, _ := r.Context().Value(bodyLimitKey{}).(*bool)
	return exceeded != nil && *exceeded
}

// rejectOversizedBody answers a request whose body ran past the cap. The
// report form gets the photo size message back on the wizard.
func (s *Server) rejectOversizedBody(w http.ResponseWriter, r *http.Request) {
	msg := imageproc.Message(imageproc.ErrTooLarge, s.cfg.UploadMaxBytes)
	slog.Warn("request_body_too_large", "path", r.URL.Path, "limit_bytes", s.cfg.UploadMaxBytes, "request_id", requestIDFromContext(r.Context()))
	if r.URL.Path != "/student/report" || wantsJSON(r) {
		http.Error(w, msg, http.StatusRequestEntityTooLarge)
		return
	}
	flashError(r, msg)
	http.Redirect(w, r, "/student/report", http.StatusSeeOther)
}

func (s *Server) handleCSRFFailure(w http.ResponseWriter, r *http.Request) {
	if bodyTooLarge(r) {
		s.rejectOversizedBody(w, r)
		return
	}
	slog.Warn("csrf_rejected", "path", r.URL.Path, "reason", csrf.FailureReason(r), "request_id", requestIDFromContext(r.Context()))
	if wantsJSON(r) {
		writeError(w, http.StatusForbidden, "csrf_invalid")
		return
	}
	http.Error(w, "フォームの有効期限が切れました。ページを再読み込みしてください。", http.StatusForbidden)
}

// sessionWriter persists the session right before the response header goes
// out, so a redirect is never observed ahead of the state it depends on.
type sessionWriter struct {
	http.ResponseWriter
	save func()
	once sync.Once
}

func (w *sessionWriter) WriteHeader(status int) {
	w.once.Do(w.save)
	w.ResponseWriter.WriteHeader(status)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	w.once.Do(w.save)
	return w.ResponseWriter.Write(b)
}

func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := s.loadSession(r)
		http.SetCookie(w, &http.Cookie{
			Name:     s.cfg.SessionCookieName,
			Value:    sess.ID,
			Path:     "/",
			MaxAge:   int(s.cfg.SessionTTL.Seconds()),
			HttpOnly: true,
			Secure:   s.cfg.SessionCookieSecure,
			SameSite: http.SameSiteLaxMode,
		})

		sw := &sessionWriter{ResponseWriter: w}
		sw.save = func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), 5*time.Second)
			defer cancel()
			if err := s.sessions.Save(ctx, sess); err != nil {
				slog.Error("session_save_failed", "error", err.Error(), "request_id", requestIDFromContext(r.Context()))
			}
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = clients.WithToken(ctx, sess.AccessToken())
		next.ServeHTTP(sw, r.WithContext(ctx))
		sw.once.Do(sw.save)
	})
}

func (s *Server) loadSession(r *http.Request) *session.Session {
	cookie, err := r.Cookie(s.cfg.SessionCookieName)
	if err != nil || cookie.Value == "" {
		return session.New()
	}
	sess, err := s.sessions.Load(r.Context(), cookie.Value)
	if err != nil {
		if !errors.Is(err, session.ErrNotFound) {
			slog.Error("session_load_failed", "error", err.Error(), "request_id", requestIDFromContext(r.Context()))
		}
		return session.New()
	}
	return sess
}

func sessionFromContext(ctx context.Context) *session.Session {
	sess, _ := ctx.Value(sessionKey{}).(*session.Session)
	if sess == nil {
		return session.New()
	}
	return sess
}

func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !sessionFromContext(r.Context()).IsLoggedIn() {
			slog.Warn("auth_denied", "path", r.URL.Path, "reason", "no session")
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole sends a signed-in user with the wrong role to their own home.
func (s *Server) requireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := sessionFromContext(r.Context())
			role := effectiveRole(sess)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			slog.Warn("auth_denied", "path", r.URL.Path, "role", role, "required", roles)
			http.Redirect(w, r, homeFor(role), http.StatusFound)
		})
	}
}

// effectiveRole prefers the stored user record and falls back to the role
// claim carried by the access token.
func effectiveRole(sess *session.Session) string {
	if role := sess.Role(); role != "" {
		return role
	}
	claims, err := auth.InspectToken(sess.AccessToken())
	if err != nil {
		return ""
	}
	return claims.Role
}
