package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/config"
	"ashiato/journal/internal/session"
)

const (
	roleStudent = "student"
	roleTeacher = "teacher"
	roleAdmin   = "admin"
)

type Server struct {
	cfg      config.Config
	api      *clients.Client
	sessions session.Store
	now      func() time.Time
}

func NewServer(cfg config.Config, api *clients.Client, sessions session.Store) *Server {
	return &Server{
		cfg:      cfg,
		api:      api,
		sessions: sessions,
		now:      time.Now,
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(s.metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(s.limitBodyMiddleware)
		r.Use(s.sessionMiddleware)
		r.Use(csrf.Protect(
			[]byte(s.cfg.CSRFKey),
			csrf.Secure(s.cfg.SessionCookieSecure),
			csrf.Path("/"),
			csrf.SameSite(csrf.SameSiteLaxMode),
			csrf.ErrorHandler(http.HandlerFunc(s.handleCSRFFailure)),
		))

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/login", http.StatusFound)
		})
		r.Get("/login", s.handleStudentLogin)
		r.Get("/student/login", s.handleStudentLogin)
		r.Get("/teacher/login", s.handleTeacherLogin)
		r.Post("/login/google", s.handleGoogleLogin)
		r.Post("/login/password", s.handlePasswordLogin)
		r.Get("/auth/callback", s.handleAuthCallback)
		r.Post("/logout", s.handleLogout)

		student := []func(http.Handler) http.Handler{s.requireAuth, s.requireRole(roleStudent)}
		r.With(student...).Get("/student/menu", s.handleStudentMenu)
		r.With(student...).Get("/student/theme/create", s.handleThemeForm)
		r.With(student...).Post("/student/theme/create", s.handleCreateTheme)
		r.With(student...).Get("/student/report", s.handleReport)
		r.With(student...).Post("/student/report", s.handleReportAction)
		r.With(student...).Post("/student/report/submit", s.handleReportSubmit)
		r.With(student...).Get("/student/report/complete", s.handleReportComplete)
		r.With(student...).Get("/student/review", s.handleReview)
		r.With(student...).Get("/student/review/{date}", s.handleReviewDate)
		r.With(student...).Get("/student/chat", s.handleChat)
		r.With(student...).Post("/student/chat", s.handleChatMessage)

		teacher := []func(http.Handler) http.Handler{s.requireAuth, s.requireRole(roleTeacher, roleAdmin)}
		r.With(teacher...).Get("/teacher/dashboard", s.handleDashboard)
		r.With(teacher...).Get("/teacher/student/{studentId}", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/teacher/students/"+chi.URLParam(r, "studentId"), http.StatusFound)
		})
		r.With(teacher...).Get("/teacher/students/{studentId}", s.handleStudentDetail)
		r.With(teacher...).Post("/teacher/students/{studentId}/profile", s.handleUpdateProfile)
		r.With(teacher...).Post("/teacher/students/{studentId}/seminar-lab", s.handleAssignSeminarLab)
		r.With(teacher...).Post("/teacher/students/{studentId}/themes", s.handleCreateStudentTheme)
		r.With(teacher...).Post("/teacher/students/{studentId}/themes/{themeId}", s.handleUpdateStudentTheme)
		r.With(teacher...).Post("/teacher/students/{studentId}/themes/{themeId}/delete", s.handleDeleteStudentTheme)
		r.With(teacher...).Get("/teacher/labs", s.handleLabs)
		r.With(teacher...).Post("/teacher/labs", s.handleCreateLab)
		r.With(teacher...).Post("/teacher/labs/{labId}", s.handleUpdateLab)
		r.With(teacher...).Post("/teacher/labs/{labId}/toggle", s.handleToggleLab)
		r.With(teacher...).Post("/teacher/labs/{labId}/delete", s.handleDeleteLab)
	})

	return r
}

// homeFor is where a signed-in user lands.
func homeFor(role string) string {
	switch role {
	case roleTeacher, roleAdmin:
		return "/teacher/dashboard"
	case roleStudent:
		return "/student/menu"
	}
	return "/login"
}

// Utilities

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, "text/html")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}
