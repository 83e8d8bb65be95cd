package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/gorilla/csrf"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"

	"ashiato/journal/internal/auth"
	"ashiato/journal/internal/calendar"
	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/insight"
	"ashiato/journal/internal/session"
)

//go:embed templates/*.html
var templatesFS embed.FS

// mdRenderer leaves WithUnsafe unset, so raw HTML in AI output is escaped.
var mdRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

func renderMarkdown(md string) template.HTML {
	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(md), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(md))
	}
	return template.HTML(buf.String())
}

// render executes layout.html with the named page. Queued toasts are popped
// into this response.
func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	sess := sessionFromContext(r.Context())
	user := sess.StoredUser()
	role := effectiveRole(sess)
	flashes := sess.PopFlashes()

	tokenExpiry := ""
	if claims, err := auth.InspectToken(sess.AccessToken()); err == nil && claims.ExpiresAt != nil {
		tokenExpiry = claims.ExpiresAt.Time.In(calendar.JST).Format("2006/01/02 15:04")
	}

	funcMap := template.FuncMap{
		"currentUser":    func() *clients.User { return user },
		"currentRole":    func() string { return role },
		"isLoggedIn":     func() bool { return sess.IsLoggedIn() },
		"isTeacher":      func() bool { return role == roleTeacher || role == roleAdmin },
		"flashes":        func() []session.Flash { return flashes },
		"tokenExpiry":    func() string { return tokenExpiry },
		"csrfField":      func() template.HTML { return csrf.TemplateField(r) },
		"csrfToken":      func() string { return csrf.Token(r) },
		"renderMarkdown": renderMarkdown,
		"formatJST":      calendar.FormatJST,
		"alertIcon":      insight.AlertIcon,
		"strengthLabel":  insight.StrengthLabel,
		"weekdays":       func() []string { return calendar.Weekdays },
		"add":            func(a, b int) int { return a + b },
		"dict":           dict,
		"addf":           func(a, b float64) float64 { return a + b },
		"subf":           func(a, b float64) float64 { return a - b },
		"grade": func(g *int) string {
			if g == nil {
				return "-"
			}
			return fmt.Sprintf("%d年", *g)
		},
		"gradeValue": func(g *int) string {
			if g == nil {
				return ""
			}
			return fmt.Sprint(*g)
		},
	}

	tpl, err := template.New("layout.html").Funcs(funcMap).ParseFS(templatesFS, "templates/layout.html", "templates/partials.html", "templates/"+name)
	if err != nil {
		internalError(w, err)
		return
	}
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func dict(pairs ...any) map[string]any {
	out := make(map[string]any, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		key, _ := pairs[i].(string)
		out[key] = pairs[i+1]
	}
	return out
}

// internalError logs the real error and returns a generic message.
func internalError(w http.ResponseWriter, err error) {
	slog.Error("internal_error", "error", err.Error())
	http.Error(w, "internal server error", http.StatusInternalServerError)
}
