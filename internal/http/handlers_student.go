package http

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"ashiato/journal/internal/calendar"
	"ashiato/journal/internal/clients"
)

type menuPage struct {
	Name   string
	Streak *clients.Streak
	Recent []clients.Report
	Error  *errorPanel
}

func (s *Server) handleStudentMenu(w http.ResponseWriter, r *http.Request) {
	page := menuPage{}
	if user := sessionFromContext(r.Context()).StoredUser(); user != nil {
		page.Name = user.Name
	}
	streak, err := s.api.Streak(r.Context())
	if err != nil {
		panel, ok := s.panel(w, r, err, "/student/menu", "")
		if !ok {
			return
		}
		page.Error = panel
	}
	page.Streak = streak

	recent, err := s.api.Reports(r.Context(), 3)
	if err != nil {
		if s.signOutOnUnauthorized(w, r, err) {
			return
		}
		slog.Warn("recent_reports_unavailable", "error", err.Error(), "request_id", requestIDFromContext(r.Context()))
	}
	page.Recent = recent
	s.render(w, r, http.StatusOK, "student_menu.html", page)
}

type themeFormPage struct {
	Title       string
	Description string
	Error       string
	Past        []clients.Theme
	Phases      []clients.Phase
	Abilities   []clients.Ability
}

func (s *Server) handleThemeForm(w http.ResponseWriter, r *http.Request) {
	page := themeFormPage{}
	if !s.loadThemeGuide(w, r, &page) {
		return
	}
	s.render(w, r, http.StatusOK, "theme_create.html", page)
}

// loadThemeGuide fills the reference lists shown beside the theme form.
// They are optional; only a 401 stops the page.
func (s *Server) loadThemeGuide(w http.ResponseWriter, r *http.Request, page *themeFormPage) bool {
	ctx := r.Context()
	var errs []error

	themes, err := s.api.Themes(ctx)
	errs = append(errs, err)
	phases, err := s.api.ResearchPhases(ctx)
	errs = append(errs, err)
	abilities, err := s.api.Abilities(ctx)
	errs = append(errs, err)

	for _, err := range errs {
		if err == nil {
			continue
		}
		if s.signOutOnUnauthorized(w, r, err) {
			return false
		}
		slog.Warn("theme_guide_unavailable", "error", err.Error(), "request_id", requestIDFromContext(ctx))
	}
	sort.SliceStable(phases, func(i, j int) bool { return phases[i].DisplayOrder < phases[j].DisplayOrder })
	sort.SliceStable(abilities, func(i, j int) bool { return abilities[i].DisplayOrder < abilities[j].DisplayOrder })
	page.Past, page.Phases, page.Abilities = themes, phases, abilities
	return true
}

func (s *Server) handleCreateTheme(w http.ResponseWriter, r *http.Request) {
	form, msg := parseThemeForm(r)
	if msg != "" {
		page := themeFormPage{Title: form.Title, Description: form.Description, Error: msg}
		if !s.loadThemeGuide(w, r, &page) {
			return
		}
		s.render(w, r, http.StatusUnprocessableEntity, "theme_create.html", page)
		return
	}
	if _, err := s.api.CreateTheme(r.Context(), form.input()); err != nil {
		s.fail(w, r, err, "/student/theme/create")
		return
	}
	flashSuccess(r, "テーマを作成しました")
	http.Redirect(w, r, "/student/report", http.StatusSeeOther)
}

func parseThemeForm(r *http.Request) (themeForm, string) {
	form := themeForm{
		Title:       strings.TrimSpace(r.PostFormValue("title")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if raw := strings.TrimSpace(r.PostFormValue("fiscal_year")); raw != "" {
		year, err := strconv.Atoi(raw)
		if err != nil {
			return form, "年度は数字で入力してください"
		}
		form.FiscalYear = &year
	}
	return form, validationMessage(form)
}

func (f themeForm) input() clients.ThemeInput {
	return clients.ThemeInput{Title: f.Title, Description: f.Description, FiscalYear: f.FiscalYear}
}

type reviewPage struct {
	Grid      calendar.Grid
	PrevYear  int
	PrevMonth int
	NextYear  int
	NextMonth int
	Total     int
	Error     *errorPanel
}

// monthParams reads year/month from the query, defaulting to the current
// JST month.
func (s *Server) monthParams(r *http.Request) (int, int) {
	now := s.now().In(calendar.JST)
	year, month := now.Year(), int(now.Month())
	if y, err := strconv.Atoi(r.URL.Query().Get("year")); err == nil && y > 0 {
		year = y
	}
	if m, err := strconv.Atoi(r.URL.Query().Get("month")); err == nil && m >= 1 && m <= 12 {
		month = m
	}
	return year, month
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	year, month := s.monthParams(r)
	page := reviewPage{}
	page.PrevYear, page.PrevMonth = calendar.Shift(year, month, -1)
	page.NextYear, page.NextMonth = calendar.Shift(year, month, 1)

	counts := map[string]int{}
	resp, err := s.api.Calendar(r.Context(), year, month)
	if err != nil {
		retry := "/student/review?year=" + strconv.Itoa(year) + "&month=" + strconv.Itoa(month)
		panel, ok := s.panel(w, r, err, retry, "/student/menu")
		if !ok {
			return
		}
		page.Error = panel
	} else {
		for _, entry := range resp.Dates {
			counts[entry.Date] += entry.ReportCount
			page.Total += entry.ReportCount
		}
	}
	page.Grid = calendar.Month(year, month, counts, calendar.Today(s.now()), "")
	s.render(w, r, http.StatusOK, "student_review.html", page)
}

type reviewDatePage struct {
	Date    string
	Reports []clients.DatedReport
	Error   *errorPanel
}

func (s *Server) handleReviewDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !calendar.ValidDate(date) {
		flashError(r, "日付の形式が正しくありません")
		http.Redirect(w, r, "/student/review", http.StatusSeeOther)
		return
	}
	page := reviewDatePage{Date: date}
	reports, err := s.api.ReportsByDate(r.Context(), date)
	if err != nil {
		panel, ok := s.panel(w, r, err, "/student/review/"+date, "/student/review")
		if !ok {
			return
		}
		page.Error = panel
	}
	page.Reports = reports
	s.render(w, r, http.StatusOK, "student_review_date.html", page)
}

type chatPage struct {
	Messages []clients.ChatMessage
	Draft    string
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	s.render(w, r, http.StatusOK, "student_chat.html", chatPage{Messages: sess.Chat})
}

func (s *Server) handleChatMessage(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	form := chatForm{Message: strings.TrimSpace(r.PostFormValue("message"))}
	if msg := validationMessage(form); msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, "/student/chat", http.StatusSeeOther)
		return
	}
	resp, err := s.api.Chat(r.Context(), clients.ChatRequest{
		Message:             form.Message,
		ConversationHistory: sess.Chat,
	})
	if err != nil {
		if s.signOutOnUnauthorized(w, r, err) {
			return
		}
		apiErr := clients.Classify(err)
		s.logAPIError(r, apiErr)
		flashError(r, apiErr.Message)
		s.render(w, r, http.StatusOK, "student_chat.html", chatPage{Messages: sess.Chat, Draft: form.Message})
		return
	}
	sess.AppendChat("user", form.Message)
	sess.AppendChat("assistant", resp.Response)
	http.Redirect(w, r, "/student/chat", http.StatusSeeOther)
}
