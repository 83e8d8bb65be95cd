package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"ashiato/journal/internal/calendar"
	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/insight"
)

type rosterFilter struct {
	Query string
	Grade string
	Class string
}

func (f rosterFilter) match(st clients.StudentSummary) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if !strings.Contains(strings.ToLower(st.Name), q) && !strings.Contains(strings.ToLower(st.ClassName), q) {
			return false
		}
	}
	if f.Grade != "" {
		if st.Grade == nil || strconv.Itoa(*st.Grade) != f.Grade {
			return false
		}
	}
	if f.Class != "" && st.ClassName != f.Class {
		return false
	}
	return true
}

type dashboardPage struct {
	Filter        rosterFilter
	Students      []clients.StudentSummary
	Total         int
	Grades        []int
	Classes       []string
	RosterError   *errorPanel
	Abilities     []clients.ScatterAbility
	Axes          insight.Axes
	Points        []insight.Point
	Box           insight.PlotBox
	ScatterError  *errorPanel
	NotEnoughData bool
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	page := dashboardPage{
		Filter: rosterFilter{Query: query.Get("q"), Grade: query.Get("grade"), Class: query.Get("class")},
		Box:    insight.ScatterBox(),
	}

	students, err := s.api.Students(r.Context())
	if err != nil {
		panel, ok := s.panel(w, r, err, "/teacher/dashboard", "")
		if !ok {
			return
		}
		page.RosterError = panel
	}
	page.Total = len(students)
	page.Grades, page.Classes = rosterOptions(students)
	for _, st := range students {
		if page.Filter.match(st) {
			page.Students = append(page.Students, st)
		}
	}

	scatter, err := s.api.ScatterData(r.Context())
	if err != nil {
		panel, ok := s.panel(w, r, err, "/teacher/dashboard", "")
		if !ok {
			return
		}
		page.ScatterError = panel
	} else {
		page.Abilities = scatter.Abilities
		page.Axes = insight.ScatterAxes(scatter.Abilities, query.Get("x"), query.Get("y"))
		page.NotEnoughData = !page.Axes.Ready
		page.Points = insight.ScatterPoints(scatter.DataPoints, page.Axes)
	}

	s.render(w, r, http.StatusOK, "teacher_dashboard.html", page)
}

func rosterOptions(students []clients.StudentSummary) ([]int, []string) {
	gradeSet := map[int]bool{}
	classSet := map[string]bool{}
	for _, st := range students {
		if st.Grade != nil {
			gradeSet[*st.Grade] = true
		}
		if st.ClassName != "" {
			classSet[st.ClassName] = true
		}
	}
	grades := make([]int, 0, len(gradeSet))
	for g := range gradeSet {
		grades = append(grades, g)
	}
	classes := make([]string, 0, len(classSet))
	for c := range classSet {
		classes = append(classes, c)
	}
	sort.Ints(grades)
	sort.Strings(classes)
	return grades, classes
}

type detailReport struct {
	clients.Report
	Date string
}

type studentDetailPage struct {
	Student      *clients.StudentDetail
	Error        *errorPanel
	Bars         []insight.Bar
	Radar        insight.Radar
	TopAbility   string
	WeakAbility  string
	Summary      string
	Guidance     string
	Books        []recommendedBook
	Grid         calendar.Grid
	PrevYear     int
	PrevMonth    int
	NextYear     int
	NextMonth    int
	SelectedDate string
	DayReports   []detailReport
	ReportsError *errorPanel
	Themes       []clients.Theme
	ThemesError  string
	Labs         []clients.SeminarLab
}

type recommendedBook struct {
	clients.Book
	Reason string
}

func (s *Server) handleStudentDetail(w http.ResponseWriter, r *http.Request) {
	studentID := chi.URLParam(r, "studentId")
	ctx := r.Context()
	page := studentDetailPage{}

	detail, err := s.api.Student(ctx, studentID)
	if err != nil {
		panel, ok := s.panel(w, r, err, "/teacher/students/"+studentID, "/teacher/dashboard")
		if !ok {
			return
		}
		page.Error = panel
		s.render(w, r, http.StatusOK, "teacher_student.html", page)
		return
	}
	page.Student = detail
	page.Bars = insight.Bars(detail.AbilityCounts)
	page.Radar = insight.RadarChart(detail.AbilityCounts)
	page.TopAbility = insight.TopAbility(detail.AbilityCounts)
	page.WeakAbility = insight.WeakAbility(detail.AbilityCounts)
	page.Summary = insight.AISummary(detail.Name, detail.ThemeTitle, page.TopAbility, page.WeakAbility, detail.TotalReports)
	page.Guidance = insight.GuidanceHint(page.WeakAbility, detail.TotalReports)

	books, err := s.api.Books(ctx)
	if err != nil || len(books) == 0 {
		if err != nil {
			if s.signOutOnUnauthorized(w, r, err) {
				return
			}
			slog.Warn("books_fallback", "error", err.Error(), "request_id", requestIDFromContext(ctx))
		}
		books = insight.FallbackBooks
	}
	for _, book := range insight.PickRecommendedBooks(books, detail.AbilityCounts, studentID, 3) {
		page.Books = append(page.Books, recommendedBook{Book: book, Reason: insight.BookShortReason(book.Title)})
	}

	query := r.URL.Query()
	year, month := s.monthParams(r)
	if date := query.Get("date"); calendar.ValidDate(date) {
		page.SelectedDate = date
		if query.Get("year") == "" && query.Get("month") == "" {
			t, _ := time.ParseInLocation("2006-01-02", date, calendar.JST)
			year, month = t.Year(), int(t.Month())
		}
	}
	page.PrevYear, page.PrevMonth = calendar.Shift(year, month, -1)
	page.NextYear, page.NextMonth = calendar.Shift(year, month, 1)

	counts := map[string]int{}
	reports, err := s.api.StudentReports(ctx, studentID, 100)
	if err != nil {
		retry := "/teacher/students/" + studentID
		panel, ok := s.panel(w, r, err, retry, "/teacher/dashboard")
		if !ok {
			return
		}
		page.ReportsError = panel
	} else {
		buckets := calendar.BucketByDate(reports, func(rep clients.Report) string { return rep.ReportedAt })
		counts = calendar.Counts(buckets)
		for _, rep := range buckets[page.SelectedDate] {
			page.DayReports = append(page.DayReports, detailReport{Report: rep, Date: page.SelectedDate})
		}
	}
	page.Grid = calendar.Month(year, month, counts, calendar.Today(s.now()), page.SelectedDate)

	themes, err := s.api.StudentThemes(ctx, studentID)
	if err != nil {
		if s.signOutOnUnauthorized(w, r, err) {
			return
		}
		page.ThemesError = clients.Classify(err).Message
	}
	page.Themes = themes

	labs, err := s.api.SeminarLabs(ctx)
	if err != nil {
		if s.signOutOnUnauthorized(w, r, err) {
			return
		}
		slog.Warn("seminar_labs_unavailable", "error", err.Error(), "request_id", requestIDFromContext(ctx))
	}
	page.Labs = assignableLabs(labs, detail.SeminarLabID)

	s.render(w, r, http.StatusOK, "teacher_student.html", page)
}

// assignableLabs keeps active labs plus the student's current one, so an
// inactive assignment still shows as selected.
func assignableLabs(labs []clients.SeminarLab, current string) []clients.SeminarLab {
	var out []clients.SeminarLab
	for _, lab := range labs {
		if lab.IsActive || lab.ID == current {
			out = append(out, lab)
		}
	}
	return out
}

func (s *Server) handleAssignSeminarLab(w http.ResponseWriter, r *http.Request) {
	back := studentPath(r)
	labID := strings.TrimSpace(r.PostFormValue("seminar_lab_id"))
	if err := s.api.AssignSeminarLab(r.Context(), chi.URLParam(r, "studentId"), labID); err != nil {
		if s.signOutOnUnauthorized(w, r, err) {
			return
		}
		s.logAPIError(r, clients.Classify(err))
		flashError(r, "ゼミ/ラボの変更に失敗しました")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	flashSuccess(r, "ゼミ/ラボを変更しました")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func studentPath(r *http.Request) string {
	return "/teacher/students/" + url.PathEscape(chi.URLParam(r, "studentId"))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	back := studentPath(r)
	form := profileForm{ClassName: strings.TrimSpace(r.PostFormValue("class_name"))}
	if raw := strings.TrimSpace(r.PostFormValue("grade")); raw != "" {
		grade, err := strconv.Atoi(raw)
		if err != nil {
			flashError(r, "学年は数字で入力してください")
			http.Redirect(w, r, back, http.StatusSeeOther)
			return
		}
		form.Grade = &grade
	}
	if msg := validationMessage(form); msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	err := s.api.UpdateStudent(r.Context(), chi.URLParam(r, "studentId"), clients.StudentUpdate{
		Grade:     form.Grade,
		ClassName: form.ClassName,
	})
	if err != nil {
		s.fail(w, r, err, back)
		return
	}
	flashSuccess(r, "生徒情報を更新しました")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleCreateStudentTheme(w http.ResponseWriter, r *http.Request) {
	back := studentPath(r)
	form, msg := parseThemeForm(r)
	if msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if _, err := s.api.CreateStudentTheme(r.Context(), chi.URLParam(r, "studentId"), form.input()); err != nil {
		s.fail(w, r, err, back)
		return
	}
	flashSuccess(r, "テーマを作成しました")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleUpdateStudentTheme(w http.ResponseWriter, r *http.Request) {
	back := studentPath(r)
	form, msg := parseThemeForm(r)
	if msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}
	if _, err := s.api.UpdateTheme(r.Context(), chi.URLParam(r, "themeId"), form.input()); err != nil {
		s.fail(w, r, err, back)
		return
	}
	flashSuccess(r, "テーマを更新しました")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

func (s *Server) handleDeleteStudentTheme(w http.ResponseWriter, r *http.Request) {
	back := studentPath(r)
	if err := s.api.DeleteTheme(r.Context(), chi.URLParam(r, "themeId")); err != nil {
		s.fail(w, r, err, back)
		return
	}
	flashSuccess(r, "テーマを削除しました")
	http.Redirect(w, r, back, http.StatusSeeOther)
}

type labsPage struct {
	Labs  []clients.SeminarLab
	Error *errorPanel
}

func (s *Server) handleLabs(w http.ResponseWriter, r *http.Request) {
	page := labsPage{}
	labs, err := s.api.SeminarLabs(r.Context())
	if err != nil {
		panel, ok := s.panel(w, r, err, "/teacher/labs", "/teacher/dashboard")
		if !ok {
			return
		}
		page.Error = panel
	}
	page.Labs = labs
	s.render(w, r, http.StatusOK, "teacher_labs.html", page)
}

func parseLabForm(r *http.Request) (labForm, string) {
	form := labForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	return form, validationMessage(form)
}

func (s *Server) handleCreateLab(w http.ResponseWriter, r *http.Request) {
	form, msg := parseLabForm(r)
	if msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
		return
	}
	_, err := s.api.CreateSeminarLab(r.Context(), clients.SeminarLabInput{
		Name:        &form.Name,
		Description: &form.Description,
	})
	if err != nil {
		s.fail(w, r, err, "/teacher/labs")
		return
	}
	flashSuccess(r, "ゼミを作成しました")
	http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
}

func (s *Server) handleUpdateLab(w http.ResponseWriter, r *http.Request) {
	form, msg := parseLabForm(r)
	if msg != "" {
		flashError(r, msg)
		http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
		return
	}
	_, err := s.api.UpdateSeminarLab(r.Context(), chi.URLParam(r, "labId"), clients.SeminarLabInput{
		Name:        &form.Name,
		Description: &form.Description,
	})
	if err != nil {
		s.fail(w, r, err, "/teacher/labs")
		return
	}
	flashSuccess(r, "ゼミを更新しました")
	http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
}

// handleToggleLab sets is_active to the posted target value.
func (s *Server) handleToggleLab(w http.ResponseWriter, r *http.Request) {
	active := r.PostFormValue("active") == "true"
	_, err := s.api.UpdateSeminarLab(r.Context(), chi.URLParam(r, "labId"), clients.SeminarLabInput{IsActive: &active})
	if err != nil {
		s.fail(w, r, err, "/teacher/labs")
		return
	}
	if active {
		flashSuccess(r, "ゼミを有効にしました")
	} else {
		flashSuccess(r, "ゼミを無効にしました")
	}
	http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
}

func (s *Server) handleDeleteLab(w http.ResponseWriter, r *http.Request) {
	if err := s.api.DeleteSeminarLab(r.Context(), chi.URLParam(r, "labId")); err != nil {
		s.fail(w, r, err, "/teacher/labs")
		return
	}
	flashSuccess(r, "ゼミを削除しました")
	http.Redirect(w, r, "/teacher/labs", http.StatusSeeOther)
}
