package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/imageproc"
	"ashiato/journal/internal/wizard"
)

type stepPrompt struct {
	Title       string
	Placeholder string
}

var stepPrompts = map[wizard.State]stepPrompt{
	wizard.StepPhoto:      {Title: "今日の活動の写真", Placeholder: ""},
	wizard.StepDid:        {Title: "今日やったことは？", Placeholder: "例：地域の方にインタビューをした"},
	wizard.StepUnderstood: {Title: "わかったことは？", Placeholder: "例：地域の課題は高齢化だけでなく交通にもあると気づいた"},
	wizard.StepNext:       {Title: "次にやることは？", Placeholder: "例：アンケートを作って友達に配る"},
}

type reportPage struct {
	Wizard        *wizard.Wizard
	Theme         *clients.Theme
	Prompt        stepPrompt
	Step          int
	TotalSteps    int
	CanAdvance    bool
	ImageRequired bool
	Content       string
	Error         *errorPanel
}

// currentWizard returns the session's wizard, starting one if needed.
func currentWizard(r *http.Request) *wizard.Wizard {
	sess := sessionFromContext(r.Context())
	if sess.Wizard == nil {
		sess.Wizard = wizard.New()
	}
	return sess.Wizard
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	wz := currentWizard(r)
	page := reportPage{
		Wizard:        wz,
		TotalSteps:    4,
		ImageRequired: s.cfg.ReportImageRequired,
	}

	switch wz.State {
	case wizard.ThemeSelection:
		theme, err := s.api.CurrentTheme(r.Context())
		if err != nil {
			if clients.IsNotFound(err) {
				http.Redirect(w, r, "/student/theme/create", http.StatusFound)
				return
			}
			panel, ok := s.panel(w, r, err, "/student/report", "/student/menu")
			if !ok {
				return
			}
			page.Error = panel
		}
		page.Theme = theme

	case wizard.Review:
		if wz.NeedsAnalysis() {
			result, err := s.api.AnalyzeReport(r.Context(), wz.AnalyzeRequest())
			if err != nil {
				panel, ok := s.panel(w, r, err, "/student/report", "")
				if !ok {
					return
				}
				page.Error = panel
			} else if err := wz.SetAnalysis(*result); err != nil {
				internalError(w, err)
				return
			}
		}
		page.Content = wz.Content()

	case wizard.Confirmation:
		http.Redirect(w, r, "/student/report/complete", http.StatusFound)
		return
	}

	page.Step = wz.Step()
	page.Prompt = stepPrompts[wz.State]
	page.CanAdvance = wz.CanAdvance(s.cfg.ReportImageRequired)
	s.render(w, r, http.StatusOK, "student_report.html", page)
}

// handleReportAction applies one wizard transition posted from the form.
func (s *Server) handleReportAction(w http.ResponseWriter, r *http.Request) {
	wz := currentWizard(r)
	action := r.PostFormValue("action")
	if bodyTooLarge(r) {
		s.rejectOversizedBody(w, r)
		return
	}

	var err error
	switch action {
	case "select_theme":
		if wz.State != wizard.ThemeSelection {
			err = wizard.ErrInvalidTransition
			break
		}
		theme, themeErr := s.api.CurrentTheme(r.Context())
		if themeErr != nil {
			s.fail(w, r, themeErr, "/student/report")
			return
		}
		err = wz.SelectTheme(theme.ID, theme.Title)
	case "upload":
		s.handleReportUpload(w, r, wz)
		return
	case "remove_image":
		err = wz.AttachImage("")
	case "next":
		if wz.Step() > 1 {
			if err = wz.SetAnswer(r.PostFormValue("answer")); err != nil {
				break
			}
		}
		err = wz.Next(s.cfg.ReportImageRequired)
	case "back":
		if wz.Step() > 1 {
			_ = wz.SetAnswer(r.PostFormValue("answer"))
		}
		err = wz.Back()
	case "reset":
		sessionFromContext(r.Context()).Wizard = wizard.New()
	default:
		err = wizard.ErrInvalidTransition
	}

	switch {
	case errors.Is(err, wizard.ErrIncomplete):
		if wz.Step() == 1 {
			flashError(r, "写真をアップロードしてください")
		} else {
			flashError(r, "入力してください")
		}
	case err != nil:
		slog.Warn("wizard_transition_rejected", "action", action, "state", string(wz.State), "error", err.Error())
	}
	http.Redirect(w, r, "/student/report", http.StatusSeeOther)
}

func (s *Server) handleReportUpload(w http.ResponseWriter, r *http.Request, wz *wizard.Wizard) {
	if wz.State != wizard.StepPhoto {
		http.Redirect(w, r, "/student/report", http.StatusSeeOther)
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		flashError(r, "ファイルが選択されていません")
		http.Redirect(w, r, "/student/report", http.StatusSeeOther)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		flashError(r, imageproc.Message(imageproc.ErrTooLarge, s.cfg.UploadMaxBytes))
		http.Redirect(w, r, "/student/report", http.StatusSeeOther)
		return
	}
	prepared, err := imageproc.Prepare(header.Filename, data, imageproc.Options{
		MaxBytes:     s.cfg.UploadMaxBytes,
		MaxDimension: s.cfg.UploadMaxDimension,
	})
	if err != nil {
		flashError(r, imageproc.Message(err, s.cfg.UploadMaxBytes))
		http.Redirect(w, r, "/student/report", http.StatusSeeOther)
		return
	}

	imageURL, err := s.api.UploadImage(r.Context(), prepared.Filename, prepared.Data)
	if err != nil {
		s.fail(w, r, err, "/student/report")
		return
	}
	if err := wz.AttachImage(imageURL); err != nil {
		internalError(w, err)
		return
	}
	slog.Info("report_image_uploaded", "bytes", len(prepared.Data), "resized", prepared.Resized, "request_id", requestIDFromContext(r.Context()))
	flashSuccess(r, "写真をアップロードしました")
	http.Redirect(w, r, "/student/report", http.StatusSeeOther)
}

// handleReportSubmit posts the report using the analysis the student saw on
// the review screen. Analysis is never re-run here.
func (s *Server) handleReportSubmit(w http.ResponseWriter, r *http.Request) {
	wz := currentWizard(r)
	payload, err := wz.Submission()
	if err != nil {
		if errors.Is(err, wizard.ErrAnalysisPending) {
			flashError(r, "分析結果を取得してから報告してください")
		}
		http.Redirect(w, r, "/student/report", http.StatusSeeOther)
		return
	}
	report, err := s.api.CreateReport(r.Context(), payload)
	if err != nil {
		s.fail(w, r, err, "/student/report")
		return
	}
	if err := wz.Confirm(report.ID); err != nil {
		internalError(w, err)
		return
	}
	http.Redirect(w, r, "/student/report/complete", http.StatusSeeOther)
}

type completePage struct {
	ThemeTitle string
	Analysis   *clients.AnalysisResult
	ReportID   string
}

// handleReportComplete shows the confirmation once; the wizard is reset so
// the next visit starts a fresh report.
func (s *Server) handleReportComplete(w http.ResponseWriter, r *http.Request) {
	sess := sessionFromContext(r.Context())
	wz := sess.Wizard
	if wz == nil || wz.State != wizard.Confirmation {
		http.Redirect(w, r, "/student/menu", http.StatusFound)
		return
	}
	page := completePage{
		ThemeTitle: strings.TrimSpace(wz.Theme.Title),
		Analysis:   wz.Analysis,
		ReportID:   wz.ReportID,
	}
	sess.Wizard = nil
	s.render(w, r, http.StatusOK, "student_report_complete.html", page)
}
