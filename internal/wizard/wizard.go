package wizard

import (
	"errors"
	"strings"

	"ashiato/journal/internal/clients"
)

type State string

const (
	ThemeSelection State = "theme_selection"
	StepPhoto      State = "step1_photo"
	StepDid        State = "step2_did"
	StepUnderstood State = "step3_understood"
	StepNext       State = "step4_next"
	Review         State = "review"
	Confirmation   State = "confirmation"
)

var order = []State{ThemeSelection, StepPhoto, StepDid, StepUnderstood, StepNext, Review, Confirmation}

var (
	ErrIncomplete        = errors.New("wizard: current step is incomplete")
	ErrInvalidTransition = errors.New("wizard: invalid transition")
	ErrAnalysisPending   = errors.New("wizard: analysis not available")
)

type Theme struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type Photo struct {
	ImageURL string `json:"image_url,omitempty"`
}

type Answers struct {
	Did        string `json:"did,omitempty"`
	Understood string `json:"understood,omitempty"`
	Next       string `json:"next,omitempty"`
}

// Wizard is the report submission flow. Each state owns its own slice of the
// payload; the analysis is captured once on entering review and is what gets
// submitted.
type Wizard struct {
	State    State                   `json:"state"`
	Theme    Theme                   `json:"theme"`
	Photo    Photo                   `json:"photo"`
	Answers  Answers                 `json:"answers"`
	Analysis *clients.AnalysisResult `json:"analysis,omitempty"`
	ReportID string                  `json:"report_id,omitempty"`
}

func New() *Wizard {
	return &Wizard{State: ThemeSelection}
}

func (w *Wizard) SelectTheme(id, title string) error {
	if w.State != ThemeSelection {
		return ErrInvalidTransition
	}
	if strings.TrimSpace(id) == "" {
		return ErrIncomplete
	}
	w.Theme = Theme{ID: id, Title: title}
	w.State = StepPhoto
	return nil
}

func (w *Wizard) AttachImage(url string) error {
	if w.State != StepPhoto {
		return ErrInvalidTransition
	}
	w.Photo.ImageURL = url
	return nil
}

// SetAnswer stores the free text for the current text step.
func (w *Wizard) SetAnswer(text string) error {
	switch w.State {
	case StepDid:
		w.Answers.Did = text
	case StepUnderstood:
		w.Answers.Understood = text
	case StepNext:
		w.Answers.Next = text
	default:
		return ErrInvalidTransition
	}
	return nil
}

// Answer returns the stored text for the current step.
func (w *Wizard) Answer() string {
	switch w.State {
	case StepDid:
		return w.Answers.Did
	case StepUnderstood:
		return w.Answers.Understood
	case StepNext:
		return w.Answers.Next
	}
	return ""
}

// CanAdvance reports whether "next" is enabled in the current state.
func (w *Wizard) CanAdvance(imageRequired bool) bool {
	switch w.State {
	case StepPhoto:
		return !imageRequired || w.Photo.ImageURL != ""
	case StepDid, StepUnderstood, StepNext:
		return strings.TrimSpace(w.Answer()) != ""
	}
	return false
}

// Next moves forward one input step. Leaving step4 enters review and drops
// any earlier analysis so the review screen fetches a fresh one.
func (w *Wizard) Next(imageRequired bool) error {
	switch w.State {
	case StepPhoto, StepDid, StepUnderstood, StepNext:
	default:
		return ErrInvalidTransition
	}
	if !w.CanAdvance(imageRequired) {
		return ErrIncomplete
	}
	w.State = order[w.index()+1]
	if w.State == Review {
		w.Analysis = nil
	}
	return nil
}

func (w *Wizard) Back() error {
	switch w.State {
	case StepPhoto, StepDid, StepUnderstood, StepNext, Review:
		w.State = order[w.index()-1]
		return nil
	}
	return ErrInvalidTransition
}

func (w *Wizard) NeedsAnalysis() bool {
	return w.State == Review && w.Analysis == nil
}

func (w *Wizard) SetAnalysis(result clients.AnalysisResult) error {
	if w.State != Review {
		return ErrInvalidTransition
	}
	w.Analysis = &result
	return nil
}

// Content joins the three answers into the report body.
func (w *Wizard) Content() string {
	sections := []struct {
		label string
		text  string
	}{
		{"やったこと", w.Answers.Did},
		{"わかったこと", w.Answers.Understood},
		{"次にやること", w.Answers.Next},
	}
	parts := make([]string, 0, len(sections))
	for _, section := range sections {
		text := strings.TrimSpace(section.text)
		if text == "" {
			continue
		}
		parts = append(parts, "【"+section.label+"】\n"+text)
	}
	return strings.Join(parts, "\n\n")
}

func (w *Wizard) AnalyzeRequest() clients.AnalyzeRequest {
	return clients.AnalyzeRequest{Content: w.Content(), ThemeID: w.Theme.ID}
}

// Submission builds the create payload from the stored analysis.
func (w *Wizard) Submission() (clients.ReportCreate, error) {
	if w.State != Review {
		return clients.ReportCreate{}, ErrInvalidTransition
	}
	if w.Analysis == nil {
		return clients.ReportCreate{}, ErrAnalysisPending
	}
	return clients.ReportCreate{
		Content:    w.Content(),
		ImageURL:   w.Photo.ImageURL,
		ThemeID:    w.Theme.ID,
		PhaseID:    w.Analysis.SuggestedPhaseID,
		AbilityIDs: w.Analysis.AbilityIDs(),
		AIComment:  w.Analysis.AIComment,
	}, nil
}

func (w *Wizard) Confirm(reportID string) error {
	if w.State != Review || w.Analysis == nil {
		return ErrInvalidTransition
	}
	w.ReportID = reportID
	w.State = Confirmation
	return nil
}

// Step returns the 1-based input step number, or 0 outside the input steps.
func (w *Wizard) Step() int {
	switch w.State {
	case StepPhoto:
		return 1
	case StepDid:
		return 2
	case StepUnderstood:
		return 3
	case StepNext:
		return 4
	}
	return 0
}

func (w *Wizard) index() int {
	for i, state := range order {
		if state == w.State {
			return i
		}
	}
	return 0
}
