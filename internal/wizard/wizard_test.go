package wizard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ashiato/journal/internal/clients"
)

func fillToReview(t *testing.T, w *Wizard) {
	t.Helper()
	require.NoError(t, w.SelectTheme("theme-1", "地域の環境問題"))
	require.NoError(t, w.AttachImage("/static/uploads/a.png"))
	require.NoError(t, w.Next(true))
	require.NoError(t, w.SetAnswer("川の水を採取した"))
	require.NoError(t, w.Next(true))
	require.NoError(t, w.SetAnswer("上流の方がきれいだった"))
	require.NoError(t, w.Next(true))
	require.NoError(t, w.SetAnswer("下流の工場に話を聞く"))
	require.NoError(t, w.Next(true))
	require.Equal(t, Review, w.State)
}

func TestForwardFlow(t *testing.T) {
	w := New()
	assert.Equal(t, ThemeSelection, w.State)
	fillToReview(t, w)
	assert.True(t, w.NeedsAnalysis())

	_, err := w.Submission()
	assert.True(t, errors.Is(err, ErrAnalysisPending))

	result := clients.AnalysisResult{
		SuggestedPhase:   "情報の収集",
		SuggestedPhaseID: "phase-2",
		SuggestedAbilities: []clients.AbilityScore{
			{ID: "ab-1", Name: "情報収集能力と先を見る力", Score: 85},
			{ID: "ab-3", Name: "対話する力", Score: 60},
		},
		AIComment: "素晴らしい進捗ですね！",
	}
	require.NoError(t, w.SetAnalysis(result))
	assert.False(t, w.NeedsAnalysis())

	payload, err := w.Submission()
	require.NoError(t, err)
	assert.Equal(t, "theme-1", payload.ThemeID)
	assert.Equal(t, "phase-2", payload.PhaseID)
	assert.Equal(t, []string{"ab-1", "ab-3"}, payload.AbilityIDs)
	assert.Equal(t, "素晴らしい進捗ですね！", payload.AIComment)
	assert.Equal(t, "/static/uploads/a.png", payload.ImageURL)
	assert.Equal(t, "【やったこと】\n川の水を採取した\n\n【わかったこと】\n上流の方がきれいだった\n\n【次にやること】\n下流の工場に話を聞く", payload.Content)

	require.NoError(t, w.Confirm("report-9"))
	assert.Equal(t, Confirmation, w.State)
	assert.Equal(t, "report-9", w.ReportID)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)
}

func TestBackTransitions(t *testing.T) {
	w := New()
	require.NoError(t, w.SelectTheme("theme-1", "t"))
	require.NoError(t, w.Back())
	assert.Equal(t, ThemeSelection, w.State)
	assert.ErrorIs(t, w.Back(), ErrInvalidTransition)

	w = New()
	fillToReview(t, w)
	require.NoError(t, w.SetAnalysis(clients.AnalysisResult{AIComment: "x"}))
	require.NoError(t, w.Back())
	assert.Equal(t, StepNext, w.State)
	assert.Equal(t, "下流の工場に話を聞く", w.Answer())

	require.NoError(t, w.Next(false))
	assert.Equal(t, Review, w.State)
	assert.Nil(t, w.Analysis, "re-entering review must request a fresh analysis")
}

func TestImageRequiredGate(t *testing.T) {
	w := New()
	require.NoError(t, w.SelectTheme("theme-1", "t"))

	assert.False(t, w.CanAdvance(true))
	assert.ErrorIs(t, w.Next(true), ErrIncomplete)
	assert.True(t, w.CanAdvance(false))

	require.NoError(t, w.AttachImage("/static/uploads/b.jpg"))
	assert.True(t, w.CanAdvance(true))
	require.NoError(t, w.Next(true))
	assert.Equal(t, StepDid, w.State)
}

func TestBlankTextBlocksNext(t *testing.T) {
	w := New()
	require.NoError(t, w.SelectTheme("theme-1", "t"))
	require.NoError(t, w.Next(false))

	require.NoError(t, w.SetAnswer("   \n"))
	assert.False(t, w.CanAdvance(false))
	assert.ErrorIs(t, w.Next(false), ErrIncomplete)

	require.NoError(t, w.SetAnswer("観察した"))
	assert.True(t, w.CanAdvance(false))
}

func TestInvalidOperations(t *testing.T) {
	w := New()
	assert.ErrorIs(t, w.SelectTheme("", "t"), ErrIncomplete)
	assert.ErrorIs(t, w.AttachImage("x"), ErrInvalidTransition)
	assert.ErrorIs(t, w.SetAnswer("x"), ErrInvalidTransition)
	assert.ErrorIs(t, w.Next(false), ErrInvalidTransition)
	assert.ErrorIs(t, w.SetAnalysis(clients.AnalysisResult{}), ErrInvalidTransition)
	assert.ErrorIs(t, w.Confirm("r"), ErrInvalidTransition)
	assert.Equal(t, 0, w.Step())
}

func TestContentSkipsBlankSections(t *testing.T) {
	w := &Wizard{Answers: Answers{Did: "調べた", Next: " 発表する "}}
	assert.Equal(t, "【やったこと】\n調べた\n\n【次にやること】\n発表する", w.Content())
}
