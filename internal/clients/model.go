package clients

type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url,omitempty"`
	Role      string `json:"role"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        User   `json:"user"`
}

type Theme struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FiscalYear  int    `json:"fiscal_year,omitempty"`
	Status      string `json:"status,omitempty"`
}

type ThemeInput struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	FiscalYear  *int   `json:"fiscal_year,omitempty"`
}

type Phase struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type Ability struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	DisplayOrder int    `json:"display_order"`
}

type AnalyzeRequest struct {
	Content string `json:"content"`
	ThemeID string `json:"theme_id,omitempty"`
}

type AbilityScore struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Score       int    `json:"score"`
	Description string `json:"description,omitempty"`
}

type AnalysisResult struct {
	SuggestedPhase     string         `json:"suggested_phase,omitempty"`
	SuggestedPhaseID   string         `json:"suggested_phase_id,omitempty"`
	SuggestedAbilities []AbilityScore `json:"suggested_abilities"`
	AIComment          string         `json:"ai_comment"`
}

// AbilityIDs returns the suggested ability ids in response order.
func (a AnalysisResult) AbilityIDs() []string {
	ids := make([]string, 0, len(a.SuggestedAbilities))
	for _, ability := range a.SuggestedAbilities {
		ids = append(ids, ability.ID)
	}
	return ids
}

type ReportCreate struct {
	Content    string   `json:"content"`
	ImageURL   string   `json:"image_url,omitempty"`
	ThemeID    string   `json:"theme_id"`
	PhaseID    string   `json:"phase_id,omitempty"`
	AbilityIDs []string `json:"ability_ids"`
	AIComment  string   `json:"ai_comment,omitempty"`
}

// Report covers both the student listing shape (phase object, ability_count)
// and the dashboard shape (phase_name, ability names).
type Report struct {
	ID           string   `json:"id"`
	Content      string   `json:"content"`
	ImageURL     string   `json:"image_url,omitempty"`
	Phase        *Phase   `json:"phase,omitempty"`
	PhaseName    string   `json:"phase_name,omitempty"`
	Abilities    []string `json:"abilities,omitempty"`
	AbilityCount int      `json:"ability_count,omitempty"`
	AIComment    string   `json:"ai_comment,omitempty"`
	ReportedAt   string   `json:"reported_at"`
}

// PhaseLabel returns whichever phase representation the backend sent.
func (r Report) PhaseLabel() string {
	if r.PhaseName != "" {
		return r.PhaseName
	}
	if r.Phase != nil {
		return r.Phase.Name
	}
	return ""
}

// DatedReport is the by-date shape, where phase is a plain name.
type DatedReport struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Phase      string   `json:"phase,omitempty"`
	Abilities  []string `json:"abilities"`
	AIComment  string   `json:"ai_comment,omitempty"`
	ReportedAt string   `json:"reported_at"`
}

type CalendarEntry struct {
	Date        string `json:"date"`
	ReportCount int    `json:"report_count"`
}

type CalendarResponse struct {
	Dates []CalendarEntry `json:"dates"`
	Year  int             `json:"year"`
	Month int             `json:"month"`
}

type Streak struct {
	CurrentStreak  int    `json:"current_streak"`
	MaxStreak      int    `json:"max_streak"`
	LastReportDate string `json:"last_report_date,omitempty"`
}

type AbilityCount struct {
	AbilityID   string `json:"ability_id"`
	AbilityName string `json:"ability_name"`
	Count       int    `json:"count"`
}

type StudentSummary struct {
	ID             string   `json:"id"`
	UserID         string   `json:"user_id"`
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Grade          *int     `json:"grade"`
	ClassName      string   `json:"class_name,omitempty"`
	ThemeTitle     string   `json:"theme_title,omitempty"`
	CurrentPhase   string   `json:"current_phase,omitempty"`
	TotalReports   int      `json:"total_reports"`
	CurrentStreak  int      `json:"current_streak"`
	MaxStreak      int      `json:"max_streak"`
	LastReportDate string   `json:"last_report_date,omitempty"`
	IsPrimary      bool     `json:"is_primary"`
	SeminarLabID   string   `json:"seminar_lab_id,omitempty"`
	SeminarLabName string   `json:"seminar_lab_name,omitempty"`
	AlertLevel     int      `json:"alert_level"`
	TopAbilities   []string `json:"top_abilities,omitempty"`
}

type StudentDetail struct {
	StudentSummary
	AbilityCounts []AbilityCount `json:"ability_counts"`
}

type StudentUpdate struct {
	Grade     *int   `json:"grade"`
	ClassName string `json:"class_name"`
}

type ScatterAbility struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DisplayOrder int    `json:"display_order"`
}

type ScatterPoint struct {
	StudentID     string             `json:"student_id"`
	StudentName   string             `json:"student_name"`
	Grade         *int               `json:"grade"`
	ClassName     string             `json:"class_name,omitempty"`
	AbilityScores map[string]float64 `json:"ability_scores"`
	AbilityPoints map[string]float64 `json:"ability_points,omitempty"`
}

type ScatterData struct {
	Abilities  []ScatterAbility `json:"abilities"`
	DataPoints []ScatterPoint   `json:"data_points"`
}

type Book struct {
	ID                 string `json:"id,omitempty"`
	Title              string `json:"title"`
	Author             string `json:"author,omitempty"`
	Publisher          string `json:"publisher,omitempty"`
	Description        string `json:"description,omitempty"`
	ISBN               string `json:"isbn,omitempty"`
	CoverImageURL      string `json:"cover_image_url,omitempty"`
	RecommendedComment string `json:"recommended_comment,omitempty"`
}

type SeminarLab struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	TeacherName  string `json:"teacher_name,omitempty"`
	StudentCount int    `json:"student_count"`
	IsActive     bool   `json:"is_active"`
}

type SeminarLabInput struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string        `json:"message"`
	ConversationHistory []ChatMessage `json:"conversation_history,omitempty"`
}

type ChatResponse struct {
	Response string `json:"response"`
}
