package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"ashiato/journal/internal/clients"
	"ashiato/journal/internal/wizard"
)

var ErrNotFound = errors.New("session: not found")

// Store persists sessions between requests.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, sess *Session) error
	Delete(ctx context.Context, id string) error
}

// Field names. access_token and user keep the names the browser client
// stored them under.
const (
	fieldToken         = "access_token"
	fieldUser          = "user"
	fieldWizard        = "wizard"
	fieldChat          = "chat"
	fieldFlash         = "flash"
	fieldRequestedRole = "requested_role"
	fieldUpdatedAt     = "updated_at"
)

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashError   = "error"
)

type Flash struct {
	Kind       string `json:"kind"`
	Message    string `json:"message"`
	DurationMS int    `json:"duration_ms"`
}

// Session is the per-browser state: credentials plus in-progress view state.
type Session struct {
	ID            string
	Wizard        *wizard.Wizard
	Chat          []clients.ChatMessage
	Flashes       []Flash
	RequestedRole string
	UpdatedAt     time.Time

	token string
	user  *clients.User
}

func New() *Session {
	return &Session{ID: uuid.New().String()}
}

func (s *Session) AccessToken() string {
	return s.token
}

// StoredUser returns the signed-in user, or nil.
func (s *Session) StoredUser() *clients.User {
	return s.user
}

func (s *Session) SetAuth(token string, user *clients.User) {
	s.token = token
	s.user = user
}

// ClearAuth drops credentials and every piece of per-user view state.
func (s *Session) ClearAuth() {
	s.token = ""
	s.user = nil
	s.Wizard = nil
	s.Chat = nil
	s.RequestedRole = ""
}

func (s *Session) IsLoggedIn() bool {
	return s.token != ""
}

// HasRole reports whether the stored user has any of roles.
func (s *Session) HasRole(roles ...string) bool {
	if s.user == nil {
		return false
	}
	for _, role := range roles {
		if s.user.Role == role {
			return true
		}
	}
	return false
}

func (s *Session) Role() string {
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// AddFlash queues a toast. Errors stay on screen longer. A toast identical
// to one already queued is dropped.
func (s *Session) AddFlash(kind, message string) {
	for _, f := range s.Flashes {
		if f.Kind == kind && f.Message == message {
			return
		}
	}
	duration := 3000
	if kind == FlashError {
		duration = 5000
	}
	s.Flashes = append(s.Flashes, Flash{Kind: kind, Message: message, DurationMS: duration})
}

// PopFlashes returns queued toasts and clears the queue.
func (s *Session) PopFlashes() []Flash {
	flashes := s.Flashes
	s.Flashes = nil
	return flashes
}

const maxChatTurns = 20

func (s *Session) AppendChat(role, content string) {
	s.Chat = append(s.Chat, clients.ChatMessage{Role: role, Content: content})
	if len(s.Chat) > maxChatTurns {
		s.Chat = append([]clients.ChatMessage(nil), s.Chat[len(s.Chat)-maxChatTurns:]...)
	}
}

// encode flattens a session into string fields.
func encode(s *Session) (map[string]string, error) {
	fields := map[string]string{
		fieldUpdatedAt: s.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if s.token != "" {
		fields[fieldToken] = s.token
	}
	if s.RequestedRole != "" {
		fields[fieldRequestedRole] = s.RequestedRole
	}
	values := map[string]interface{}{
		fieldUser:   s.user,
		fieldWizard: s.Wizard,
		fieldChat:   s.Chat,
		fieldFlash:  s.Flashes,
	}
	for key, value := range values {
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if string(data) == "null" {
			continue
		}
		fields[key] = string(data)
	}
	return fields, nil
}

// decode rebuilds a session. A field that fails to parse is dropped rather
// than failing the load; a broken user record therefore reads as signed out.
func decode(id string, fields map[string]string) *Session {
	s := &Session{
		ID:            id,
		token:         fields[fieldToken],
		RequestedRole: fields[fieldRequestedRole],
	}
	if raw := fields[fieldUpdatedAt]; raw != "" {
		if parsed, err := time.Parse(time.RFC3339Nano, raw); err == nil {
			s.UpdatedAt = parsed
		}
	}
	if raw := fields[fieldUser]; raw != "" {
		var user clients.User
		if err := json.Unmarshal([]byte(raw), &user); err == nil {
			s.user = &user
		}
	}
	if s.user == nil {
		s.token = ""
	}
	if raw := fields[fieldWizard]; raw != "" {
		var w wizard.Wizard
		if err := json.Unmarshal([]byte(raw), &w); err == nil {
			s.Wizard = &w
		}
	}
	if raw := fields[fieldChat]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &s.Chat)
	}
	if raw := fields[fieldFlash]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &s.Flashes)
	}
	return s
}
