// Package domain defines the persistence models for clients, coaching
// sessions, messages, documents, prompts, agent feedback, and reports.
// These types are mapped with GORM and form the core data layer of the
// coaching application.
package domain

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// User roles. Administrators may access every client; coaches only the
// clients assigned to them.
const (
	RoleAdmin = "ADMIN"
	RoleCoach = "COACH"
)

// Message provenance. HUMAN marks text typed by a person, AI marks text
// generated by the model.
const (
	SourceHuman = "HUMAN"
	SourceAI    = "AI"
)

// Document kinds.
const (
	DocumentKindText  = "TEXT"
	DocumentKindAudio = "AUDIO"
)

// Agent kinds for prompts and feedback.
const (
	AgentKindCoach    = "COACH"
	AgentKindOverseer = "OVERSEER"
	AgentKindReport   = "REPORT"
)

// OverseerClientID is the reserved client row that backs the global
// overseer thread. It satisfies the session foreign key and is excluded
// from client listings.
const OverseerClientID = "00000000-0000-0000-0000-000000000000"

// User is an account that can sign in: an administrator or a coach.
type User struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Email     string         `json:"email"      gorm:"type:varchar(255);not null;uniqueIndex"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	Role      string         `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('ADMIN','COACH')"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// AuthSession ties a browser session cookie to a user. Authentication
// protocol internals live outside this service; the table only resolves a
// presented token to an identity.
type AuthSession struct {
	Token     string    `json:"-"          gorm:"type:char(64);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;index"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`

	User User `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AuthSession.
func (AuthSession) TableName() string { return "auth_sessions" }

// Client is a coaching client profile. The orchestrator treats it as
// read-only; mutations happen through the profile-update endpoints.
//
// Goals is stored as a JSON array in a TEXT column; use GoalList/SetGoals
// instead of touching the raw column.
type Client struct {
	ID        string         `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string         `json:"name"       gorm:"type:varchar(255);not null"`
	FocusArea string         `json:"focusArea"  gorm:"type:varchar(255);not null;default:''"`
	Summary   string         `json:"summary"    gorm:"type:text;not null;default:''"`
	Goals     string         `json:"-"          gorm:"type:text;not null;default:'[]'"`
	AvatarURL string         `json:"avatarUrl,omitempty"  gorm:"type:text"`
	CoachID   *string        `json:"coachId,omitempty"    gorm:"type:char(36);index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-"          gorm:"index"`
}

// TableName returns the database table name for Client.
func (Client) TableName() string { return "clients" }

// GoalList decodes the stored goals column. A malformed column yields an
// empty list rather than an error; goals are advisory text.
func (c *Client) GoalList() []string {
	if c.Goals == "" {
		return nil
	}
	var out []string
	if err := json.Unmarshal([]byte(c.Goals), &out); err != nil {
		return nil
	}
	return out
}

// SetGoals encodes goals into the stored column.
func (c *Client) SetGoals(goals []string) {
	if goals == nil {
		goals = []string{}
	}
	b, err := json.Marshal(goals)
	if err != nil {
		c.Goals = "[]"
		return
	}
	c.Goals = string(b)
}

// MarshalJSON flattens the goals column into a proper JSON array field.
func (c Client) MarshalJSON() ([]byte, error) {
	type alias Client
	return json.Marshal(struct {
		alias
		GoalsOut []string `json:"goals"`
	}{alias: alias(c), GoalsOut: (&c).GoalList()})
}

// CoachingSession relates one (user, client) pair to a persisted
// conversation thread. Created lazily on first interaction; at most one
// active session exists per pair (enforced by the unique index) and
// sessions are never deleted within this application.
type CoachingSession struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"   gorm:"type:char(36);not null;uniqueIndex:ux_session_user_client,priority:1"`
	ClientID  string    `json:"client_id" gorm:"type:char(36);not null;uniqueIndex:ux_session_user_client,priority:2;index"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Client Client `json:"-" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for CoachingSession.
func (CoachingSession) TableName() string { return "coaching_sessions" }

// Message is a single turn within a coaching session. Messages are
// insertion-ordered and immutable once written.
//
// Fields:
//   - Role: "user", "assistant", or "system".
//   - Source: HUMAN for person-typed turns, AI for generated ones.
//   - ResponseID / *Tokens: completion metadata, present on AI turns only.
type Message struct {
	ID               string    `json:"id"         gorm:"type:char(36);primaryKey"`
	SessionID        string    `json:"session_id" gorm:"type:char(36);not null;index:idx_session_msgs,priority:1"`
	Role             string    `json:"role"       gorm:"type:varchar(16);not null;check:role IN ('user','assistant','system')"`
	Source           string    `json:"source"     gorm:"type:varchar(8);not null;check:source IN ('HUMAN','AI')"`
	Content          string    `json:"content"    gorm:"type:text;not null"`
	ResponseID       string    `json:"response_id,omitempty" gorm:"type:varchar(128)"`
	PromptTokens     int       `json:"prompt_tokens,omitempty"`
	CompletionTokens int       `json:"completion_tokens,omitempty"`
	TotalTokens      int       `json:"total_tokens,omitempty"`
	CreatedAt        time.Time `json:"created_at" gorm:"index:idx_session_msgs,priority:2"`

	Session CoachingSession `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Document is an uploaded client file. Created once on upload and never
// mutated afterwards; extracted content, once stored, is treated as
// immutable evidence.
//
// Content holds the extracted text (raw capture for TEXT, transcription for
// AUDIO). It is nil when extraction failed or was not applicable — the
// upload itself still succeeds in that case.
type Document struct {
	ID            string    `json:"id"            gorm:"type:char(36);primaryKey"`
	ClientID      string    `json:"client_id"     gorm:"type:char(36);not null;index"`
	OriginalName  string    `json:"originalName"  gorm:"type:varchar(512);not null"`
	StoredName    string    `json:"storedName"    gorm:"type:varchar(512);not null"`
	MimeType      string    `json:"mimeType"      gorm:"type:varchar(128);not null"`
	Size          int64     `json:"size"          gorm:"not null"`
	Content       *string   `json:"-"             gorm:"type:text"`
	Kind          string    `json:"kind"          gorm:"type:varchar(8);not null;check:kind IN ('TEXT','AUDIO')"`
	AudioDuration *float64  `json:"audioDuration,omitempty"`
	CreatedAt     time.Time `json:"created_at"`

	Client Client `json:"-" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Document.
func (Document) TableName() string { return "documents" }

// HasContent reports whether extraction produced usable text.
func (d *Document) HasContent() bool {
	return d.Content != nil && *d.Content != ""
}

// Prompt is the editable base system instruction for one agent kind.
// There is at most one row per kind; updates overwrite in place, no
// history is kept beyond UpdatedAt.
type Prompt struct {
	Kind      string    `json:"kind"      gorm:"type:varchar(16);primaryKey"`
	Content   string    `json:"content"   gorm:"type:text;not null"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the database table name for Prompt.
func (Prompt) TableName() string { return "prompts" }

// AgentFeedback is free-text critique on a generated message, keyed by
// agent kind. Append-only; consumed by prompt refinement.
type AgentFeedback struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	AgentKind string    `json:"agentKind"  gorm:"type:varchar(16);not null;index"`
	MessageID string    `json:"message_id" gorm:"type:char(36);not null;index"`
	Feedback  string    `json:"feedback"   gorm:"type:text;not null"`
	CreatedAt time.Time `json:"created_at"`

	Message Message `json:"-" gorm:"foreignKey:MessageID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for AgentFeedback.
func (AgentFeedback) TableName() string { return "agent_feedback" }

// Report is a generated progress report for a client.
type Report struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	ClientID   string    `json:"client_id"   gorm:"type:char(36);not null;index"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	ResponseID string    `json:"response_id,omitempty" gorm:"type:varchar(128)"`
	CreatedAt  time.Time `json:"created_at"`

	Client Client `json:"-" gorm:"foreignKey:ClientID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

// TableName returns the database table name for Report.
func (Report) TableName() string { return "reports" }
