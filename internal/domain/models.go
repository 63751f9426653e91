package domain

import "time"

// Role tags an authenticated connection.
type Role string

const (
	RoleHost   Role = "host"
	RoleViewer Role = "viewer"
)

// Identity is what the connection gateway attaches to a connection after the handshake.
type Identity struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// Choice is one selectable answer of a question.
type Choice struct {
	Index int    `json:"index" yaml:"index"`
	Text  string `json:"text" yaml:"text"`
}

// Question models an MCQ question with exactly one correct choice.
type Question struct {
	ID                 string   `json:"id" yaml:"id"`
	Text               string   `json:"text" yaml:"text"`
	Choices            []Choice `json:"choices" yaml:"choices"`
	CorrectChoiceIndex int      `json:"correctChoiceIndex" yaml:"correctChoiceIndex"`
	AudioKey           string   `json:"audioKey,omitempty" yaml:"audioKey,omitempty"`
	ImageKey           string   `json:"imageKey,omitempty" yaml:"imageKey,omitempty"`
}

// Quiz is the immutable snapshot a lobby runs against.
type Quiz struct {
	ID        string     `json:"id" yaml:"id"`
	OwnerID   string     `json:"ownerId" yaml:"ownerId"`
	Title     string     `json:"title" yaml:"title"`
	Questions []Question `json:"questions" yaml:"questions"`
}

// LobbyConfig is resolved once when a lobby is created.
type LobbyConfig struct {
	MaxPlayers              int `json:"maxPlayers"`
	QuestionDurationSeconds int `json:"questionDurationSeconds"`
}

// QuestionDuration returns the answer window as a time.Duration.
func (c LobbyConfig) QuestionDuration() time.Duration {
	return time.Duration(c.QuestionDurationSeconds) * time.Second
}

// ConfigOverrides carries the optional create_lobby config; nil or non-positive fields fall back to defaults.
type ConfigOverrides struct {
	MaxPlayers              *int `json:"maxPlayers,omitempty"`
	QuestionDurationSeconds *int `json:"questionDurationSeconds,omitempty"`
}

// Resolve applies the overrides on top of defaults.
func (o ConfigOverrides) Resolve(defaults LobbyConfig) LobbyConfig {
	cfg := defaults
	if o.MaxPlayers != nil && *o.MaxPlayers > 0 {
		cfg.MaxPlayers = *o.MaxPlayers
	}
	if o.QuestionDurationSeconds != nil && *o.QuestionDurationSeconds > 0 {
		cfg.QuestionDurationSeconds = *o.QuestionDurationSeconds
	}
	return cfg
}

// Viewer is a participant of a lobby together with its current connection.
type Viewer struct {
	ID           string `json:"viewerId"`
	DisplayName  string `json:"displayName"`
	ConnectionID string `json:"-"`
}

// PublicQuestion is the viewer-facing question: no correct choice index.
type PublicQuestion struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Choices   []Choice `json:"choices"`
	Index     int      `json:"index"`
	Total     int      `json:"total"`
	Remaining int      `json:"remaining"`
	AudioKey  string   `json:"audioKey,omitempty"`
	ImageKey  string   `json:"imageKey,omitempty"`
}

// ChoiceCount is one (choiceIndex, count) pair of the reveal statistics.
type ChoiceCount struct {
	ChoiceIndex int `json:"choiceIndex"`
	Count       int `json:"count"`
}

// ScoreEntry is a snapshot-friendly view of a participant's score.
type ScoreEntry struct {
	ViewerID    string `json:"viewerId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// Reveal is everything computed when a question's answer window closes.
type Reveal struct {
	QuestionID string        `json:"questionId"`
	Correct    int           `json:"correct"`
	Stats      []ChoiceCount `json:"stats"`
	Scoreboard []ScoreEntry  `json:"scoreboard"`
}

// Standing is the personalized result a single viewer receives after a reveal.
type Standing struct {
	Score int          `json:"score"`
	Rank  int          `json:"rank"`
	Top   []ScoreEntry `json:"top"`
}

// SessionResult is what gets persisted when a host ends a quiz.
type SessionResult struct {
	SessionID string
	QuizID    string
	HostID    string
	EndedAt   time.Time
	Scores    []ScoreEntry
}

// LobbySnapshot is a read-only view of a lobby for the HTTP surface.
type LobbySnapshot struct {
	SessionID            string      `json:"sessionId"`
	QuizID               string      `json:"quizId"`
	HostID               string      `json:"hostId"`
	Phase                string      `json:"phase"`
	CurrentQuestionIndex int         `json:"currentQuestionIndex"`
	TotalQuestions       int         `json:"totalQuestions"`
	Viewers              int         `json:"viewers"`
	Participants         int         `json:"participants"`
	Config               LobbyConfig `json:"config"`
	CreatedAt            time.Time   `json:"createdAt"`
}
