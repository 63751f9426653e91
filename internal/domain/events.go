package domain

import "time"

// Outbound message types.
const (
	EventLobbyCreated    = "lobby_created"
	EventLobbyJoined     = "lobby_joined"
	EventQuestionStarted = "question_started"
	EventAnswerReveal    = "answer_reveal"
	EventQuestionRecap   = "question_recap"
	EventScoreUpdate     = "score_update"
	EventQuizEnded       = "quiz_ended"
	EventLobbyClosed     = "lobby_closed"
	EventError           = "error"
)

// Event is the envelope written to every connection.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type LobbyCreatedPayload struct {
	SessionID string      `json:"sessionId"`
	Config    LobbyConfig `json:"config"`
}

type LobbyJoinedPayload struct {
	SessionID string `json:"sessionId"`
}

type AnswerRevealPayload struct {
	QuestionID string        `json:"questionId"`
	Correct    int           `json:"correct"`
	Stats      []ChoiceCount `json:"stats"`
}

type QuizEndedPayload struct {
	SessionID string       `json:"sessionId"`
	Results   []ScoreEntry `json:"results"`
}

type LobbyClosedPayload struct {
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// ErrorEvent wraps err into the error envelope sent back to the originating connection.
func ErrorEvent(err error) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: err.Error()}}
}

// Lifecycle event kinds published to the message bus.
const (
	LifecycleCreated   = "created"
	LifecycleEnded     = "ended"
	LifecycleDiscarded = "discarded"
)

// LifecycleEvent is published whenever a lobby is created or torn down.
type LifecycleEvent struct {
	Kind      string       `json:"kind"`
	SessionID string       `json:"sessionId"`
	QuizID    string       `json:"quizId"`
	HostID    string       `json:"hostId"`
	At        time.Time    `json:"at"`
	Results   []ScoreEntry `json:"results,omitempty"`
}
