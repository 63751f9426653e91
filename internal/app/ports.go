package app

import (
	"context"

	"live-trivia-service/internal/domain"
)

// QuizRepository loads quiz snapshots (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// LobbyStore abstracts where live lobbies are kept (in-memory, Redis-marked, etc).
type LobbyStore interface {
	Put(lobby *Lobby)
	Get(id string) (*Lobby, bool)
	Delete(id string)
	List() []*Lobby
}

// ResultWriter durably records finished sessions.
type ResultWriter interface {
	SaveResults(ctx context.Context, result domain.SessionResult) error
}

// EventPublisher announces lobby lifecycle changes to other services.
type EventPublisher interface {
	PublishLifecycle(ctx context.Context, event domain.LifecycleEvent) error
}

// Dispatcher delivers events to rooms (one per lobby) and to single connections.
type Dispatcher interface {
	Subscribe(room, connID string)
	CloseRoom(room string)
	Publish(room string, event domain.Event)
	Send(connID string, event domain.Event)
}

// Metrics records engine activity.
type Metrics interface {
	LobbyOpened()
	LobbyClosed(reason string)
	AnswerSubmitted()
	AnswerRevealed(trigger string)
}

// Reveal triggers and close reasons reported to Metrics.
const (
	TriggerManual = "manual"
	TriggerTimer  = "timer"

	CloseEnded          = "ended"
	CloseHostDisconnect = "host_disconnected"
)

// NoOpMetrics is used when metrics aren't needed.
type NoOpMetrics struct{}

func (NoOpMetrics) LobbyOpened()          {}
func (NoOpMetrics) LobbyClosed(string)    {}
func (NoOpMetrics) AnswerSubmitted()      {}
func (NoOpMetrics) AnswerRevealed(string) {}

// NoOpPublisher drops lifecycle events.
type NoOpPublisher struct{}

func (NoOpPublisher) PublishLifecycle(context.Context, domain.LifecycleEvent) error { return nil }
