package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/domain"
)

// LobbyService contains the lobby use cases, one per inbound message.
type LobbyService struct {
	registry    *Registry
	broadcaster *Broadcaster
	results     ResultWriter
	events      EventPublisher
	metrics     Metrics
}

// Option customizes a LobbyService.
type Option func(*LobbyService)

func WithEventPublisher(events EventPublisher) Option {
	return func(s *LobbyService) { s.events = events }
}

func WithMetrics(metrics Metrics) Option {
	return func(s *LobbyService) { s.metrics = metrics }
}

func NewLobbyService(registry *Registry, broadcaster *Broadcaster, results ResultWriter, opts ...Option) *LobbyService {
	s := &LobbyService{
		registry:    registry,
		broadcaster: broadcaster,
		results:     results,
		events:      NoOpPublisher{},
		metrics:     NoOpMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateLobby starts a quiz run for host on the given connection.
func (s *LobbyService) CreateLobby(ctx context.Context, hostID, connID, quizID string, overrides domain.ConfigOverrides) (*Lobby, error) {
	lobby, err := s.registry.Create(ctx, hostID, connID, quizID, overrides)
	if err != nil {
		return nil, err
	}
	s.broadcaster.LobbyCreated(lobby.ID(), connID, lobby.Config())
	s.metrics.LobbyOpened()
	s.publish(ctx, lobby, domain.LifecycleCreated, nil)

	log.Info().
		Str("lobby_id", lobby.ID()).
		Str("quiz_id", quizID).
		Str("host_id", hostID).
		Int("max_players", lobby.Config().MaxPlayers).
		Int("question_seconds", lobby.Config().QuestionDurationSeconds).
		Msg("lobby created")
	return lobby, nil
}

// JoinLobby adds a viewer to a lobby; late joiners receive the open question.
func (s *LobbyService) JoinLobby(_ context.Context, lobbyID string, viewer domain.Viewer) error {
	return s.withLobby(lobbyID, func(lobby *Lobby) error {
		open, err := lobby.Join(viewer)
		if err != nil {
			return err
		}
		s.broadcaster.ViewerJoined(lobbyID, viewer, open)
		return nil
	})
}

// StartQuestion opens the next question and broadcasts it.
func (s *LobbyService) StartQuestion(_ context.Context, hostID, lobbyID string) error {
	return s.withHostLobby(hostID, lobbyID, func(lobby *Lobby) error {
		question, err := lobby.StartQuestion(func(round uint64) { s.expire(lobbyID, round) })
		if err != nil {
			return err
		}
		s.broadcaster.QuestionStarted(lobbyID, question)
		log.Debug().Str("lobby_id", lobbyID).Str("question_id", question.ID).Int("index", question.Index).Msg("question started")
		return nil
	})
}

// SubmitAnswer records a viewer's choice for the open question.
func (s *LobbyService) SubmitAnswer(_ context.Context, viewerID, lobbyID string, choiceIndex int) error {
	return s.withLobby(lobbyID, func(lobby *Lobby) error {
		if err := lobby.SubmitAnswer(viewerID, choiceIndex); err != nil {
			return err
		}
		s.metrics.AnswerSubmitted()
		return nil
	})
}

// RevealAnswer closes the open question on the host's request.
func (s *LobbyService) RevealAnswer(_ context.Context, hostID, lobbyID string) error {
	return s.withHostLobby(hostID, lobbyID, func(lobby *Lobby) error {
		reveal, err := lobby.Reveal()
		if err != nil {
			return err
		}
		s.fanOutReveal(lobby, reveal, TriggerManual)
		return nil
	})
}

// EndQuiz persists final scores for every participant and removes the lobby.
func (s *LobbyService) EndQuiz(ctx context.Context, hostID, lobbyID string) ([]domain.ScoreEntry, error) {
	var results []domain.ScoreEntry
	err := s.withHostLobby(hostID, lobbyID, func(lobby *Lobby) error {
		results = lobby.FinalScores()
		if err := s.results.SaveResults(ctx, domain.SessionResult{
			SessionID: lobby.ID(),
			QuizID:    lobby.QuizID(),
			HostID:    lobby.HostID(),
			EndedAt:   time.Now().UTC(),
			Scores:    results,
		}); err != nil {
			return fmt.Errorf("save results: %w", err)
		}

		s.registry.Remove(lobbyID)
		s.broadcaster.QuizEnded(lobbyID, results)
		s.metrics.LobbyClosed(CloseEnded)
		s.publish(ctx, lobby, domain.LifecycleEnded, results)

		log.Info().Str("lobby_id", lobbyID).Int("participants", len(results)).Msg("quiz ended")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// Disconnect handles a closed connection. A host leaving discards the lobbies driven from
// that connection without writing results; a viewer leaving only drops out of the connected
// sets it joined over that connection.
func (s *LobbyService) Disconnect(ctx context.Context, identity domain.Identity, connID string) {
	switch identity.Role {
	case domain.RoleHost:
		for _, lobby := range s.registry.RemoveAllByHost(identity.ID, connID) {
			s.broadcaster.LobbyClosed(lobby.ID(), CloseHostDisconnect)
			s.metrics.LobbyClosed(CloseHostDisconnect)
			s.publish(ctx, lobby, domain.LifecycleDiscarded, nil)
			log.Warn().
				Str("lobby_id", lobby.ID()).
				Str("host_id", identity.ID).
				Msg("host disconnected, lobby discarded without saving results")
		}
	case domain.RoleViewer:
		if affected := s.registry.RemoveViewerEverywhere(identity.ID, connID); len(affected) > 0 {
			log.Debug().Str("viewer_id", identity.ID).Strs("lobbies", affected).Msg("viewer disconnected")
		}
	}
}

// Lobby returns a snapshot of a live lobby.
func (s *LobbyService) Lobby(lobbyID string) (domain.LobbySnapshot, error) {
	lobby, ok := s.registry.Get(lobbyID)
	if !ok {
		return domain.LobbySnapshot{}, domain.ErrLobbyNotFound
	}
	return lobby.Snapshot(), nil
}

// ActiveLobbies reports how many lobbies are live.
func (s *LobbyService) ActiveLobbies() int {
	return s.registry.Len()
}

// expire runs when a question's answer window closes without a manual reveal.
func (s *LobbyService) expire(lobbyID string, round uint64) {
	lobby, ok := s.registry.Get(lobbyID)
	if !ok {
		return
	}
	lobby.turn.Lock()
	defer lobby.turn.Unlock()

	reveal, ok := lobby.RevealRound(round)
	if !ok {
		return
	}
	s.fanOutReveal(lobby, reveal, TriggerTimer)
	log.Debug().Str("lobby_id", lobbyID).Str("question_id", reveal.QuestionID).Msg("answer window expired")
}

func (s *LobbyService) fanOutReveal(lobby *Lobby, reveal domain.Reveal, trigger string) {
	s.broadcaster.AnswerRevealed(lobby.ID(), lobby.HostConnectionID(), lobby.ConnectedViewers(), reveal)
	s.metrics.AnswerRevealed(trigger)
}

func (s *LobbyService) withLobby(lobbyID string, fn func(*Lobby) error) error {
	lobby, ok := s.registry.Get(lobbyID)
	if !ok {
		return domain.ErrLobbyNotFound
	}
	lobby.turn.Lock()
	defer lobby.turn.Unlock()
	return fn(lobby)
}

func (s *LobbyService) withHostLobby(hostID, lobbyID string, fn func(*Lobby) error) error {
	return s.withLobby(lobbyID, func(lobby *Lobby) error {
		if lobby.HostID() != hostID {
			return domain.ErrNotLobbyHost
		}
		return fn(lobby)
	})
}

func (s *LobbyService) publish(ctx context.Context, lobby *Lobby, kind string, results []domain.ScoreEntry) {
	err := s.events.PublishLifecycle(ctx, domain.LifecycleEvent{
		Kind:      kind,
		SessionID: lobby.ID(),
		QuizID:    lobby.QuizID(),
		HostID:    lobby.HostID(),
		At:        time.Now().UTC(),
		Results:   results,
	})
	if err != nil {
		// Lifecycle events are best effort.
		log.Warn().Err(err).Str("lobby_id", lobby.ID()).Str("kind", kind).Msg("failed to publish lifecycle event")
	}
}
