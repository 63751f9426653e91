package app

import "live-trivia-service/internal/domain"

// Broadcaster turns lobby results into room, host and viewer deliveries. It holds no state of its own.
type Broadcaster struct {
	dispatcher Dispatcher
}

func NewBroadcaster(dispatcher Dispatcher) *Broadcaster {
	return &Broadcaster{dispatcher: dispatcher}
}

// LobbyCreated puts the host connection in the lobby room and acknowledges creation.
func (b *Broadcaster) LobbyCreated(lobbyID, hostConnID string, cfg domain.LobbyConfig) {
	b.dispatcher.Subscribe(lobbyID, hostConnID)
	b.dispatcher.Send(hostConnID, domain.Event{
		Type:    domain.EventLobbyCreated,
		Payload: domain.LobbyCreatedPayload{SessionID: lobbyID, Config: cfg},
	})
}

// ViewerJoined puts the viewer in the room and, for late joiners, replays the open question.
func (b *Broadcaster) ViewerJoined(lobbyID string, viewer domain.Viewer, open *domain.PublicQuestion) {
	b.dispatcher.Subscribe(lobbyID, viewer.ConnectionID)
	b.dispatcher.Send(viewer.ConnectionID, domain.Event{
		Type:    domain.EventLobbyJoined,
		Payload: domain.LobbyJoinedPayload{SessionID: lobbyID},
	})
	if open != nil {
		b.dispatcher.Send(viewer.ConnectionID, domain.Event{Type: domain.EventQuestionStarted, Payload: *open})
	}
}

// QuestionStarted sends the sanitized question to the whole room.
func (b *Broadcaster) QuestionStarted(lobbyID string, question domain.PublicQuestion) {
	b.dispatcher.Publish(lobbyID, domain.Event{Type: domain.EventQuestionStarted, Payload: question})
}

// AnswerRevealed sends public stats to the room, the recap to the host and a standing to each connected viewer.
func (b *Broadcaster) AnswerRevealed(lobbyID, hostConnID string, viewers []domain.Viewer, reveal domain.Reveal) {
	b.dispatcher.Publish(lobbyID, domain.Event{
		Type: domain.EventAnswerReveal,
		Payload: domain.AnswerRevealPayload{
			QuestionID: reveal.QuestionID,
			Correct:    reveal.Correct,
			Stats:      reveal.Stats,
		},
	})
	b.dispatcher.Send(hostConnID, domain.Event{Type: domain.EventQuestionRecap, Payload: reveal})

	for _, viewer := range viewers {
		standing, ok := StandingFor(reveal.Scoreboard, viewer.ID)
		if !ok {
			continue
		}
		b.dispatcher.Send(viewer.ConnectionID, domain.Event{Type: domain.EventScoreUpdate, Payload: standing})
	}
}

// QuizEnded sends the final results to the room and dissolves it.
func (b *Broadcaster) QuizEnded(lobbyID string, results []domain.ScoreEntry) {
	b.dispatcher.Publish(lobbyID, domain.Event{
		Type:    domain.EventQuizEnded,
		Payload: domain.QuizEndedPayload{SessionID: lobbyID, Results: results},
	})
	b.dispatcher.CloseRoom(lobbyID)
}

// LobbyClosed tells the room a lobby went away without results and dissolves it.
func (b *Broadcaster) LobbyClosed(lobbyID, reason string) {
	b.dispatcher.Publish(lobbyID, domain.Event{
		Type:    domain.EventLobbyClosed,
		Payload: domain.LobbyClosedPayload{SessionID: lobbyID, Reason: reason},
	})
	b.dispatcher.CloseRoom(lobbyID)
}
