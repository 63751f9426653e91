package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"live-trivia-service/internal/domain"
)

// Registry is the process-wide table of live lobbies.
type Registry struct {
	store    LobbyStore
	quizzes  QuizRepository
	clock    clockwork.Clock
	defaults domain.LobbyConfig
	newID    func() string
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithClock swaps the clock used for answer windows (tests use a fake clock).
func WithClock(clock clockwork.Clock) RegistryOption {
	return func(r *Registry) { r.clock = clock }
}

// WithIDGenerator swaps the lobby id generator.
func WithIDGenerator(newID func() string) RegistryOption {
	return func(r *Registry) { r.newID = newID }
}

func NewRegistry(store LobbyStore, quizzes QuizRepository, defaults domain.LobbyConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		store:    store,
		quizzes:  quizzes,
		clock:    clockwork.NewRealClock(),
		defaults: defaults,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create loads and validates the quiz, checks ownership and stores a fresh lobby.
func (r *Registry) Create(ctx context.Context, hostID, hostConnID, quizID string, overrides domain.ConfigOverrides) (*Lobby, error) {
	quiz, err := r.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.OwnerID != hostID {
		return nil, domain.ErrQuizNotOwned
	}
	if err := quiz.Validate(); err != nil {
		return nil, err
	}

	lobby := NewLobby(r.newID(), hostID, hostConnID, quiz, overrides.Resolve(r.defaults), r.clock)
	r.store.Put(lobby)
	return lobby, nil
}

func (r *Registry) Get(id string) (*Lobby, bool) {
	return r.store.Get(id)
}

// Remove closes the lobby (cancelling its timer) and deletes it. No-op if absent.
func (r *Registry) Remove(id string) {
	lobby, ok := r.store.Get(id)
	if !ok {
		return
	}
	lobby.Close()
	r.store.Delete(id)
}

// RemoveAllByHost tears down every lobby run by hostID from connID and returns them.
// Lobbies the same host drives from another connection are kept.
func (r *Registry) RemoveAllByHost(hostID, connID string) []*Lobby {
	var removed []*Lobby
	for _, lobby := range r.store.List() {
		if lobby.HostID() != hostID || lobby.HostConnectionID() != connID {
			continue
		}
		r.Remove(lobby.ID())
		removed = append(removed, lobby)
	}
	return removed
}

// RemoveViewerEverywhere drops viewerID from the connected set of every lobby it joined over connID
// and returns the affected lobby ids.
func (r *Registry) RemoveViewerEverywhere(viewerID, connID string) []string {
	var affected []string
	for _, lobby := range r.store.List() {
		if lobby.RemoveViewer(viewerID, connID) {
			affected = append(affected, lobby.ID())
		}
	}
	return affected
}

// Len reports how many lobbies are live.
func (r *Registry) Len() int {
	return len(r.store.List())
}
