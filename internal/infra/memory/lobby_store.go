package memory

import (
	"sync"

	"live-trivia-service/internal/app"
)

// LobbyStore is an in-memory implementation of app.LobbyStore.
type LobbyStore struct {
	mu      sync.RWMutex
	lobbies map[string]*app.Lobby
}

func NewLobbyStore() *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*app.Lobby),
	}
}

func (s *LobbyStore) Put(lobby *app.Lobby) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lobbies[lobby.ID()] = lobby
}

func (s *LobbyStore) Get(id string) (*app.Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[id]
	return lobby, ok
}

func (s *LobbyStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.lobbies, id)
}

// List returns a snapshot of every live lobby.
func (s *LobbyStore) List() []*app.Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobbies := make([]*app.Lobby, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		lobbies = append(lobbies, lobby)
	}
	return lobbies
}
