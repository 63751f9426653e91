package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"live-trivia-service/internal/app"
)

const activeLobbiesKey = "lobbies:active"

// LobbyStore is a Redis-aware implementation of app.LobbyStore.
// Lobbies (with their timers and locks) live in a local map; Redis only carries
// a liveness marker per lobby plus the set of active lobby ids so that other
// instances and operators can see what is running.
type LobbyStore struct {
	client  *redis.Client
	ttl     time.Duration
	mu      sync.RWMutex
	lobbies map[string]*app.Lobby
}

func NewLobbyStore(client *redis.Client, ttl time.Duration) *LobbyStore {
	return &LobbyStore{
		client:  client,
		ttl:     ttl,
		lobbies: make(map[string]*app.Lobby),
	}
}

func (s *LobbyStore) Put(lobby *app.Lobby) {
	s.mu.Lock()
	s.lobbies[lobby.ID()] = lobby
	s.mu.Unlock()

	// best-effort liveness marker
	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(lobby.ID()), lobby.HostID(), s.ttl)
	pipe.SAdd(ctx, activeLobbiesKey, lobby.ID())
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("lobby_id", lobby.ID()).Msg("failed to mark lobby in redis")
	}
}

func (s *LobbyStore) Get(id string) (*app.Lobby, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobby, ok := s.lobbies[id]
	return lobby, ok
}

func (s *LobbyStore) Delete(id string) {
	s.mu.Lock()
	delete(s.lobbies, id)
	s.mu.Unlock()

	ctx := context.Background()
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(id))
	pipe.SRem(ctx, activeLobbiesKey, id)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("lobby_id", id).Msg("failed to clear lobby marker")
	}
}

func (s *LobbyStore) List() []*app.Lobby {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lobbies := make([]*app.Lobby, 0, len(s.lobbies))
	for _, lobby := range s.lobbies {
		lobbies = append(lobbies, lobby)
	}
	return lobbies
}

// Active returns every lobby id currently marked in Redis, across instances.
func (s *LobbyStore) Active(ctx context.Context) ([]string, error) {
	return s.client.SMembers(ctx, activeLobbiesKey).Result()
}

func (s *LobbyStore) key(id string) string {
	return "lobby:" + id
}
