package memory

import (
	"context"
	"sync"

	"live-trivia-service/internal/domain"
)

// ResultStore keeps finished sessions in memory (useful for tests/demos).
type ResultStore struct {
	mu      sync.RWMutex
	results map[string]domain.SessionResult
}

func NewResultStore() *ResultStore {
	return &ResultStore{results: make(map[string]domain.SessionResult)}
}

func (s *ResultStore) SaveResults(_ context.Context, result domain.SessionResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	scores := make([]domain.ScoreEntry, len(result.Scores))
	copy(scores, result.Scores)
	result.Scores = scores
	s.results[result.SessionID] = result
	return nil
}

// Result returns the stored result for a session.
func (s *ResultStore) Result(sessionID string) (domain.SessionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result, ok := s.results[sessionID]
	return result, ok
}
