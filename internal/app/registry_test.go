package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
	"live-trivia-service/internal/infra/memory"
)

func TestRegistryRemovesByHost(t *testing.T) {
	registry := newTestRegistry(map[string]domain.Quiz{
		"quiz-1": serviceQuiz(),
		"quiz-2": foreignQuiz(),
	})
	ctx := context.Background()

	mine, err := registry.Create(ctx, "host-1", "c1", "quiz-1", domain.ConfigOverrides{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	theirs, err := registry.Create(ctx, "host-2", "c2", "quiz-2", domain.ConfigOverrides{})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed := registry.RemoveAllByHost("host-1", "c1")
	if len(removed) != 1 || removed[0].ID() != mine.ID() {
		t.Fatalf("expected only host-1 lobby removed, got %d", len(removed))
	}
	if mine.Phase() != app.PhaseEnded {
		t.Fatalf("expected removed lobby closed, got %s", mine.Phase())
	}
	if _, ok := registry.Get(theirs.ID()); !ok {
		t.Fatalf("expected host-2 lobby kept")
	}
	if registry.Len() != 1 {
		t.Fatalf("expected one lobby left, got %d", registry.Len())
	}

	registry.Remove("unknown")
}

func TestRegistryRemovesViewerEverywhere(t *testing.T) {
	registry := newTestRegistry(map[string]domain.Quiz{"quiz-1": serviceQuiz()})
	ctx := context.Background()

	a, _ := registry.Create(ctx, "host-1", "c1", "quiz-1", domain.ConfigOverrides{})
	b, _ := registry.Create(ctx, "host-1", "c2", "quiz-1", domain.ConfigOverrides{})
	if a == nil || b == nil {
		t.Fatalf("expected lobbies created")
	}
	for _, lobby := range []*app.Lobby{a, b} {
		if _, err := lobby.Join(domain.Viewer{ID: "v1", ConnectionID: "v1-conn"}); err != nil {
			t.Fatalf("join: %v", err)
		}
	}

	affected := registry.RemoveViewerEverywhere("v1", "v1-conn")
	if len(affected) != 2 {
		t.Fatalf("expected viewer dropped from both lobbies, got %v", affected)
	}
	if !a.IsParticipant("v1") || len(a.ConnectedViewers()) != 0 {
		t.Fatalf("expected v1 kept as participant but not connected")
	}
}

func TestRegistryRejectsInvalidQuiz(t *testing.T) {
	broken := serviceQuiz()
	broken.Questions[0].CorrectChoiceIndex = 7
	registry := newTestRegistry(map[string]domain.Quiz{"quiz-1": broken})

	_, err := registry.Create(context.Background(), "host-1", "c1", "quiz-1", domain.ConfigOverrides{})
	if !errors.Is(err, domain.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
}

func newTestRegistry(quizzes map[string]domain.Quiz) *app.Registry {
	repo := memory.NewQuizRepository(memory.NewStaticQuizLoader(quizzes), time.Minute)
	return app.NewRegistry(memory.NewLobbyStore(), repo, domain.LobbyConfig{MaxPlayers: 10, QuestionDurationSeconds: 20},
		app.WithClock(clockwork.NewFakeClock()))
}

func foreignQuiz() domain.Quiz {
	quiz := serviceQuiz()
	quiz.ID = "quiz-2"
	quiz.OwnerID = "host-2"
	return quiz
}
