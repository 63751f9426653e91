package app

import (
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"live-trivia-service/internal/domain"
)

func TestStartQuestionAdvancesUntilNoMoreQuestions(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())

	if idx := lobby.CurrentQuestionIndex(); idx != -1 {
		t.Fatalf("expected index -1 before first question, got %d", idx)
	}
	for want := 0; want < 2; want++ {
		q, err := lobby.StartQuestion(noExpire)
		if err != nil {
			t.Fatalf("start question %d: %v", want, err)
		}
		if q.Index != want || lobby.CurrentQuestionIndex() != want {
			t.Fatalf("expected index %d, got question %d lobby %d", want, q.Index, lobby.CurrentQuestionIndex())
		}
		if _, err := lobby.Reveal(); err != nil {
			t.Fatalf("reveal %d: %v", want, err)
		}
	}

	if _, err := lobby.StartQuestion(noExpire); !errors.Is(err, domain.ErrNoMoreQuestions) {
		t.Fatalf("expected ErrNoMoreQuestions, got %v", err)
	}
	if idx := lobby.CurrentQuestionIndex(); idx != 1 {
		t.Fatalf("expected index to stay at last question, got %d", idx)
	}
}

func TestSubmitAnswerRequiresOpenQuestion(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")

	if err := lobby.SubmitAnswer("v1", 0); !errors.Is(err, domain.ErrQuestionNotStarted) {
		t.Fatalf("expected ErrQuestionNotStarted before start, got %v", err)
	}
	if _, err := lobby.Reveal(); !errors.Is(err, domain.ErrQuestionNotStarted) {
		t.Fatalf("expected ErrQuestionNotStarted on reveal before start, got %v", err)
	}

	mustStart(t, lobby)
	mustReveal(t, lobby)
	if err := lobby.SubmitAnswer("v1", 0); !errors.Is(err, domain.ErrQuestionNotStarted) {
		t.Fatalf("expected ErrQuestionNotStarted after reveal, got %v", err)
	}
}

func TestSubmitAnswerValidatesViewerAndChoice(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	mustStart(t, lobby)

	if err := lobby.SubmitAnswer("stranger", 0); !errors.Is(err, domain.ErrNotJoined) {
		t.Fatalf("expected ErrNotJoined, got %v", err)
	}
	if err := lobby.SubmitAnswer("v1", 2); !errors.Is(err, domain.ErrChoiceNotFound) {
		t.Fatalf("expected ErrChoiceNotFound, got %v", err)
	}
	if err := lobby.SubmitAnswer("v1", -1); !errors.Is(err, domain.ErrChoiceNotFound) {
		t.Fatalf("expected ErrChoiceNotFound for negative index, got %v", err)
	}
}

func TestRevealScoresOnlyCorrectAnswers(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1", "v2", "v3", "v4")
	mustStart(t, lobby)

	before := scoresByViewer(lobby.Scoreboard())
	submit(t, lobby, "v1", 0)
	submit(t, lobby, "v2", 1)
	submit(t, lobby, "v3", 0)
	// v4 does not answer

	reveal := mustReveal(t, lobby)
	if reveal.Correct != 0 {
		t.Fatalf("expected correct 0, got %d", reveal.Correct)
	}
	wantStats := []domain.ChoiceCount{{ChoiceIndex: 0, Count: 2}, {ChoiceIndex: 1, Count: 1}}
	if len(reveal.Stats) != len(wantStats) {
		t.Fatalf("expected stats %v, got %v", wantStats, reveal.Stats)
	}
	for i := range wantStats {
		if reveal.Stats[i] != wantStats[i] {
			t.Fatalf("expected stats %v, got %v", wantStats, reveal.Stats)
		}
	}

	after := scoresByViewer(reveal.Scoreboard)
	delta := 0
	for viewerID, score := range after {
		d := score - before[viewerID]
		if d != 0 && d != 1 {
			t.Fatalf("viewer %s score changed by %d", viewerID, d)
		}
		delta += d
	}
	if delta != 2 {
		t.Fatalf("expected total delta 2 (correct answers), got %d", delta)
	}
}

func TestLastSubmissionWins(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	mustStart(t, lobby)

	submit(t, lobby, "v1", 1)
	submit(t, lobby, "v1", 0)

	reveal := mustReveal(t, lobby)
	if reveal.Stats[0].Count != 1 || reveal.Stats[1].Count != 0 {
		t.Fatalf("expected only the last choice counted, got %v", reveal.Stats)
	}
	if got := scoresByViewer(reveal.Scoreboard)["v1"]; got != 1 {
		t.Fatalf("expected score 1, got %d", got)
	}
}

func TestRevealIsNotRepeatable(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")

	mustStart(t, lobby)
	submit(t, lobby, "v1", 0)
	mustReveal(t, lobby)

	if _, err := lobby.Reveal(); !errors.Is(err, domain.ErrAnswerAlreadyRevealed) {
		t.Fatalf("expected ErrAnswerAlreadyRevealed, got %v", err)
	}
	// a stale timer for the same question must be a no-op
	if _, ok := lobby.RevealRound(lobby.round); ok {
		t.Fatalf("expected timer reveal after manual reveal to be ignored")
	}
	if got := scoresByViewer(lobby.Scoreboard())["v1"]; got != 1 {
		t.Fatalf("expected single scoring, got %d", got)
	}
}

func TestTimerRevealsOpenQuestion(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lobby := newTestLobby(clock)
	join(t, lobby, "v1")

	fired := make(chan uint64, 1)
	if _, err := lobby.StartQuestion(func(r uint64) { fired <- r }); err != nil {
		t.Fatalf("start: %v", err)
	}
	submit(t, lobby, "v1", 0)
	clock.Advance(20 * time.Second)

	var round uint64
	select {
	case round = <-fired:
	case <-time.After(2 * time.Second):
		t.Fatalf("expected auto-reveal callback")
	}

	reveal, ok := lobby.RevealRound(round)
	if !ok {
		t.Fatalf("expected timer round to reveal the open question")
	}
	if reveal.QuestionID != "q1" || lobby.Phase() != PhaseRevealed {
		t.Fatalf("expected q1 revealed, got %s in phase %s", reveal.QuestionID, lobby.Phase())
	}
	if _, ok := lobby.RevealRound(round); ok {
		t.Fatalf("expected second timer reveal to be ignored")
	}
}

func TestManualRevealCancelsTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lobby := newTestLobby(clock)

	fired := make(chan uint64, 1)
	if _, err := lobby.StartQuestion(func(r uint64) { fired <- r }); err != nil {
		t.Fatalf("start: %v", err)
	}
	mustReveal(t, lobby)
	clock.Advance(time.Minute)

	select {
	case <-fired:
		t.Fatalf("expected cancelled timer not to fire")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestLateJoinerGetsRemainingTime(t *testing.T) {
	clock := clockwork.NewFakeClock()
	lobby := newTestLobby(clock)
	join(t, lobby, "v1")
	started := mustStart(t, lobby)
	if started.Remaining != 20 {
		t.Fatalf("expected full window at start, got %d", started.Remaining)
	}

	clock.Advance(5 * time.Second)
	open, err := lobby.Join(domain.Viewer{ID: "late", DisplayName: "Late", ConnectionID: "conn-late"})
	if err != nil {
		t.Fatalf("late join: %v", err)
	}
	if open == nil {
		t.Fatalf("expected in-progress question for late joiner")
	}
	if open.ID != started.ID || open.Remaining != 15 {
		t.Fatalf("expected %s with 15s left, got %s with %d", started.ID, open.ID, open.Remaining)
	}

	clock.Advance(14*time.Second + 500*time.Millisecond)
	open, err = lobby.Join(domain.Viewer{ID: "later", ConnectionID: "conn-later"})
	if err != nil {
		t.Fatalf("later join: %v", err)
	}
	if open.Remaining <= 0 || open.Remaining > 20 {
		t.Fatalf("expected remaining in (0, 20], got %d", open.Remaining)
	}

	mustReveal(t, lobby)
	open, err = lobby.Join(domain.Viewer{ID: "after", ConnectionID: "conn-after"})
	if err != nil || open != nil {
		t.Fatalf("expected no open question after reveal, got %+v (%v)", open, err)
	}
}

func TestDisconnectedViewerRemainsParticipant(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1", "v2")
	mustStart(t, lobby)
	submit(t, lobby, "v1", 0)
	submit(t, lobby, "v2", 0)
	mustReveal(t, lobby)

	if !lobby.RemoveViewer("v1", "conn-v1") {
		t.Fatalf("expected v1 removed from connected viewers")
	}
	if lobby.RemoveViewer("v1", "conn-v1") {
		t.Fatalf("expected second removal to be a no-op")
	}
	if !lobby.IsParticipant("v1") {
		t.Fatalf("expected v1 to remain a participant")
	}
	for _, v := range lobby.ConnectedViewers() {
		if v.ID == "v1" {
			t.Fatalf("expected v1 absent from connected viewers")
		}
	}

	final := scoresByViewer(lobby.FinalScores())
	if final["v1"] != 1 || final["v2"] != 1 {
		t.Fatalf("expected both participants scored, got %v", final)
	}
}

func TestRemoveViewerIgnoresStaleConnection(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	if _, err := lobby.Join(domain.Viewer{ID: "v1", ConnectionID: "conn-v1b"}); err != nil {
		t.Fatalf("rejoin: %v", err)
	}

	if lobby.RemoveViewer("v1", "conn-v1") {
		t.Fatalf("expected stale connection ignored")
	}
	mustStart(t, lobby)
	submit(t, lobby, "v1", 0)

	if !lobby.RemoveViewer("v1", "conn-v1b") {
		t.Fatalf("expected live connection removed")
	}
}

func TestStartWhileOpenSupersedesQuestion(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	mustStart(t, lobby)
	submit(t, lobby, "v1", 0) // correct for q1, never revealed

	q2 := mustStart(t, lobby)
	if q2.ID != "q2" {
		t.Fatalf("expected q2, got %s", q2.ID)
	}
	submit(t, lobby, "v1", 1)
	reveal := mustReveal(t, lobby)

	running := scoresByViewer(reveal.Scoreboard)["v1"]
	final := scoresByViewer(lobby.FinalScores())["v1"]
	if running != 1 || final != 1 {
		t.Fatalf("expected only q2 scored (running=%d final=%d)", running, final)
	}
}

func TestJoinRespectsMaxPlayers(t *testing.T) {
	lobby := NewLobby("lobby-1", "host-1", "host-conn", testQuiz(), domain.LobbyConfig{MaxPlayers: 1, QuestionDurationSeconds: 20}, clockwork.NewFakeClock())
	join(t, lobby, "v1")

	if _, err := lobby.Join(domain.Viewer{ID: "v2", ConnectionID: "conn-v2"}); !errors.Is(err, domain.ErrLobbyFull) {
		t.Fatalf("expected ErrLobbyFull, got %v", err)
	}
	// reconnecting viewers are not counted twice
	if _, err := lobby.Join(domain.Viewer{ID: "v1", ConnectionID: "conn-v1b"}); err != nil {
		t.Fatalf("expected reconnect to succeed, got %v", err)
	}
}

func TestRejoinKeepsScore(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	mustStart(t, lobby)
	submit(t, lobby, "v1", 0)
	mustReveal(t, lobby)

	lobby.RemoveViewer("v1", "conn-v1")
	join(t, lobby, "v1")
	if got := scoresByViewer(lobby.Scoreboard())["v1"]; got != 1 {
		t.Fatalf("expected score kept across reconnect, got %d", got)
	}
}

func TestScoreboardTieBreakUsesJoinOrder(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "zed", "amy", "bob")
	mustStart(t, lobby)
	submit(t, lobby, "bob", 0)

	board := mustReveal(t, lobby).Scoreboard
	order := []string{board[0].ViewerID, board[1].ViewerID, board[2].ViewerID}
	want := []string{"bob", "zed", "amy"}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}
}

func TestClosedLobbyRejectsOperations(t *testing.T) {
	lobby := newTestLobby(clockwork.NewFakeClock())
	join(t, lobby, "v1")
	mustStart(t, lobby)

	if !lobby.Close() {
		t.Fatalf("expected first close to succeed")
	}
	if lobby.Close() {
		t.Fatalf("expected second close to be a no-op")
	}
	if err := lobby.SubmitAnswer("v1", 0); !errors.Is(err, domain.ErrLobbyNotFound) {
		t.Fatalf("expected ErrLobbyNotFound on submit, got %v", err)
	}
	if _, err := lobby.StartQuestion(noExpire); !errors.Is(err, domain.ErrLobbyNotFound) {
		t.Fatalf("expected ErrLobbyNotFound on start, got %v", err)
	}
	if _, err := lobby.Join(domain.Viewer{ID: "v2"}); !errors.Is(err, domain.ErrLobbyNotFound) {
		t.Fatalf("expected ErrLobbyNotFound on join, got %v", err)
	}
}

func noExpire(uint64) {}

func newTestLobby(clock clockwork.Clock) *Lobby {
	return NewLobby("lobby-1", "host-1", "host-conn", testQuiz(), domain.LobbyConfig{MaxPlayers: 10, QuestionDurationSeconds: 20}, clock)
}

func testQuiz() domain.Quiz {
	return domain.Quiz{
		ID:      "quiz-1",
		OwnerID: "host-1",
		Questions: []domain.Question{
			{
				ID:                 "q1",
				Text:               "Pick A",
				Choices:            []domain.Choice{{Index: 0, Text: "A"}, {Index: 1, Text: "B"}},
				CorrectChoiceIndex: 0,
			},
			{
				ID:                 "q2",
				Text:               "Pick B",
				Choices:            []domain.Choice{{Index: 0, Text: "A"}, {Index: 1, Text: "B"}},
				CorrectChoiceIndex: 1,
			},
		},
	}
}

func join(t *testing.T, lobby *Lobby, viewerIDs ...string) {
	t.Helper()
	for _, id := range viewerIDs {
		if _, err := lobby.Join(domain.Viewer{ID: id, DisplayName: id, ConnectionID: "conn-" + id}); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
}

func mustStart(t *testing.T, lobby *Lobby) domain.PublicQuestion {
	t.Helper()
	q, err := lobby.StartQuestion(noExpire)
	if err != nil {
		t.Fatalf("start question: %v", err)
	}
	return q
}

func mustReveal(t *testing.T, lobby *Lobby) domain.Reveal {
	t.Helper()
	reveal, err := lobby.Reveal()
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	return reveal
}

func submit(t *testing.T, lobby *Lobby, viewerID string, choice int) {
	t.Helper()
	if err := lobby.SubmitAnswer(viewerID, choice); err != nil {
		t.Fatalf("submit %s: %v", viewerID, err)
	}
}

func scoresByViewer(entries []domain.ScoreEntry) map[string]int {
	scores := make(map[string]int, len(entries))
	for _, entry := range entries {
		scores[entry.ViewerID] = entry.Score
	}
	return scores
}
