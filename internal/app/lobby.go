package app

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"live-trivia-service/internal/domain"
)

// Phase is the lobby state machine position.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseQuestionOpen
	PhaseRevealed
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseQuestionOpen:
		return "question_open"
	case PhaseRevealed:
		return "revealed"
	case PhaseEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// ledger holds the answers recorded for one question.
type ledger struct {
	choices  map[string]int
	revealed bool
}

// Lobby is one running quiz: roster, answer ledgers, scores and the auto-reveal timer.
type Lobby struct {
	id        string
	hostID    string
	quiz      domain.Quiz
	config    domain.LobbyConfig
	clock     clockwork.Clock
	createdAt time.Time

	// turn serializes whole handlers (mutation plus fan-out) against one lobby.
	turn sync.Mutex

	mu           sync.RWMutex
	hostConnID   string
	viewers      map[string]domain.Viewer
	participants map[string]domain.Viewer
	joinSeq      map[string]int
	scores       map[string]int
	current      int
	answers      map[string]*ledger
	phase        Phase
	round        uint64
	deadline     time.Time
	timer        clockwork.Timer
}

// NewLobby is exported for infrastructure layers and tests that need to seed lobbies.
func NewLobby(id, hostID, hostConnID string, quiz domain.Quiz, cfg domain.LobbyConfig, clock clockwork.Clock) *Lobby {
	return &Lobby{
		id:           id,
		hostID:       hostID,
		quiz:         quiz,
		config:       cfg,
		clock:        clock,
		createdAt:    clock.Now(),
		hostConnID:   hostConnID,
		viewers:      make(map[string]domain.Viewer),
		participants: make(map[string]domain.Viewer),
		joinSeq:      make(map[string]int),
		scores:       make(map[string]int),
		current:      -1,
		answers:      make(map[string]*ledger),
		phase:        PhaseIdle,
	}
}

func (l *Lobby) ID() string { return l.id }

func (l *Lobby) HostID() string { return l.hostID }

func (l *Lobby) QuizID() string { return l.quiz.ID }

func (l *Lobby) Config() domain.LobbyConfig { return l.config }

// HostConnectionID returns the connection currently controlling the lobby.
func (l *Lobby) HostConnectionID() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hostConnID
}

// Phase reports the current state machine position.
func (l *Lobby) Phase() Phase {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.phase
}

// CurrentQuestionIndex is -1 before the first question.
func (l *Lobby) CurrentQuestionIndex() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.current
}

// Join adds a viewer to the connected set and the participant roster.
// When a question is open it also returns that question with the remaining time.
func (l *Lobby) Join(viewer domain.Viewer) (*domain.PublicQuestion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase == PhaseEnded {
		return nil, domain.ErrLobbyNotFound
	}
	if _, connected := l.viewers[viewer.ID]; !connected && len(l.viewers) >= l.config.MaxPlayers {
		return nil, domain.ErrLobbyFull
	}

	l.viewers[viewer.ID] = viewer
	if _, seen := l.participants[viewer.ID]; !seen {
		l.joinSeq[viewer.ID] = len(l.joinSeq)
	}
	l.participants[viewer.ID] = viewer
	if _, ok := l.scores[viewer.ID]; !ok {
		l.scores[viewer.ID] = 0
	}

	if l.phase != PhaseQuestionOpen {
		return nil, nil
	}
	q := l.publicQuestionLocked()
	return &q, nil
}

// RemoveViewer drops a viewer from the connected set when connID is the connection they joined on.
// A stale connection of a viewer who already rejoined elsewhere is ignored. The participant roster is never pruned.
func (l *Lobby) RemoveViewer(viewerID, connID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	viewer, ok := l.viewers[viewerID]
	if !ok || viewer.ConnectionID != connID {
		return false
	}
	delete(l.viewers, viewerID)
	return true
}

// StartQuestion opens the next question and schedules its auto-reveal.
// onExpire receives the round token of the question it was scheduled for.
func (l *Lobby) StartQuestion(onExpire func(round uint64)) (domain.PublicQuestion, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase == PhaseEnded {
		return domain.PublicQuestion{}, domain.ErrLobbyNotFound
	}
	next := l.current + 1
	if next >= len(l.quiz.Questions) {
		return domain.PublicQuestion{}, domain.ErrNoMoreQuestions
	}

	// An open question is superseded without being revealed.
	l.cancelTimerLocked()

	l.current = next
	question := l.quiz.Questions[next]
	l.answers[question.ID] = &ledger{choices: make(map[string]int)}
	l.phase = PhaseQuestionOpen
	l.round++

	round := l.round
	duration := l.config.QuestionDuration()
	l.deadline = l.clock.Now().Add(duration)
	l.timer = l.clock.AfterFunc(duration, func() { onExpire(round) })

	return l.publicQuestionLocked(), nil
}

// SubmitAnswer records a viewer's choice for the open question; the last submission wins.
func (l *Lobby) SubmitAnswer(viewerID string, choiceIndex int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.phase {
	case PhaseEnded:
		return domain.ErrLobbyNotFound
	case PhaseQuestionOpen:
	default:
		return domain.ErrQuestionNotStarted
	}
	if _, ok := l.viewers[viewerID]; !ok {
		return domain.ErrNotJoined
	}

	question := l.quiz.Questions[l.current]
	if choiceIndex < 0 || choiceIndex >= len(question.Choices) {
		return domain.ErrChoiceNotFound
	}
	l.answers[question.ID].choices[viewerID] = choiceIndex
	return nil
}

// Reveal closes the open question manually.
func (l *Lobby) Reveal() (domain.Reveal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch l.phase {
	case PhaseEnded:
		return domain.Reveal{}, domain.ErrLobbyNotFound
	case PhaseIdle:
		return domain.Reveal{}, domain.ErrQuestionNotStarted
	case PhaseRevealed:
		return domain.Reveal{}, domain.ErrAnswerAlreadyRevealed
	}
	return l.revealLocked(), nil
}

// RevealRound closes the open question only if it is still the one scheduled for round.
func (l *Lobby) RevealRound(round uint64) (domain.Reveal, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != PhaseQuestionOpen || l.round != round {
		return domain.Reveal{}, false
	}
	return l.revealLocked(), true
}

func (l *Lobby) revealLocked() domain.Reveal {
	l.cancelTimerLocked()

	question := l.quiz.Questions[l.current]
	answers := l.answers[question.ID]

	stats := make([]domain.ChoiceCount, len(question.Choices))
	for i := range question.Choices {
		stats[i].ChoiceIndex = i
	}
	for viewerID, choice := range answers.choices {
		stats[choice].Count++
		if choice == question.CorrectChoiceIndex {
			l.scores[viewerID]++
		}
	}
	answers.revealed = true
	l.phase = PhaseRevealed

	return domain.Reveal{
		QuestionID: question.ID,
		Correct:    question.CorrectChoiceIndex,
		Stats:      stats,
		Scoreboard: l.scoreboardLocked(),
	}
}

// FinalScores recomputes every participant's score from the revealed answer ledgers.
func (l *Lobby) FinalScores() []domain.ScoreEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	entries := make([]domain.ScoreEntry, 0, len(l.participants))
	for viewerID, viewer := range l.participants {
		score := 0
		for _, question := range l.quiz.Questions {
			answers, ok := l.answers[question.ID]
			if !ok || !answers.revealed {
				continue
			}
			if choice, answered := answers.choices[viewerID]; answered && choice == question.CorrectChoiceIndex {
				score++
			}
		}
		entries = append(entries, domain.ScoreEntry{ViewerID: viewerID, DisplayName: viewer.DisplayName, Score: score})
	}
	l.sortEntriesLocked(entries)
	return entries
}

// Scoreboard returns the running scores ordered for ranking.
func (l *Lobby) Scoreboard() []domain.ScoreEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.scoreboardLocked()
}

// ConnectedViewers lists currently connected viewers in join order.
func (l *Lobby) ConnectedViewers() []domain.Viewer {
	l.mu.RLock()
	defer l.mu.RUnlock()

	viewers := make([]domain.Viewer, 0, len(l.viewers))
	for _, v := range l.viewers {
		viewers = append(viewers, v)
	}
	sort.Slice(viewers, func(i, j int) bool {
		return l.joinSeq[viewers[i].ID] < l.joinSeq[viewers[j].ID]
	})
	return viewers
}

// IsParticipant reports whether viewerID ever joined the lobby.
func (l *Lobby) IsParticipant(viewerID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.participants[viewerID]
	return ok
}

// Close cancels the timer and moves the lobby to its terminal state. It reports whether this call closed it.
func (l *Lobby) Close() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.phase == PhaseEnded {
		return false
	}
	l.cancelTimerLocked()
	l.phase = PhaseEnded
	l.round++
	return true
}

// Snapshot returns a read-only view of the lobby.
func (l *Lobby) Snapshot() domain.LobbySnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return domain.LobbySnapshot{
		SessionID:            l.id,
		QuizID:               l.quiz.ID,
		HostID:               l.hostID,
		Phase:                l.phase.String(),
		CurrentQuestionIndex: l.current,
		TotalQuestions:       len(l.quiz.Questions),
		Viewers:              len(l.viewers),
		Participants:         len(l.participants),
		Config:               l.config,
		CreatedAt:            l.createdAt,
	}
}

func (l *Lobby) cancelTimerLocked() {
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}

func (l *Lobby) publicQuestionLocked() domain.PublicQuestion {
	question := l.quiz.Questions[l.current]
	choices := make([]domain.Choice, len(question.Choices))
	copy(choices, question.Choices)
	return domain.PublicQuestion{
		ID:        question.ID,
		Text:      question.Text,
		Choices:   choices,
		Index:     l.current,
		Total:     len(l.quiz.Questions),
		Remaining: l.remainingLocked(),
		AudioKey:  question.AudioKey,
		ImageKey:  question.ImageKey,
	}
}

// remainingLocked returns whole seconds left in the answer window, within [1, questionDurationSeconds].
func (l *Lobby) remainingLocked() int {
	left := l.deadline.Sub(l.clock.Now())
	secs := int((left + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if secs > l.config.QuestionDurationSeconds {
		secs = l.config.QuestionDurationSeconds
	}
	return secs
}

func (l *Lobby) scoreboardLocked() []domain.ScoreEntry {
	entries := make([]domain.ScoreEntry, 0, len(l.scores))
	for viewerID, score := range l.scores {
		entries = append(entries, domain.ScoreEntry{
			ViewerID:    viewerID,
			DisplayName: l.participants[viewerID].DisplayName,
			Score:       score,
		})
	}
	l.sortEntriesLocked(entries)
	return entries
}

// sortEntriesLocked orders by score desc, then join order, then viewer id.
func (l *Lobby) sortEntriesLocked(entries []domain.ScoreEntry) {
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		si, sj := l.joinSeq[entries[i].ViewerID], l.joinSeq[entries[j].ViewerID]
		if si != sj {
			return si < sj
		}
		return entries[i].ViewerID < entries[j].ViewerID
	})
}
