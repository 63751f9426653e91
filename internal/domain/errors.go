package domain

import "errors"

var (
	// ErrAuthenticationFailed rejects a connection at handshake time.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrLobbyNotFound is returned when a lobby id is unknown or the lobby already ended.
	ErrLobbyNotFound = errors.New("lobby not found")
	// ErrQuestionNotStarted is returned when answers or reveals arrive while no question is open.
	ErrQuestionNotStarted = errors.New("question not started")
	// ErrQuizNotOwned is returned when a host tries to run someone else's quiz.
	ErrQuizNotOwned = errors.New("quiz not owned by host")
	// ErrNoMoreQuestions is returned when starting past the last question.
	ErrNoMoreQuestions = errors.New("no more questions")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrInvalidQuiz indicates the quiz snapshot cannot be run.
	ErrInvalidQuiz = errors.New("invalid quiz")
	// ErrChoiceNotFound indicates a submitted choice index is out of range.
	ErrChoiceNotFound = errors.New("choice not found")
	// ErrNotJoined is returned when a viewer acts on a lobby before joining it.
	ErrNotJoined = errors.New("viewer has not joined the lobby")
	// ErrLobbyFull is returned when a lobby already holds maxPlayers connected viewers.
	ErrLobbyFull = errors.New("lobby is full")
	// ErrAnswerAlreadyRevealed rejects a second reveal of the same question.
	ErrAnswerAlreadyRevealed = errors.New("answer already revealed")
	// ErrNotLobbyHost is returned when a host command targets a lobby run by another host.
	ErrNotLobbyHost = errors.New("not the host of this lobby")
	// ErrForbidden is returned when a message is not allowed for the connection's role.
	ErrForbidden = errors.New("operation not permitted for role")
	// ErrUnsupportedMessage is returned for unknown message types.
	ErrUnsupportedMessage = errors.New("unsupported message type")
)
