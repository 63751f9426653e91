package app

import "live-trivia-service/internal/domain"

const podiumSize = 3

// StandingFor builds the personalized result for viewerID from an ordered scoreboard.
// Viewers on the podium see the top three; everyone else sees the two entries
// ranked directly above them followed by their own entry.
func StandingFor(board []domain.ScoreEntry, viewerID string) (domain.Standing, bool) {
	pos := -1
	for i, entry := range board {
		if entry.ViewerID == viewerID {
			pos = i
			break
		}
	}
	if pos < 0 {
		return domain.Standing{}, false
	}

	rank := pos + 1
	var top []domain.ScoreEntry
	if rank <= podiumSize {
		n := podiumSize
		if len(board) < n {
			n = len(board)
		}
		top = append(top, board[:n]...)
	} else {
		// entries ranked rank-1 and rank-2 sit at indexes rank-2 and rank-3
		top = []domain.ScoreEntry{board[rank-2], board[rank-3], board[pos]}
	}

	return domain.Standing{
		Score: board[pos].Score,
		Rank:  rank,
		Top:   top,
	}, true
}
