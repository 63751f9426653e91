package domain

import "fmt"

// Validate checks that a quiz snapshot can be run in a lobby.
func (q Quiz) Validate() error {
	if len(q.Questions) == 0 {
		return fmt.Errorf("%w: quiz %q has no questions", ErrInvalidQuiz, q.ID)
	}
	seen := make(map[string]struct{}, len(q.Questions))
	for i, question := range q.Questions {
		if question.ID == "" {
			return fmt.Errorf("%w: question %d has no id", ErrInvalidQuiz, i)
		}
		if _, dup := seen[question.ID]; dup {
			return fmt.Errorf("%w: duplicate question id %q", ErrInvalidQuiz, question.ID)
		}
		seen[question.ID] = struct{}{}

		if len(question.Choices) < 2 {
			return fmt.Errorf("%w: question %q needs at least two choices", ErrInvalidQuiz, question.ID)
		}
		for j, choice := range question.Choices {
			if choice.Index != j {
				return fmt.Errorf("%w: question %q choice %d has index %d", ErrInvalidQuiz, question.ID, j, choice.Index)
			}
		}
		if question.CorrectChoiceIndex < 0 || question.CorrectChoiceIndex >= len(question.Choices) {
			return fmt.Errorf("%w: question %q correct choice %d out of range", ErrInvalidQuiz, question.ID, question.CorrectChoiceIndex)
		}
	}
	return nil
}
