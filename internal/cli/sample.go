package cli

import "live-trivia-service/internal/domain"

// sampleQuizzes is served when neither Postgres nor a quiz file is configured.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"sample": {
			ID:      "sample",
			OwnerID: "host-1",
			Title:   "Warm-up",
			Questions: []domain.Question{
				{
					ID:   "q1",
					Text: "What is 2 + 2?",
					Choices: []domain.Choice{
						{Index: 0, Text: "3"},
						{Index: 1, Text: "4"},
						{Index: 2, Text: "5"},
					},
					CorrectChoiceIndex: 1,
				},
				{
					ID:   "q2",
					Text: "Which planet is known as the Red Planet?",
					Choices: []domain.Choice{
						{Index: 0, Text: "Venus"},
						{Index: 1, Text: "Jupiter"},
						{Index: 2, Text: "Mars"},
						{Index: 3, Text: "Mercury"},
					},
					CorrectChoiceIndex: 2,
				},
			},
		},
	}
}
