package quiz

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed fixtures/quizzes.json
var quizFixtures []byte

// LoadFixtures parses the embedded quiz set.
func LoadFixtures() ([]*Quiz, error) {
	var quizzes []*Quiz
	if err := json.Unmarshal(quizFixtures, &quizzes); err != nil {
		return nil, fmt.Errorf("parse quiz fixtures: %w", err)
	}
	for _, q := range quizzes {
		if q.Slug == "" {
			return nil, fmt.Errorf("quiz %s has no slug", q.ID)
		}
		if q.PassingScore == 0 {
			q.PassingScore = 80
		}
	}
	return quizzes, nil
}
