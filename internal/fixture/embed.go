package fixture

import (
	_ "embed"

	"quiz-game-service/internal/domain"
)

//go:embed sample.yaml
var sampleYAML []byte

// Sample returns the built-in demo quiz used when no fixture file is configured.
func Sample() []domain.Quiz {
	quizzes, err := Parse(sampleYAML)
	if err != nil {
		panic(err)
	}
	return quizzes
}
