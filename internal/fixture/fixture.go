package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"quiz-game-service/internal/domain"
)

// File is the on-disk layout of a quiz fixture.
type File struct {
	Quizzes []domain.Quiz `yaml:"quizzes"`
}

// Load reads quiz definitions from a YAML file.
func Load(path string) ([]domain.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	quizzes, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return quizzes, nil
}

// Parse decodes and validates quiz definitions.
func Parse(data []byte) ([]domain.Quiz, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	for _, q := range f.Quizzes {
		if err := Validate(q); err != nil {
			return nil, err
		}
	}
	return f.Quizzes, nil
}

// Validate checks the data-integrity expectations the engine relies on but does not enforce:
// unique ids, unique question order, a question list, and non-overlapping result ranges.
func Validate(q domain.Quiz) error {
	if q.ID == "" {
		return errors.New("quiz without id")
	}
	if len(q.Questions) == 0 {
		return fmt.Errorf("quiz %s: %w", q.ID, domain.ErrQuizHasNoQuestions)
	}

	ids := make(map[string]struct{})
	unique := func(kind, id string) error {
		if id == "" {
			return fmt.Errorf("quiz %s: %s without id", q.ID, kind)
		}
		if _, dup := ids[id]; dup {
			return fmt.Errorf("quiz %s: duplicate id %q", q.ID, id)
		}
		ids[id] = struct{}{}
		return nil
	}

	orders := make(map[int]string)
	for _, question := range q.Questions {
		if err := unique("question", question.ID); err != nil {
			return err
		}
		if other, dup := orders[question.Order]; dup {
			return fmt.Errorf("quiz %s: questions %s and %s share order %d", q.ID, other, question.ID, question.Order)
		}
		orders[question.Order] = question.ID
		for _, a := range question.Answers {
			if err := unique("answer", a.ID); err != nil {
				return err
			}
		}
	}

	for i, t := range q.ResultTiers {
		if err := unique("result", t.ID); err != nil {
			return err
		}
		if t.Min > t.Max {
			return fmt.Errorf("quiz %s: result %s has min %d above max %d", q.ID, t.ID, t.Min, t.Max)
		}
		for _, prev := range q.ResultTiers[:i] {
			if t.Min <= prev.Max && prev.Min <= t.Max {
				return fmt.Errorf("quiz %s: results %s and %s overlap", q.ID, prev.ID, t.ID)
			}
		}
	}
	return nil
}
