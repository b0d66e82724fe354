package app

import (
	"context"
	"fmt"

	"quiz-game-service/internal/domain"
)

// resolveResult returns the game's cached result, or computes, caches and returns it.
// cached reports whether the result was already on the game row.
//
// The cache is authoritative: later changes to answers or tiers never recompute it.
func resolveResult(ctx context.Context, tx Tx, gameID string) (result domain.Result, cached bool, err error) {
	game, err := tx.Game(ctx, gameID)
	if err != nil {
		return domain.Result{}, false, err
	}

	if game.Resolved() {
		tier, err := tx.ResultTier(ctx, game.ResultTierID)
		if err != nil {
			return domain.Result{}, false, err
		}
		return domain.Result{Tier: tier, Summary: *game.ResultSummary}, true, nil
	}

	chosen, err := tx.ChosenAnswers(ctx, gameID)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("load chosen answers: %w", err)
	}
	questions, err := tx.Questions(ctx, game.QuizID)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("load questions: %w", err)
	}
	tiers, err := tx.ResultTiers(ctx, game.QuizID)
	if err != nil {
		return domain.Result{}, false, fmt.Errorf("load result tiers: %w", err)
	}

	summary := domain.Summary{
		Score:          TotalScore(chosen),
		TotalQuestions: len(questions),
	}
	tier, ok := MatchTier(tiers, summary.Score)
	if !ok {
		return domain.Result{}, false, domain.ErrNoSuitableResult
	}

	if err := tx.SaveGameResult(ctx, gameID, tier.ID, summary); err != nil {
		return domain.Result{}, false, fmt.Errorf("save game result: %w", err)
	}
	return domain.Result{Tier: tier, Summary: summary}, false, nil
}

// TotalScore sums the points of every chosen answer.
func TotalScore(chosen []domain.Answer) int {
	total := 0
	for _, a := range chosen {
		total += a.Points
	}
	return total
}

// MatchTier returns the first tier, in the given order, whose inclusive range contains score.
func MatchTier(tiers []domain.ResultTier, score int) (domain.ResultTier, bool) {
	for _, t := range tiers {
		if t.Contains(score) {
			return t, true
		}
	}
	return domain.ResultTier{}, false
}
