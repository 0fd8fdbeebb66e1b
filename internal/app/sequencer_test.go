package app

import (
	"math/rand"
	"testing"

	"trivia-match-service/internal/domain"
)

func TestBalancedOrderSpreadsDifficulties(t *testing.T) {
	questions := []domain.Question{
		{ID: "e1", Difficulty: domain.DifficultyEasy},
		{ID: "e2", Difficulty: domain.DifficultyEasy},
		{ID: "e3", Difficulty: domain.DifficultyEasy},
		{ID: "m1", Difficulty: domain.DifficultyMedium},
		{ID: "m2", Difficulty: domain.DifficultyMedium},
		{ID: "h1", Difficulty: domain.DifficultyHard},
	}
	byID := map[string]domain.Difficulty{}
	for _, q := range questions {
		byID[q.ID] = q.Difficulty
	}

	for seed := int64(0); seed < 20; seed++ {
		pools := buildQuestionPools(questions, rand.New(rand.NewSource(seed)))
		order := buildBalancedOrder(pools, 6)
		if len(order) != 6 {
			t.Fatalf("seed %d: expected 6 picks, got %d", seed, len(order))
		}

		counts := map[domain.Difficulty]int{}
		seen := map[string]bool{}
		for _, id := range order {
			if seen[id] {
				t.Fatalf("seed %d: duplicate pick %s", seed, id)
			}
			seen[id] = true
			counts[byID[id]]++
		}
		if counts[domain.DifficultyEasy] != 3 || counts[domain.DifficultyMedium] != 2 || counts[domain.DifficultyHard] != 1 {
			t.Fatalf("seed %d: unbalanced counts %v", seed, counts)
		}
	}
}

func TestBalancedOrderStaysWithinOne(t *testing.T) {
	questions := []domain.Question{
		{ID: "e1", Difficulty: domain.DifficultyEasy},
		{ID: "e2", Difficulty: domain.DifficultyEasy},
		{ID: "m1", Difficulty: domain.DifficultyMedium},
		{ID: "m2", Difficulty: domain.DifficultyMedium},
		{ID: "h1", Difficulty: domain.DifficultyHard},
		{ID: "h2", Difficulty: domain.DifficultyHard},
	}
	byID := map[string]domain.Difficulty{}
	for _, q := range questions {
		byID[q.ID] = q.Difficulty
	}

	pools := buildQuestionPools(questions, rand.New(rand.NewSource(7)))
	order := buildBalancedOrder(pools, 4)
	counts := map[domain.Difficulty]int{}
	for _, id := range order {
		counts[byID[id]]++
	}
	min, max := 4, 0
	for _, d := range domain.Difficulties {
		if counts[d] < min {
			min = counts[d]
		}
		if counts[d] > max {
			max = counts[d]
		}
	}
	if max-min > 1 {
		t.Fatalf("difficulty spread exceeds one: %v", counts)
	}
}

func TestBalancedOrderSkipsAnswered(t *testing.T) {
	questions := []domain.Question{
		{ID: "e1", Difficulty: domain.DifficultyEasy, IsAnswered: true},
		{ID: "m1", Difficulty: domain.DifficultyMedium},
	}
	pools := buildQuestionPools(questions, rand.New(rand.NewSource(1)))
	order := buildBalancedOrder(pools, 6)
	if len(order) != 1 || order[0] != "m1" {
		t.Fatalf("expected only unanswered m1, got %v", order)
	}
}

func TestBalancedOrderTieBreaks(t *testing.T) {
	// Equal picked counts: the larger remaining pool goes first; equal pool
	// sizes fall back to the lexicographically smaller difficulty.
	pools := questionPools{
		domain.DifficultyEasy:   {"e1"},
		domain.DifficultyMedium: {"m1", "m2"},
	}
	order := buildBalancedOrder(pools, 3)
	if len(order) != 3 {
		t.Fatalf("expected 3 picks, got %v", order)
	}
	if order[0] != "m1" {
		t.Fatalf("expected larger pool first, got %v", order)
	}
	if order[1] != "e1" {
		t.Fatalf("expected least-represented EASY second, got %v", order)
	}
}
