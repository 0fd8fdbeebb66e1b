package app

import (
	"math"
	"testing"

	"trivia-match-service/internal/domain"
)

func TestClampAndValidateStars(t *testing.T) {
	cases := []struct {
		raw     float64
		want    int
		wantErr bool
	}{
		{raw: 0, want: 0},
		{raw: 5, want: 5},
		{raw: 3.6, want: 4},
		{raw: 2.4, want: 2},
		{raw: 5.4, want: 5},
		{raw: 5.6, wantErr: true},
		{raw: -0.6, wantErr: true},
		{raw: 6, wantErr: true},
		{raw: -1, wantErr: true},
		{raw: math.NaN(), wantErr: true},
		{raw: math.Inf(1), wantErr: true},
		{raw: math.Inf(-1), wantErr: true},
	}
	for _, tc := range cases {
		got, err := clampAndValidateStars(tc.raw)
		if tc.wantErr {
			if err != domain.ErrStarOutOfRange {
				t.Fatalf("stars(%v): expected range error, got %v", tc.raw, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("stars(%v): got %d (%v), want %d", tc.raw, got, err, tc.want)
		}
	}
}

func TestNormalizeStoredStars(t *testing.T) {
	if normalizeStoredStars(nil) != 0 {
		t.Fatalf("nil stars must normalize to 0")
	}
	low, high, ok := -3, 9, 4
	if normalizeStoredStars(&low) != 0 {
		t.Fatalf("negative stars must clamp to 0")
	}
	if normalizeStoredStars(&high) != 5 {
		t.Fatalf("oversized stars must clamp to 5")
	}
	if normalizeStoredStars(&ok) != 4 {
		t.Fatalf("in-range stars must pass through")
	}
}

func TestSanitizeText(t *testing.T) {
	if _, err := sanitizeText("   "); err != domain.ErrBlankAnswer {
		t.Fatalf("expected blank error, got %v", err)
	}
	got, err := sanitizeText("  hello  ")
	if err != nil || got != "hello" {
		t.Fatalf("expected trimmed text, got %q (%v)", got, err)
	}
}

func TestClampTimerSeconds(t *testing.T) {
	if clampTimerSeconds(1) != minTimerSeconds {
		t.Fatalf("expected clamp up to %d", minTimerSeconds)
	}
	if clampTimerSeconds(10_000) != maxTimerSeconds {
		t.Fatalf("expected clamp down to %d", maxTimerSeconds)
	}
	if clampTimerSeconds(45) != 45 {
		t.Fatalf("in-range timer must pass through")
	}
}

func TestEffectiveMaxQuestions(t *testing.T) {
	cases := []struct {
		configured, available, want int
	}{
		{configured: 0, available: 10, want: defaultMaxQuestions},
		{configured: 0, available: 4, want: 4},
		{configured: 8, available: 10, want: 8},
		{configured: 8, available: 5, want: 5},
		{configured: 1, available: 10, want: minQuestionCount},
		{configured: 5, available: 0, want: 0},
	}
	for _, tc := range cases {
		if got := effectiveMaxQuestions(tc.configured, tc.available); got != tc.want {
			t.Fatalf("effectiveMaxQuestions(%d, %d) = %d, want %d", tc.configured, tc.available, got, tc.want)
		}
	}
}

func TestClampMaxQuestions(t *testing.T) {
	if _, err := clampMaxQuestions(5, 2); err != domain.ErrInsufficientQuestions {
		t.Fatalf("expected insufficient questions, got %v", err)
	}
	got, err := clampMaxQuestions(1, 6)
	if err != nil || got != minQuestionCount {
		t.Fatalf("expected clamp up to %d, got %d (%v)", minQuestionCount, got, err)
	}
	got, err = clampMaxQuestions(10, 6)
	if err != nil || got != 6 {
		t.Fatalf("expected clamp down to available, got %d (%v)", got, err)
	}
}
