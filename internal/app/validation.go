package app

import (
	"math"
	"strings"

	"trivia-match-service/internal/domain"
)

const (
	minTimerSeconds = 15
	maxTimerSeconds = 300
	minStars        = 0
	maxStars        = 5

	minQuestionCount    = 3
	defaultMaxQuestions = 6

	// Once every expected participant has acted, the remaining window is
	// shortened to this many seconds.
	acceleratedWindowSeconds = 10
)

// sanitizeText trims leading/trailing whitespace and rejects empty input.
func sanitizeText(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", domain.ErrBlankAnswer
	}
	return trimmed, nil
}

// clampAndValidateStars rounds a raw rating to the nearest integer and
// rejects non-finite or out-of-range values.
func clampAndValidateStars(raw float64) (int, error) {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0, domain.ErrStarOutOfRange
	}
	rounded := int(math.Round(raw))
	if rounded < minStars || rounded > maxStars {
		return 0, domain.ErrStarOutOfRange
	}
	return rounded, nil
}

// normalizeStoredStars coerces a possibly-missing star value into [0,5].
// Finalization uses it so responses nobody rated score zero instead of
// blocking the round.
func normalizeStoredStars(raw *int) int {
	if raw == nil {
		return 0
	}
	if *raw < minStars {
		return minStars
	}
	if *raw > maxStars {
		return maxStars
	}
	return *raw
}

func validLobbyCode(code int) bool {
	return code >= 100000 && code <= 999999
}

func clampTimerSeconds(raw int64) int64 {
	if raw < minTimerSeconds {
		return minTimerSeconds
	}
	if raw > maxTimerSeconds {
		return maxTimerSeconds
	}
	return raw
}

// effectiveMaxQuestions resolves the match size: the configured cap clamped
// to [minQuestionCount, available], or min(default, available) when no cap
// was configured (configured <= 0).
func effectiveMaxQuestions(configured, available int) int {
	if available < 0 {
		available = 0
	}
	if configured <= 0 {
		if available < defaultMaxQuestions {
			return available
		}
		return defaultMaxQuestions
	}
	if configured < minQuestionCount {
		configured = minQuestionCount
	}
	if configured > available {
		return available
	}
	return configured
}

// clampMaxQuestions validates a host-requested cap against the questions
// currently saved in the lobby.
func clampMaxQuestions(raw, available int) (int, error) {
	if available < minQuestionCount {
		return 0, domain.ErrInsufficientQuestions
	}
	if raw < minQuestionCount {
		raw = minQuestionCount
	}
	if raw > available {
		raw = available
	}
	return raw, nil
}
