package app

import (
	"math/rand"
	"sort"

	"trivia-match-service/internal/domain"
)

// questionPools holds the shuffled, unpicked question ids per difficulty.
type questionPools map[domain.Difficulty][]string

// buildQuestionPools partitions unresolved questions by difficulty and
// shuffles each pool independently.
func buildQuestionPools(questions []domain.Question, rnd *rand.Rand) questionPools {
	pools := questionPools{}
	for _, q := range questions {
		if q.IsAnswered {
			continue
		}
		pools[q.Difficulty] = append(pools[q.Difficulty], q.ID)
	}
	for _, ids := range pools {
		rnd.Shuffle(len(ids), func(i, j int) {
			ids[i], ids[j] = ids[j], ids[i]
		})
	}
	return pools
}

// buildBalancedOrder draws up to limit question ids, always taking from the
// least-represented-so-far difficulty among pools that still have members.
// Ties go to the larger remaining pool, then to the lexicographically smaller
// difficulty name. The result is balanced across difficulties to within one
// question, with intra-difficulty order random.
func buildBalancedOrder(pools questionPools, limit int) []string {
	picked := map[domain.Difficulty]int{}
	order := make([]string, 0, limit)

	for len(order) < limit {
		var candidates []domain.Difficulty
		for d, ids := range pools {
			if len(ids) > 0 {
				candidates = append(candidates, d)
			}
		}
		if len(candidates) == 0 {
			break
		}

		minPicked := picked[candidates[0]]
		for _, d := range candidates[1:] {
			if picked[d] < minPicked {
				minPicked = picked[d]
			}
		}
		var balanced []domain.Difficulty
		for _, d := range candidates {
			if picked[d] == minPicked {
				balanced = append(balanced, d)
			}
		}

		sort.Slice(balanced, func(i, j int) bool {
			left, right := balanced[i], balanced[j]
			if len(pools[left]) != len(pools[right]) {
				return len(pools[left]) > len(pools[right])
			}
			return left < right
		})

		next := balanced[0]
		order = append(order, pools[next][0])
		pools[next] = pools[next][1:]
		picked[next]++
	}

	return order
}
