// Package ranking turns per-candidate win probabilities into role-grouped
// recommendations.
package ranking

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/okian/draftnexus/internal/domain/hero"
)

// DefaultTopK is the per-role cap used when topK is not positive.
const DefaultTopK = 5

// Recommendation is a scored candidate. Hero is a value copy.
type Recommendation struct {
	Hero  hero.Hero `json:"hero"`
	Score float32   `json:"score"`
	Role  hero.Role `json:"role"`
}

// Rank zips candidates with scores, groups them by the role of their primary
// lane, sorts each group by score descending and keeps at most topK per role.
// Equal scores keep candidate order. Roles with no candidates are absent.
func Rank(candidates []hero.Hero, scores []float32, topK int) (map[hero.Role][]Recommendation, error) {
	if len(candidates) != len(scores) {
		return nil, fmt.Errorf("%w: %d candidates, %d scores", ErrLengthMismatch, len(candidates), len(scores))
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	groups := make(map[hero.Role][]Recommendation)
	for i, h := range candidates {
		role := h.Role()
		groups[role] = append(groups[role], Recommendation{Hero: h, Score: scores[i], Role: role})
	}

	for role, recs := range groups {
		slices.SortStableFunc(recs, byScoreDesc)
		if len(recs) > topK {
			recs = recs[:topK:topK]
		}
		groups[role] = recs
	}
	return groups, nil
}

// Overall flattens role groups into a single list sorted by score, capped at
// k. Ties keep role display order, then in-group order.
func Overall(groups map[hero.Role][]Recommendation, k int) []Recommendation {
	var all []Recommendation
	for _, role := range hero.Roles() {
		all = append(all, groups[role]...)
	}
	slices.SortStableFunc(all, byScoreDesc)
	if k > 0 && len(all) > k {
		all = all[:k]
	}
	return all
}

func byScoreDesc(a, b Recommendation) int {
	return cmp.Compare(b.Score, a.Score)
}
