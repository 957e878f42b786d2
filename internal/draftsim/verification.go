package draftsim

import (
	"errors"
	"fmt"
)

// ErrViolation marks a draft that breaks a recommendation invariant.
var ErrViolation = errors.New("invariant violated")

// verifyDraft checks a published draft: no taken hero is recommended, each
// role holds at most topK entries filed under their own role, scores are
// probabilities in descending order, and no hero is listed twice.
func verifyDraft(d *Draft, topK int) error {
	taken := make(map[int]struct{})
	for _, group := range [][]*Hero{d.Allies, d.Enemies, d.Bans} {
		for _, h := range group {
			if h != nil {
				taken[h.ID] = struct{}{}
			}
		}
	}

	var errs []error
	seen := make(map[int]string)
	for role, recs := range d.Recommendations {
		if len(recs) > topK {
			errs = append(errs, fmt.Errorf("%w: role %s has %d entries, limit %d", ErrViolation, role, len(recs), topK))
		}
		for i, rec := range recs {
			if _, ok := taken[rec.Hero.ID]; ok {
				errs = append(errs, fmt.Errorf("%w: taken hero %d recommended under %s", ErrViolation, rec.Hero.ID, role))
			}
			if prev, ok := seen[rec.Hero.ID]; ok {
				errs = append(errs, fmt.Errorf("%w: hero %d listed under %s and %s", ErrViolation, rec.Hero.ID, prev, role))
			}
			seen[rec.Hero.ID] = role
			if rec.Role != role {
				errs = append(errs, fmt.Errorf("%w: hero %d has role %s but is filed under %s", ErrViolation, rec.Hero.ID, rec.Role, role))
			}
			if rec.Score < 0 || rec.Score > 1 {
				errs = append(errs, fmt.Errorf("%w: hero %d score %.4f outside [0,1]", ErrViolation, rec.Hero.ID, rec.Score))
			}
			if i > 0 && rec.Score > recs[i-1].Score {
				errs = append(errs, fmt.Errorf("%w: role %s not sorted at position %d", ErrViolation, role, i))
			}
		}
	}
	return errors.Join(errs...)
}
