// Package draft owns the live draft: team and ban slots, the hero catalog in
// use, published recommendations and the generation counter that orders them.
package draft

import (
	"slices"
	"time"

	"github.com/okian/draftnexus/internal/domain/hero"
	"github.com/okian/draftnexus/internal/domain/ranking"
)

// Slot counts.
const (
	TeamSlots = 5
	BanSlots  = 10
)

// Status is the lifecycle status of the draft.
type Status string

// Statuses.
const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusError   Status = "error"
)

// Team identifies a group of slots.
type Team string

// Teams.
const (
	TeamAlly  Team = "ally"
	TeamEnemy Team = "enemy"
	TeamBan   Team = "ban"
)

// Recommendations maps each role to its ranked picks.
type Recommendations map[hero.Role][]ranking.Recommendation

// Snapshot is an immutable copy of the draft state. Mutating it has no effect
// on the store.
type Snapshot struct {
	SessionID       string                `json:"session_id"`
	Generation      uint64                `json:"generation"`
	Status          Status                `json:"status"`
	Message         string                `json:"message"`
	Heroes          []hero.Hero           `json:"heroes"`
	Allies          [TeamSlots]*hero.Hero `json:"allies"`
	Enemies         [TeamSlots]*hero.Hero `json:"enemies"`
	Bans            [BanSlots]*hero.Hero  `json:"bans"`
	Recommendations Recommendations       `json:"recommendations"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// AllySlots returns the ally slots as a slice, nil meaning empty.
func (s Snapshot) AllySlots() []*hero.Hero { return s.Allies[:] }

// EnemySlots returns the enemy slots as a slice, nil meaning empty.
func (s Snapshot) EnemySlots() []*hero.Hero { return s.Enemies[:] }

// Candidates returns the heroes eligible for recommendation: in the catalog,
// flagged eligible, and not present by id in any ally, enemy or ban slot.
// Catalog order is preserved.
func Candidates(s Snapshot) []hero.Hero {
	taken := make(map[int]struct{}, 2*TeamSlots+BanSlots)
	for _, slots := range [][]*hero.Hero{s.Allies[:], s.Enemies[:], s.Bans[:]} {
		for _, h := range slots {
			if h != nil {
				taken[h.ID] = struct{}{}
			}
		}
	}

	out := make([]hero.Hero, 0, len(s.Heroes))
	for _, h := range s.Heroes {
		if !h.Eligible {
			continue
		}
		if _, ok := taken[h.ID]; ok {
			continue
		}
		out = append(out, h)
	}
	return out
}

func (s Snapshot) clone() Snapshot {
	c := s
	c.Heroes = slices.Clone(s.Heroes)
	deepenSlots(c.Allies[:])
	deepenSlots(c.Enemies[:])
	deepenSlots(c.Bans[:])
	c.Recommendations = s.Recommendations.clone()
	return c
}

// deepenSlots replaces every hero pointer with a pointer to a private copy.
func deepenSlots(slots []*hero.Hero) {
	for i, h := range slots {
		if h != nil {
			cp := *h
			slots[i] = &cp
		}
	}
}

func (r Recommendations) clone() Recommendations {
	if r == nil {
		return nil
	}
	out := make(Recommendations, len(r))
	for role, recs := range r {
		out[role] = slices.Clone(recs)
	}
	return out
}
