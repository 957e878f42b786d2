// Package features encodes draft state plus a candidate hero into the fixed
// 277-float layout the scoring model was trained on.
//
// Layout:
//
//	[0,130]   ally one-hot, index id-1
//	[131,261] enemy one-hot, index 131+id-1
//	[262,266] ally role counts by primary lane 1..5
//	[267,276] candidate stats
package features

import (
	"github.com/okian/draftnexus/internal/domain/hero"
)

// Layout constants. Changing any of these breaks compatibility with the model.
const (
	MaxHeroID   = 131
	AllyOffset  = 0
	EnemyOffset = AllyOffset + MaxHeroID
	RoleOffset  = EnemyOffset + MaxHeroID
	RoleCount   = 5
	StatsOffset = RoleOffset + RoleCount
	VectorLen   = StatsOffset + hero.StatCount

	// MaxSlots is the number of ally or enemy slots in a draft.
	MaxSlots = 5
)

// Vector is one encoded model input row.
type Vector [VectorLen]float32

// Encode builds the feature vector for candidate against the given teams.
// Nil entries are empty slots. Ids outside [1,MaxHeroID] are left out of the
// one-hot sections and lanes outside 1..5 add no role count.
func Encode(allies, enemies []*hero.Hero, candidate hero.Hero) Vector {
	var v Vector

	for _, h := range allies {
		if h == nil {
			continue
		}
		if inRange(h.ID) {
			v[AllyOffset+h.ID-1] = 1
		}
		if h.PrimaryLane >= hero.LaneExp && h.PrimaryLane <= hero.LaneGold {
			v[RoleOffset+int(h.PrimaryLane)-1]++
		}
	}

	for _, h := range enemies {
		if h != nil && inRange(h.ID) {
			v[EnemyOffset+h.ID-1] = 1
		}
	}

	copy(v[StatsOffset:], candidate.Stats[:])
	return v
}

func inRange(id int) bool { return id >= 1 && id <= MaxHeroID }
