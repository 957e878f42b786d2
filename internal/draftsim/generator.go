package draftsim

import (
	"math/rand/v2"
)

// Slot groups as they appear in API paths.
const (
	GroupAllies  = "allies"
	GroupEnemies = "enemies"
	GroupBans    = "bans"
)

// Action fills one draft slot.
type Action struct {
	Group  string
	Slot   int
	HeroID int
}

// draftOrder is a ranked-mode pick and ban order: a first ban phase, picks
// alternating in 1-2-2-1 fashion, a second ban phase, and the last picks.
var draftOrder = [MaxActions]struct { //nolint:gochecknoglobals // fixed draft order
	group string
	slot  int
}{
	{GroupBans, 0}, {GroupBans, 1}, {GroupBans, 2}, {GroupBans, 3}, {GroupBans, 4}, {GroupBans, 5},
	{GroupAllies, 0}, {GroupEnemies, 0}, {GroupEnemies, 1}, {GroupAllies, 1}, {GroupAllies, 2}, {GroupEnemies, 2},
	{GroupBans, 6}, {GroupBans, 7}, {GroupBans, 8}, {GroupBans, 9},
	{GroupEnemies, 3}, {GroupAllies, 3}, {GroupAllies, 4}, {GroupEnemies, 4},
}

// NewPlan draws distinct heroes for the first n slots of the draft order.
// The plan is shorter than n when there are fewer heroes than slots.
func NewPlan(r *rand.Rand, heroIDs []int, n int) []Action {
	if n > MaxActions {
		n = MaxActions
	}
	if n > len(heroIDs) {
		n = len(heroIDs)
	}

	pool := make([]int, len(heroIDs))
	copy(pool, heroIDs)
	r.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	plan := make([]Action, 0, n)
	for i := 0; i < n; i++ {
		plan = append(plan, Action{Group: draftOrder[i].group, Slot: draftOrder[i].slot, HeroID: pool[i]})
	}
	return plan
}
