// Package hero defines the hero roster: immutable heroes, lanes, roles and
// the catalog loaded from a roster source.
package hero

// StatCount is the fixed length of a hero stat vector.
const StatCount = 10

// StatNames labels each position of Hero.Stats in training order.
var StatNames = [StatCount]string{ //nolint:gochecknoglobals // fixed training layout
	"primary_lane",
	"damage_type",
	"hard_cc_count",
	"flex_pick_score",
	"escape_reliability",
	"difficulty",
	"economy_dependency",
	"early_power",
	"mid_power",
	"late_power",
}

// Lane is a lane assignment code, 0 meaning none.
type Lane int

// Lane codes used by the roster.
const (
	LaneNone   Lane = 0
	LaneExp    Lane = 1
	LaneMid    Lane = 2
	LaneRoam   Lane = 3
	LaneJungle Lane = 4
	LaneGold   Lane = 5
)

// Valid reports whether l is a known lane code.
func (l Lane) Valid() bool { return l >= LaneNone && l <= LaneGold }

// Role derives the display role for a lane.
func (l Lane) Role() Role {
	switch l {
	case LaneExp:
		return RoleExp
	case LaneMid:
		return RoleMid
	case LaneRoam:
		return RoleRoam
	case LaneJungle:
		return RoleJungle
	case LaneGold:
		return RoleGold
	default:
		return RoleFlex
	}
}

// Role groups recommendations for display.
type Role string

// Roles.
const (
	RoleExp    Role = "Exp"
	RoleMid    Role = "Mid"
	RoleRoam   Role = "Roam"
	RoleJungle Role = "Jungle"
	RoleGold   Role = "Gold"
	RoleFlex   Role = "Flex"
)

// Roles lists every role in display order.
func Roles() []Role {
	return []Role{RoleExp, RoleMid, RoleRoam, RoleJungle, RoleGold, RoleFlex}
}

// Hero is an immutable roster entry. ID is its identity.
type Hero struct {
	ID            int                `json:"id"`
	Name          string             `json:"name"`
	PrimaryLane   Lane               `json:"primaryLane"`
	SecondaryLane Lane               `json:"secondaryLane"`
	IconRef       string             `json:"iconUrl"`
	Eligible      bool               `json:"inRealLogs"`
	Stats         [StatCount]float32 `json:"stats"`
}

// Role is the role derived from the hero's primary lane.
func (h Hero) Role() Role { return h.PrimaryLane.Role() }

// Is reports whether h and other are the same hero.
func (h Hero) Is(other Hero) bool { return h.ID == other.ID }
