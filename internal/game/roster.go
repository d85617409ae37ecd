package game

// UnitDefinition is the immutable stat template shared by all units of a
// type. RangeMin/RangeMax only apply when Ranged is true; melee units
// attack at distance 1.
type UnitDefinition struct {
	Name       string `json:"name"`
	Attack     int    `json:"attack"`
	Defence    int    `json:"defence"`
	Health     int    `json:"health"`
	MovePoints int    `json:"move_points"`
	Ranged     bool   `json:"ranged"`
	RangeMin   int    `json:"range_min"`
	RangeMax   int    `json:"range_max"`
}

// Default city stats. Cities share one stat line; per-city variation comes
// from the HP they have left.
const (
	DefaultCityHP      = 100
	DefaultCityDefence = 12
)

// Roster is the built-in unit catalogue.
var Roster = map[string]*UnitDefinition{
	"warrior":  {Name: "warrior", Attack: 20, Defence: 10, Health: 100, MovePoints: 2},
	"spearman": {Name: "spearman", Attack: 17, Defence: 14, Health: 110, MovePoints: 2},
	"slinger":  {Name: "slinger", Attack: 15, Defence: 8, Health: 60, MovePoints: 2, Ranged: true, RangeMin: 1, RangeMax: 2},
	"archer":   {Name: "archer", Attack: 18, Defence: 7, Health: 70, MovePoints: 2, Ranged: true, RangeMin: 1, RangeMax: 2},
	"catapult": {Name: "catapult", Attack: 28, Defence: 5, Health: 80, MovePoints: 1, Ranged: true, RangeMin: 2, RangeMax: 2},
}

// DefinitionByName looks up a unit definition from the roster.
func DefinitionByName(name string) (*UnitDefinition, bool) {
	def, ok := Roster[name]
	return def, ok
}
