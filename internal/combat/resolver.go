// Package combat computes deterministic damage for attack actions.
// It is a pure calculator: ownership, range, and adjacency are validated by
// the caller before resolution, and board cleanup of destroyed pieces is the
// caller's job.
package combat

import "math"

// Combatant carries the stats the resolver needs from a unit: the immutable
// template stats plus current hit points.
type Combatant struct {
	Attack  int
	Defence int
	HP      int
	Ranged  bool
}

// CityTarget carries the stats the resolver needs from a city.
type CityTarget struct {
	Defence int
	HP      int
	MaxHP   int
}

// UnitResult reports the outcome of a unit-vs-unit attack.
type UnitResult struct {
	Damage            int  // Dealt to the defender
	DefenderHP        int  // After the hit, clamped at 0
	DefenderDestroyed bool
	Countered         bool // Whether a counterattack occurred
	CounterDamage     int  // Dealt back to the attacker, 0 if no counter
	AttackerHP        int  // After any counter, clamped at 0
	AttackerDestroyed bool
}

// CityResult reports the outcome of a unit-vs-city attack.
type CityResult struct {
	Damage int
	CityHP int
	Razed  bool
}

// Damage computes attack damage from the attacker's attack stat and the
// defender's defence stat: round(att² / (att + def)), with a floor of 1.
// A legal attack never deals zero damage.
func Damage(attack, defence int) int {
	dmg := int(math.Round(float64(attack) * float64(attack) / float64(attack+defence)))
	if dmg < 1 {
		return 1
	}
	return dmg
}

// ResolveUnitAttack applies one attack from attacker to defender.
//
// A counterattack occurs only when the defender survives the hit and both
// sides are melee. Ranged attackers never receive a counter, and ranged
// defenders never deliver one.
func ResolveUnitAttack(attacker, defender Combatant) UnitResult {
	res := UnitResult{
		Damage:     Damage(attacker.Attack, defender.Defence),
		AttackerHP: attacker.HP,
	}

	res.DefenderHP = defender.HP - res.Damage
	if res.DefenderHP <= 0 {
		res.DefenderHP = 0
		res.DefenderDestroyed = true
	}

	if !res.DefenderDestroyed && !attacker.Ranged && !defender.Ranged {
		res.Countered = true
		res.CounterDamage = Damage(defender.Attack, attacker.Defence)
		res.AttackerHP = attacker.HP - res.CounterDamage
		if res.AttackerHP <= 0 {
			res.AttackerHP = 0
			res.AttackerDestroyed = true
		}
	}

	return res
}

// ResolveCityAttack applies one attack from a unit to a city. Cities never
// counterattack, regardless of the attacker's type.
func ResolveCityAttack(attacker Combatant, city CityTarget) CityResult {
	res := CityResult{Damage: Damage(attacker.Attack, city.Defence)}

	res.CityHP = city.HP - res.Damage
	if res.CityHP <= 0 {
		res.CityHP = 0
		res.Razed = true
	}

	return res
}
