package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDamage_FloorOfOne(t *testing.T) {
	assert.Equal(t, 1, Damage(1, 100))
	assert.GreaterOrEqual(t, Damage(20, 10), 1)
}

func TestDamage_Deterministic(t *testing.T) {
	first := Damage(20, 10)
	for i := 0; i < 100; i++ {
		assert.Equal(t, first, Damage(20, 10))
	}
	// round(20*20 / 30) = round(13.33) = 13
	assert.Equal(t, 13, first)
}

func TestResolveUnitAttack_MeleeVsMelee_Counter(t *testing.T) {
	warrior := Combatant{Attack: 20, Defence: 10, HP: 100}
	spearman := Combatant{Attack: 17, Defence: 14, HP: 110}

	res := ResolveUnitAttack(warrior, spearman)

	require.False(t, res.DefenderDestroyed)
	assert.Equal(t, spearman.HP-res.Damage, res.DefenderHP)
	assert.True(t, res.Countered)
	assert.Equal(t, Damage(spearman.Attack, warrior.Defence), res.CounterDamage)
	assert.Less(t, res.AttackerHP, warrior.HP)
	assert.GreaterOrEqual(t, res.DefenderHP, 0)
	assert.GreaterOrEqual(t, res.AttackerHP, 0)
}

func TestResolveUnitAttack_RangedAttacker_NoCounter(t *testing.T) {
	slinger := Combatant{Attack: 15, Defence: 8, HP: 60, Ranged: true}
	defenders := []Combatant{
		{Attack: 20, Defence: 10, HP: 100},               // melee
		{Attack: 18, Defence: 7, HP: 70, Ranged: true},   // ranged
		{Attack: 28, Defence: 5, HP: 80, Ranged: true},   // ranged
	}

	for _, d := range defenders {
		res := ResolveUnitAttack(slinger, d)
		assert.False(t, res.Countered)
		assert.Equal(t, slinger.HP, res.AttackerHP, "ranged attacker took a counter")
	}
}

func TestResolveUnitAttack_MeleeVsRangedDefender_NoCounter(t *testing.T) {
	// Pins the counter rule: both sides must be melee for a counter, so a
	// ranged defender at adjacency does not strike back.
	warrior := Combatant{Attack: 20, Defence: 10, HP: 100}
	slinger := Combatant{Attack: 15, Defence: 8, HP: 60, Ranged: true}

	res := ResolveUnitAttack(warrior, slinger)

	require.False(t, res.DefenderDestroyed)
	assert.Equal(t, slinger.HP-Damage(20, 8), res.DefenderHP)
	assert.False(t, res.Countered)
	assert.Equal(t, warrior.HP, res.AttackerHP)
}

func TestResolveUnitAttack_DefenderDestroyed_NoCounter(t *testing.T) {
	attacker := Combatant{Attack: 30, Defence: 10, HP: 100}
	defender := Combatant{Attack: 25, Defence: 2, HP: 5}

	res := ResolveUnitAttack(attacker, defender)

	assert.True(t, res.DefenderDestroyed)
	assert.Equal(t, 0, res.DefenderHP)
	assert.False(t, res.Countered)
	assert.Equal(t, attacker.HP, res.AttackerHP)
}

func TestResolveUnitAttack_HPClampedAtZero(t *testing.T) {
	attacker := Combatant{Attack: 50, Defence: 1, HP: 3}
	defender := Combatant{Attack: 50, Defence: 1, HP: 200}

	res := ResolveUnitAttack(attacker, defender)

	require.False(t, res.DefenderDestroyed)
	require.True(t, res.Countered)
	assert.Equal(t, 0, res.AttackerHP)
	assert.True(t, res.AttackerDestroyed)
}

func TestResolveCityAttack(t *testing.T) {
	attacker := Combatant{Attack: 25, Defence: 10, HP: 90}
	city := CityTarget{Defence: 12, HP: 50, MaxHP: 100}

	res := ResolveCityAttack(attacker, city)

	expected := Damage(25, 12)
	assert.Equal(t, expected, res.Damage)
	assert.Equal(t, 50-expected, res.CityHP)
	assert.False(t, res.Razed)
}

func TestResolveCityAttack_Razed(t *testing.T) {
	attacker := Combatant{Attack: 40, Defence: 10, HP: 90}
	city := CityTarget{Defence: 5, HP: 10, MaxHP: 100}

	res := ResolveCityAttack(attacker, city)

	assert.Equal(t, 0, res.CityHP)
	assert.True(t, res.Razed)
}
