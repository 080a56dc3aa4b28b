package modifier_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/idlesim/internal/game/modifier"
)

func TestAggregate_SumsAcrossSources(t *testing.T) {
	set, diags := modifier.Aggregate([]modifier.Source{
		{Name: "ring", Values: map[string]float64{"maxHitPercent": 5, "gpPercent": 10}},
		{Name: "prayer", Values: map[string]float64{"maxHitPercent": 3}},
	}, false)

	assert.Nil(t, diags)
	assert.Equal(t, 8.0, set.Get(modifier.MaxHitPercent))
	assert.Equal(t, 10.0, set.Get(modifier.GPPercent))
	assert.Equal(t, 0.0, set.Get(modifier.XPPercent))
}

func TestAggregate_UnknownKeyIsNeutral(t *testing.T) {
	set, diags := modifier.Aggregate([]modifier.Source{
		{Name: "amulet", Values: map[string]float64{"increasedThievingStealth": 40, "xpPercent": 2}},
	}, false)
	assert.Nil(t, diags)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, 2.0, set.Get(modifier.XPPercent))
}

func TestAggregate_CollectsDiagnosticsInOrder(t *testing.T) {
	_, diags := modifier.Aggregate([]modifier.Source{
		{Name: "a", Values: map[string]float64{"zeta": 1, "alpha": 2}},
		{Name: "b", Values: map[string]float64{"mid": 3, "gpPercent": 1}},
	}, true)

	require.Len(t, diags, 3)
	assert.Equal(t, modifier.Diagnostic{Source: "a", Key: "alpha", Value: 2}, diags[0])
	assert.Equal(t, modifier.Diagnostic{Source: "a", Key: "zeta", Value: 1}, diags[1])
	assert.Equal(t, modifier.Diagnostic{Source: "b", Key: "mid", Value: 3}, diags[2])
}

func TestMultiplier_FloorsAtZero(t *testing.T) {
	set, _ := modifier.Aggregate([]modifier.Source{
		{Name: "curse", Values: map[string]float64{"gpPercent": -250}},
	}, false)
	assert.Equal(t, 0.0, set.Multiplier(modifier.GPPercent))
	assert.Equal(t, 1.0, set.Multiplier(modifier.XPPercent))
}

func TestCombined_SumsGlobalAndSpecific(t *testing.T) {
	set, _ := modifier.Aggregate([]modifier.Source{
		{Name: "potion", Values: map[string]float64{"rangedAccuracyPercent": 15}},
		{Name: "area", Values: map[string]float64{"globalAccuracyPercent": -5}},
	}, false)
	assert.InDelta(t, 1.10, set.Combined(modifier.GlobalAccuracyPercent, modifier.RangedAccuracyPercent), 1e-12)
	assert.InDelta(t, 0.95, set.Combined(modifier.GlobalAccuracyPercent, modifier.MeleeAccuracyPercent), 1e-12)
	assert.Equal(t, 1.0, set.Combined())
}

func TestKnown(t *testing.T) {
	for _, k := range modifier.Keys() {
		assert.True(t, modifier.Known(string(k)), "key %q", k)
	}
	assert.False(t, modifier.Known("decreasedMonsterRespawnTimer"))
}

func TestProperty_AggregateDeterministic(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		keys := modifier.Keys()
		n := rapid.IntRange(0, 6).Draw(rt, "sources")
		sources := make([]modifier.Source, n)
		for i := range sources {
			vals := make(map[string]float64)
			for j := 0; j < rapid.IntRange(0, 5).Draw(rt, "keys"); j++ {
				k := keys[rapid.IntRange(0, len(keys)-1).Draw(rt, "key")]
				vals[string(k)] = rapid.Float64Range(-1000, 1000).Draw(rt, "value")
			}
			sources[i] = modifier.Source{Name: "s", Values: vals}
		}
		a, _ := modifier.Aggregate(sources, true)
		b, _ := modifier.Aggregate(sources, true)
		for _, k := range keys {
			if a.Get(k) != b.Get(k) {
				rt.Fatalf("key %s: %v != %v", k, a.Get(k), b.Get(k))
			}
		}
	})
}
