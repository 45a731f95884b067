package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwerning/fleetscan/constants"
)

func testCache() *Cache {
	c := NewCache()
	c.Add(1, "Max Mustermann")
	c.Add(2, "Erika Musterfrau")
	c.Add(3, "Ahmed Osama")
	c.Add(4, "Karim El Masri")
	return c
}

func TestMatchExactIDBypassesName(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	// The id is authoritative even when the name points elsewhere.
	res := m.Match(c, "Erika Musterfrau", "1")
	assert.Equal(t, int64(1), res.EntityID)
	assert.Equal(t, "Max Mustermann", res.CanonicalName)
	assert.Equal(t, constants.MatchExactID, res.Source)
	assert.Equal(t, float64(100), res.Score)
}

func TestMatchUnknownIDFallsBackToName(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	res := m.Match(c, "Erika Musterfrau", "9999")
	assert.Equal(t, int64(2), res.EntityID)
	assert.Equal(t, constants.MatchFuzzy, res.Source)
}

func TestMatchToleratesOCRTokenSplit(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	res := m.Match(c, "Max Muster mann", "")
	require.True(t, res.Matched())
	assert.Equal(t, int64(1), res.EntityID)
	assert.Equal(t, constants.MatchFuzzy, res.Source)
	assert.GreaterOrEqual(t, res.Score, m.Threshold)
}

func TestMatchRejectsUnrelatedName(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	res := m.Match(c, "Hans Schmidt", "")
	assert.False(t, res.Matched())
	assert.Equal(t, int64(0), res.EntityID)
	assert.Equal(t, constants.MatchNone, res.Source)
	assert.Less(t, res.Score, m.Threshold)
}

func TestMatchAcceptsSwappedTokenOrder(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	res := m.Match(c, "Osama Ahmed", "")
	require.True(t, res.Matched())
	assert.Equal(t, int64(3), res.EntityID)
}

func TestMatchTokenEqualityFallback(t *testing.T) {
	c := testCache()
	m := Matcher{Threshold: 99, CoverageFloor: 0.5}

	// Too strict a threshold for fuzzy acceptance, but the token sets are
	// identical and the candidate is unique.
	res := m.Match(c, "Osama Ahmed", "")
	require.True(t, res.Matched())
	assert.Equal(t, int64(3), res.EntityID)
	assert.Equal(t, constants.MatchTokenEquality, res.Source)
}

func TestMatchFoldsNamePrefixVariants(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	for _, raw := range []string{"Al Masri Karim", "EI Masri Karim", "Karim El-Masri"} {
		res := m.Match(c, raw, "")
		require.True(t, res.Matched(), "raw=%q", raw)
		assert.Equal(t, int64(4), res.EntityID, "raw=%q", raw)
	}
}

func TestMatchIsDeterministic(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	a := m.Match(c, "Max Muster mann", "")
	b := m.Match(c, "Max Muster mann", "")
	assert.Equal(t, a, b)
}

func TestMatchEmptyName(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	res := m.Match(c, "   ", "")
	assert.False(t, res.Matched())
}

func TestCacheAddRemoveVisibility(t *testing.T) {
	c := testCache()
	m := NewMatcher(0, 0)

	c.Add(99, "Neuer Fahrer")
	assert.True(t, c.HasID(99))
	res := m.Match(c, "Neuer Fahrer", "")
	require.True(t, res.Matched())
	assert.Equal(t, int64(99), res.EntityID)

	c.Remove(99)
	assert.False(t, c.HasID(99))
	res = m.Match(c, "Neuer Fahrer", "")
	assert.False(t, res.Matched())
}

func TestCacheIDByKey(t *testing.T) {
	c := testCache()

	id, ok := c.IDByKey(Tokens("Mustermann Max"))
	require.True(t, ok)
	assert.Equal(t, int64(1), id)

	_, ok = c.IDByKey(Tokens("Niemand Hier"))
	assert.False(t, ok)
}
