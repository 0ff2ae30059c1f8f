package recon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffSets(t *testing.T) {
	provider := map[string]string{
		"A": "Arsenal",
		"B": "Barcelona",
		"C": "Celtic",
	}
	stored := map[string]string{
		"B": "Barcelona",
		"C": "Celtic FC", // drifted name
		"D": "Dortmund",
	}

	report := diffSets(provider, stored)

	assert.Equal(t, []string{"A"}, report.MissingInStore)
	assert.Equal(t, []string{"D"}, report.ExtraInStore)
	assert.Equal(t, []string{"C"}, report.Mismatched)
	assert.Equal(t, 1, report.Matching)
}

func TestDiffSetsIdenticalSets(t *testing.T) {
	fps := map[string]string{"1": "x", "2": "y"}

	report := diffSets(fps, fps)

	assert.Empty(t, report.MissingInStore)
	assert.Empty(t, report.ExtraInStore)
	assert.Empty(t, report.Mismatched)
	assert.Equal(t, 2, report.Matching)
}

func TestDiffSetsEmptyProvider(t *testing.T) {
	report := diffSets(map[string]string{}, map[string]string{"1": "x"})

	assert.Empty(t, report.MissingInStore)
	assert.Equal(t, []string{"1"}, report.ExtraInStore)
	assert.Equal(t, 0, report.Matching)
}

func TestDiffSetsSortsBuckets(t *testing.T) {
	provider := map[string]string{"c": "1", "a": "1", "b": "1"}

	report := diffSets(provider, map[string]string{})

	assert.Equal(t, []string{"a", "b", "c"}, report.MissingInStore)
}

func TestFixtureFingerprint(t *testing.T) {
	two, one := 2, 1

	assert.Equal(t, "FT|2:1", fixtureFingerprint("FT", &two, &one))
	assert.Equal(t, "NS|-:-", fixtureFingerprint("NS", nil, nil))
}
