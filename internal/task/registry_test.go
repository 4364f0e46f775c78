package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseParams() Params {
	return Params{
		Origin:      "Seattle",
		Candidates:  []string{"Orlando", "Miami"},
		Destination: "Orlando",
		StartDate:   "2025-12-15",
		EndDate:     "2025-12-22",
		Interests:   "Food, History",
		Budget:      2000,
		Country:     "USA",
		Diet:        "Halal",
		Risk:        "medium",
	}
}

func TestDescribe_Deterministic(t *testing.T) {
	p := baseParams()
	for _, k := range append([]Kind{KindDestinationSelector}, SpecializeKinds...) {
		first, err := Describe(k, p)
		require.NoError(t, err, "kind %s", k)
		second, err := Describe(k, p)
		require.NoError(t, err, "kind %s", k)
		assert.Equal(t, first, second, "kind %s must render identically", k)
		assert.NotEmpty(t, first)
	}
}

func TestDescribe_DistinctRequestsDistinctStrings(t *testing.T) {
	p := baseParams()

	other := p
	other.Destination = "Miami"

	for _, k := range SpecializeKinds {
		a, err := Describe(k, p)
		require.NoError(t, err)
		b, err := Describe(k, other)
		require.NoError(t, err)
		assert.NotEqual(t, a, b, "kind %s must not collapse distinct destinations", k)
	}

	// Changing dates must also change any date-sensitive description.
	shifted := p
	shifted.EndDate = "2025-12-23"
	a, err := Describe(KindWeather, p)
	require.NoError(t, err)
	b, err := Describe(KindWeather, shifted)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDescribe_SelectorDemandsBareName(t *testing.T) {
	desc, err := Describe(KindDestinationSelector, baseParams())
	require.NoError(t, err)
	assert.Contains(t, desc, "Orlando, Miami")
	assert.Contains(t, desc, "destination name only")
}

func TestDescribe_PrefetchedOnlyForFlightsAndHotels(t *testing.T) {
	p := baseParams()
	p.Prefetched = `{"flights":[{"airline":"Example Air"}]}`

	flights, err := Describe(KindFlights, p)
	require.NoError(t, err)
	assert.Contains(t, flights, p.Prefetched)

	weather, err := Describe(KindWeather, p)
	require.NoError(t, err)
	assert.NotContains(t, weather, p.Prefetched)
}

func TestDescribe_SynthesizerRejected(t *testing.T) {
	_, err := Describe(KindItinerarySynthesizer, baseParams())
	assert.Error(t, err)
}

func TestDescribeSynthesis_CompleteOrderedReport(t *testing.T) {
	findings := map[Kind]string{
		KindWeather: "Sunny all week",
		KindFlights: "Error: flight unit timed out",
	}

	desc, err := DescribeSynthesis(baseParams(), findings)
	require.NoError(t, err)

	assert.Contains(t, desc, "Sunny all week")
	assert.Contains(t, desc, "Error: flight unit timed out")
	// Kinds that never ran are reported, not omitted.
	assert.Contains(t, desc, "- budget: N/A")
	assert.Contains(t, desc, "- local_expert: N/A")
	assert.Contains(t, desc, `"diet":"Halal"`)
	assert.Contains(t, desc, `"budget":2000`)

	again, err := DescribeSynthesis(baseParams(), findings)
	require.NoError(t, err)
	assert.Equal(t, desc, again)
}

func TestProfileFor_AllKinds(t *testing.T) {
	for _, k := range []Kind{
		KindDestinationSelector, KindWeather, KindEvents, KindSafety,
		KindFlights, KindHotels, KindTraffic, KindBudget,
		KindLocalExpert, KindItinerarySynthesizer,
	} {
		p, err := ProfileFor(k)
		require.NoError(t, err)
		assert.NotEmpty(t, p.Role)
		assert.NotEmpty(t, p.Goal)
	}
}

func TestParseKind(t *testing.T) {
	k, err := ParseKind("weather")
	require.NoError(t, err)
	assert.Equal(t, KindWeather, k)

	_, err = ParseKind("astrology")
	assert.Error(t, err)
}
