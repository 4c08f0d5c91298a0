package hazard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/sdsmatch/internal/engine/hazard"
)

func TestClassify_CategorySplit(t *testing.T) {
	t.Parallel()

	c := hazard.Classify([]string{"H225", "H302", "H314", "H410"})

	assert.Equal(t, []string{"H225"}, c.PhysicalHazards)
	assert.Equal(t, []string{"H302", "H314"}, c.HealthHazards)
	assert.Equal(t, []string{"H410"}, c.EnvironmentalHazards)
	assert.Equal(t, 4, c.TotalHazards)
}

func TestClassify_SignalWordDanger(t *testing.T) {
	t.Parallel()

	// H314 is a DANGER-tier code even though H302 alone is WARNING-tier.
	c := hazard.Classify([]string{"H302", "H314"})
	assert.Equal(t, "DANGER", c.SignalWord)
}

func TestClassify_SignalWordWarning(t *testing.T) {
	t.Parallel()

	c := hazard.Classify([]string{"H302", "H315"})
	assert.Equal(t, "WARNING", c.SignalWord)
}

func TestClassify_SignalWordNoneForEmpty(t *testing.T) {
	t.Parallel()

	c := hazard.Classify(nil)
	assert.Equal(t, "None", c.SignalWord)
	assert.Equal(t, 0, c.SeverityScore)
	assert.Equal(t, "none", c.PrimaryHazard)
	assert.False(t, c.RequiresSpecialHandling)
}

func TestClassify_UnknownCodesDefaultToWarning(t *testing.T) {
	t.Parallel()

	// A non-empty list of codes outside both tiers still earns WARNING.
	c := hazard.Classify([]string{"H999"})
	assert.Equal(t, "WARNING", c.SignalWord)
	assert.Equal(t, 1, c.SeverityScore)
}

func TestClassify_SeverityScoring(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codes []string
		want  int
	}{
		{name: "single high", codes: []string{"H314"}, want: 3},
		{name: "single medium", codes: []string{"H315"}, want: 2},
		{name: "single other", codes: []string{"H302"}, want: 1},
		{name: "mixed", codes: []string{"H314", "H315", "H302"}, want: 6},
		{name: "clamped at ten", codes: []string{"H300", "H310", "H330", "H314"}, want: 10},
		{name: "empty", codes: nil, want: 0},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			c := hazard.Classify(tc.codes)
			assert.Equal(t, tc.want, c.SeverityScore)
		})
	}
}

func TestClassify_RequiresSpecialHandling(t *testing.T) {
	t.Parallel()

	// DANGER signal word alone triggers it.
	c := hazard.Classify([]string{"H314"})
	assert.True(t, c.RequiresSpecialHandling)

	// Severity >= 8 without DANGER: three medium + two other = 8.
	c = hazard.Classify([]string{"H315", "H319", "H401", "H302", "H303"})
	assert.Equal(t, "WARNING", c.SignalWord)
	assert.GreaterOrEqual(t, c.SeverityScore, 8)
	assert.True(t, c.RequiresSpecialHandling)

	// Low severity, WARNING only.
	c = hazard.Classify([]string{"H302"})
	assert.False(t, c.RequiresSpecialHandling)
}

func TestClassify_PrimaryHazardPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		codes []string
		want  string
	}{
		{name: "health beats physical", codes: []string{"H225", "H302"}, want: "health"},
		{name: "physical beats environmental", codes: []string{"H225", "H410"}, want: "physical"},
		{name: "environmental alone", codes: []string{"H410"}, want: "environmental"},
		{name: "nothing", codes: nil, want: "none"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, hazard.Classify(tc.codes).PrimaryHazard)
		})
	}
}

func TestClassify_Statements(t *testing.T) {
	t.Parallel()

	c := hazard.Classify([]string{"H302", "H314", "H999"})

	require.Contains(t, c.Statements, "H302")
	assert.Equal(t, "Harmful if swallowed", c.Statements["H302"])
	assert.Equal(t, "Causes severe skin burns and eye damage", c.Statements["H314"])
	assert.NotContains(t, c.Statements, "H999")
}

func TestClassify_MalformedCodes(t *testing.T) {
	t.Parallel()

	c := hazard.Classify([]string{"X302", "H30", "H3a2", "", "H302"})

	// Only the well-formed code lands in a category.
	assert.Equal(t, []string{"H302"}, c.HealthHazards)
	assert.Empty(t, c.PhysicalHazards)
	// TotalHazards still reports the raw input length.
	assert.Equal(t, 5, c.TotalHazards)
}

func TestClassify_SuffixedCodesKeepCategory(t *testing.T) {
	t.Parallel()

	// EUH-style letter suffixes keep the numeric category but are not in
	// the signal-word tiers.
	c := hazard.Classify([]string{"H315a"})
	assert.Equal(t, []string{"H315a"}, c.HealthHazards)
	assert.Equal(t, "WARNING", c.SignalWord)
}

func TestClassOf(t *testing.T) {
	t.Parallel()

	g, ok := hazard.ClassOf("H314")
	require.True(t, ok)
	assert.Equal(t, "skin_corrosion", g.Name)

	g, ok = hazard.ClassOf("H225")
	require.True(t, ok)
	assert.Equal(t, "flammable_liquid", g.Name)

	_, ok = hazard.ClassOf("H999")
	assert.False(t, ok)
}
