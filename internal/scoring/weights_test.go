package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cartscope/advisor-cli/internal/model"
)

func TestResolveWeights_AllSourcesEmpty(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})

	assert.Equal(t, DefaultPriceSensitivity, w.PriceSensitivity)
	assert.Equal(t, DefaultQuality, w.Quality)
	assert.Equal(t, DefaultEcoFriendly, w.EcoFriendly)
	assert.Equal(t, DefaultBrandAffinity, w.BrandAffinity)
	assert.Empty(t, w.PreferBrands)
}

func TestResolveWeights_EveryFactorPopulatedInRange(t *testing.T) {
	cases := []struct {
		name    string
		session model.PreferenceOverlay
		stored  model.PreferenceOverlay
		learned model.PreferenceOverlay
	}{
		{name: "all empty"},
		{name: "session only", session: model.PreferenceOverlay{Factors: map[string]float64{model.FactorQuality: 0.9}}},
		{name: "out of range values", stored: model.PreferenceOverlay{Factors: map[string]float64{
			model.FactorPriceSensitivity: 1.7,
			model.FactorEcoFriendly:      -0.4,
		}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := ResolveWeights(tc.session, tc.stored, tc.learned)
			for _, key := range model.FactorKeys() {
				v := w.Factor(key)
				assert.GreaterOrEqual(t, v, 0.0, key)
				assert.LessOrEqual(t, v, 1.0, key)
			}
		})
	}
}

func TestResolveWeights_PrecedenceSessionWins(t *testing.T) {
	session := model.PreferenceOverlay{Factors: map[string]float64{model.FactorPriceSensitivity: 0.9}}
	stored := model.PreferenceOverlay{Factors: map[string]float64{model.FactorPriceSensitivity: 0.5, model.FactorQuality: 0.8}}
	learned := model.PreferenceOverlay{Factors: map[string]float64{model.FactorPriceSensitivity: 0.1, model.FactorQuality: 0.1, model.FactorEcoFriendly: 0.7}}

	w := ResolveWeights(session, stored, learned)

	assert.Equal(t, 0.9, w.PriceSensitivity) // session beats stored and learned
	assert.Equal(t, 0.8, w.Quality)          // stored beats learned
	assert.Equal(t, 0.7, w.EcoFriendly)      // learned beats default
	assert.Equal(t, DefaultBrandAffinity, w.BrandAffinity)
}

func TestResolveWeights_OverrideReplacesNotBlends(t *testing.T) {
	session := model.PreferenceOverlay{Factors: map[string]float64{model.FactorQuality: 1.0}}
	stored := model.PreferenceOverlay{Factors: map[string]float64{model.FactorQuality: 0.0}}

	w := ResolveWeights(session, stored, model.PreferenceOverlay{})
	assert.Equal(t, 1.0, w.Quality)
}

func TestResolveWeights_UnrecognizedFactorIgnored(t *testing.T) {
	session := model.PreferenceOverlay{Factors: map[string]float64{"shoe_size": 0.9}}
	w := ResolveWeights(session, model.PreferenceOverlay{}, model.PreferenceOverlay{})
	assert.Equal(t, DefaultQuality, w.Quality)
}

func TestResolveWeights_BrandListPrecedence(t *testing.T) {
	stored := model.PreferenceOverlay{PreferBrands: []string{"Sony"}}
	learned := model.PreferenceOverlay{PreferBrands: []string{"Bose"}}

	w := ResolveWeights(model.PreferenceOverlay{}, stored, learned)
	assert.Equal(t, []string{"Sony"}, w.PreferBrands)

	session := model.PreferenceOverlay{PreferBrands: []string{"Sennheiser"}}
	w = ResolveWeights(session, stored, learned)
	assert.Equal(t, []string{"Sennheiser"}, w.PreferBrands)
}
