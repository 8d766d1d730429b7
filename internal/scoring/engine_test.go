package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/model"
)

func priced(name string, cents int64) model.Candidate {
	return model.Candidate{
		Name:      name,
		BestOffer: &model.PriceOffer{Vendor: "Shop", PriceCents: cents, Currency: "CAD", URL: "https://shop.example/" + name},
	}
}

func neutralRisk() model.RiskReport {
	return model.RiskReport{TrustScore: 7.0, SentimentScore: 0.5, EcoScore: 0.5}
}

func TestMarketAverageCents(t *testing.T) {
	cands := []model.Candidate{
		priced("a", 10000),
		priced("b", 20000),
		{Name: "unpriced"},
		priced("c", 30000),
	}
	assert.Equal(t, int64(20000), MarketAverageCents(cands))
}

func TestMarketAverageCents_NoValidPrices(t *testing.T) {
	assert.Equal(t, int64(0), MarketAverageCents([]model.Candidate{{Name: "a"}, {Name: "b"}}))
	assert.Equal(t, int64(0), MarketAverageCents(nil))
}

func TestPriceComponent_BelowAverageScoresHigher(t *testing.T) {
	below := PriceComponent(9000, 10000, DefaultPriceSensitivity)
	above := PriceComponent(15000, 10000, DefaultPriceSensitivity)

	assert.Greater(t, below, 0.5)
	assert.Less(t, above, 0.5)
	assert.Greater(t, below, above)
}

func TestPriceComponent_NeutralCases(t *testing.T) {
	assert.Equal(t, 0.5, PriceComponent(0, 10000, 0.5))  // unpriced candidate
	assert.Equal(t, 0.5, PriceComponent(10000, 0, 0.5))  // no market signal
	assert.Equal(t, 0.5, PriceComponent(10000, 10000, 0.9)) // exactly average
}

func TestPriceComponent_SensitivityScales(t *testing.T) {
	mild := PriceComponent(9000, 10000, 0.1)
	sharp := PriceComponent(9000, 10000, 0.9)
	assert.Greater(t, sharp, mild)
}

func TestScore_CheaperCandidateWinsAtEqualSignals(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})
	risk := neutralRisk()

	// $90 vs $150 against a $100 market average, identical other signals.
	cheap := Score(priced("Budget Pick", 9000), 10000, w, risk, false)
	costly := Score(priced("Premium Pick", 15000), 10000, w, risk, false)

	assert.Greater(t, cheap.Scores.Total, costly.Scores.Total)
}

func TestScore_Deterministic(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})
	a := Score(priced("Sony WH-1000XM5", 34800), 34800, w, neutralRisk(), false)
	b := Score(priced("Sony WH-1000XM5", 34800), 34800, w, neutralRisk(), false)
	assert.Equal(t, a, b)
}

func TestScore_BrandAffinityBoost(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{PreferBrands: []string{"Sony"}}, model.PreferenceOverlay{}, model.PreferenceOverlay{})

	boosted := Score(priced("Sony WH-1000XM5", 10000), 10000, w, neutralRisk(), false)
	plain := Score(priced("Bose QC Ultra", 10000), 10000, w, neutralRisk(), false)

	assert.InDelta(t, brandBoostScale*w.BrandAffinity, boosted.Scores.Total-plain.Scores.Total, 0.001)
}

func TestScore_EcoAdjustedAndSanitized(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})
	risk := model.RiskReport{
		TrustScore:     6,
		SentimentScore: 0.2,
		EcoScore:       0.5,
		EcoNotes:       "Certified B Corp manufacturer.",
	}

	sc := Score(priced("Refurbished Pixel 9", 10000), 10000, w, risk, false)

	assert.InDelta(t, 0.75, sc.Scores.Eco, 0.001)
	assert.NotContains(t, sc.EcoNotes, "B Corp")
}

func TestScore_SentimentRangeMapsToQuality(t *testing.T) {
	w := ResolveWeights(model.PreferenceOverlay{}, model.PreferenceOverlay{}, model.PreferenceOverlay{})

	loved := Score(priced("a", 10000), 10000, w, model.RiskReport{TrustScore: 5, SentimentScore: 1, EcoScore: 0.5}, false)
	hated := Score(priced("b", 10000), 10000, w, model.RiskReport{TrustScore: 5, SentimentScore: -1, EcoScore: 0.5}, false)

	assert.Greater(t, loved.Scores.Total, hated.Scores.Total)
}

func TestBreakdownPercentages(t *testing.T) {
	got := BreakdownPercentages(model.ScoreBreakdown{Price: 0.55, Trust: 7.0, Sentiment: 0.5, Eco: 0.62})

	require.Equal(t, 55.0, got["price"])
	require.Equal(t, 75.0, got["quality"])
	require.Equal(t, 70.0, got["trust"])
	require.Equal(t, 62.0, got["eco"])
}
