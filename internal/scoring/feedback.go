package scoring

import "github.com/cartscope/advisor-cli/internal/model"

// choiceDelta is the per-choice learning step. Small on purpose: learned
// weights drift toward observed behavior over many runs instead of lurching
// after one click.
const choiceDelta = 0.05

// ChoiceDeltas derives learned-weight nudges from the candidate a user
// actually chose. Each factor the choice plausibly signals moves by one step;
// everything else is left alone. The store clamps the accumulated weights to
// [0,1].
func ChoiceDeltas(chosen model.ScoredCandidate, weights model.PreferenceWeights) map[string]float64 {
	deltas := make(map[string]float64)

	// A below-market pick signals price sensitivity; a well-above-market
	// pick signals the opposite.
	switch {
	case chosen.Scores.Price > 0.6:
		deltas[model.FactorPriceSensitivity] = choiceDelta
	case chosen.Scores.Price < 0.4:
		deltas[model.FactorPriceSensitivity] = -choiceDelta
	}

	if chosen.Scores.Sentiment > 0.3 {
		deltas[model.FactorQuality] = choiceDelta
	}
	if chosen.Scores.Eco > 0.7 {
		deltas[model.FactorEcoFriendly] = choiceDelta
	}
	if brandMatch(chosen.Name, weights.PreferBrands) {
		deltas[model.FactorBrandAffinity] = choiceDelta
	}

	return deltas
}
