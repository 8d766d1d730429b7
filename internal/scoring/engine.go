package scoring

import (
	"strings"

	"github.com/cartscope/advisor-cli/internal/model"
)

// trustWeight is the fixed weight of the trust component in the total score.
// Trust has no user-tunable preference factor; it always counts.
const trustWeight = 0.5

// brandBoostScale sizes the additive brand-affinity boost on the 0-100 total
// scale. The boost itself is brandBoostScale * weights.brand_affinity.
const brandBoostScale = 50.0

// MarketAverageCents computes the mean best-offer price over all candidates
// with a valid price, in integer cents. Returns 0 when no candidate is
// priced; callers treat that as "no market signal", never as an error.
func MarketAverageCents(candidates []model.Candidate) int64 {
	var sum, n int64
	for _, c := range candidates {
		if p := c.PriceCents(); p > 0 {
			sum += p
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}

// PriceComponent scores a candidate's price against the market average on a
// 0-1 scale. Below-average prices score above the 0.5 neutral point, scaled
// by price sensitivity. Unpriced candidates and zero averages are neutral.
func PriceComponent(priceCents, marketAvgCents int64, sensitivity float64) float64 {
	if priceCents <= 0 || marketAvgCents <= 0 {
		return 0.5
	}
	deviation := float64(marketAvgCents-priceCents) / float64(marketAvgCents)
	return clamp01(0.5 + deviation*sensitivity)
}

// Score computes the full score breakdown for one candidate. Pure function:
// fixed inputs always produce the same ScoredCandidate.
//
// Trust and sentiment come from the supplied risk signals: the critique
// report for the run's critique subject, or a per-candidate sentiment pass
// for alternatives; the engine never recomputes either. hasEcoContext guards
// the certification-claim sanitizer.
func Score(c model.Candidate, marketAvgCents int64, w model.PreferenceWeights, risk model.RiskReport, hasEcoContext bool) model.ScoredCandidate {
	price := PriceComponent(c.PriceCents(), marketAvgCents, w.PriceSensitivity)
	eco := AdjustEcoScore(risk.EcoScore, c.Name)

	// Normalize every component to 0-1 for the weighted sum.
	qualityNorm := (risk.SentimentScore + 1) / 2
	trustNorm := risk.TrustScore / 10

	weightSum := w.PriceSensitivity + w.Quality + trustWeight + w.EcoFriendly
	total := 0.0
	if weightSum > 0 {
		total = 100 * (w.PriceSensitivity*price +
			w.Quality*qualityNorm +
			trustWeight*trustNorm +
			w.EcoFriendly*eco) / weightSum
	}

	if brandMatch(c.Name, w.PreferBrands) {
		total += brandBoostScale * w.BrandAffinity
	}

	return model.ScoredCandidate{
		Candidate: c,
		Scores: model.ScoreBreakdown{
			Price:     price,
			Trust:     risk.TrustScore,
			Sentiment: risk.SentimentScore,
			Eco:       eco,
			Total:     total,
		},
		SentimentSummary: risk.Summary,
		EcoNotes:         SanitizeEcoNotes(risk.EcoNotes, c.Name, hasEcoContext),
	}
}

func brandMatch(name string, brands []string) bool {
	lower := strings.ToLower(name)
	for _, b := range brands {
		if b != "" && strings.Contains(lower, strings.ToLower(b)) {
			return true
		}
	}
	return false
}

// BreakdownPercentages maps a score breakdown onto the 0-100 scales the
// caller-facing payload uses.
func BreakdownPercentages(s model.ScoreBreakdown) map[string]float64 {
	return map[string]float64{
		"price":   round1(s.Price * 100),
		"quality": round1((s.Sentiment + 1) / 2 * 100),
		"trust":   round1(s.Trust * 10),
		"eco":     round1(s.Eco * 100),
	}
}

func round1(v float64) float64 {
	if v < 0 {
		return float64(int64(v*10-0.5)) / 10
	}
	return float64(int64(v*10+0.5)) / 10
}
