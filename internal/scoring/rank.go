package scoring

import (
	"fmt"
	"sort"

	"github.com/cartscope/advisor-cli/internal/model"
)

// Price verdict thresholds relative to the market average.
const (
	greatDealRatio    = 0.9
	premiumPriceRatio = 1.1
)

// Rank sorts scored candidates and assembles the terminal RankedResult.
// Sorting is descending by total score with ties broken by input order.
// More than one main-flagged candidate is an input error: the ranking
// contract guarantees at most one.
func Rank(scored []model.ScoredCandidate, marketAvgCents int64, weights model.PreferenceWeights) (*model.RankedResult, error) {
	mains := 0
	for _, s := range scored {
		if s.IsMain {
			mains++
		}
	}
	if mains > 1 {
		return nil, model.NewInputError("%d candidates flagged main, want at most 1", mains)
	}

	ordered := make([]model.ScoredCandidate, len(scored))
	copy(ordered, scored)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Scores.Total > ordered[j].Scores.Total
	})

	result := &model.RankedResult{
		AppliedWeights: weights,
		Price: model.PriceAnalysis{
			Verdict:        model.VerdictFairPrice,
			MarketAvgCents: marketAvgCents,
			MarketAvgText:  model.FormatCents(marketAvgCents),
		},
	}

	var top, main *model.ScoredCandidate
	if len(ordered) > 0 {
		top = &ordered[0]
	}
	for i := range ordered {
		if ordered[i].IsMain {
			main = &ordered[i]
			break
		}
	}

	// The originally identified product stays the display candidate even
	// when an alternative out-scores it.
	display := main
	if display == nil {
		display = top
	}
	result.Main = main
	result.Display = display

	if display != nil {
		result.Price = priceAnalysis(display.PriceCents(), marketAvgCents)
	}

	if top != nil && main != nil && top.Name != main.Name {
		result.BetterAlternativeExists = true
		result.BestAlternative = top.Name
	}

	result.Alternatives = make([]model.ScoredCandidate, 0, len(ordered))
	for _, s := range ordered {
		if s.IsMain {
			continue
		}
		result.Alternatives = append(result.Alternatives, s)
	}

	return result, nil
}

// priceAnalysis classifies the display price against the market average.
// A zero average (no valid prices collected) deliberately falls back to
// "Fair Price".
func priceAnalysis(priceCents, marketAvgCents int64) model.PriceAnalysis {
	pa := model.PriceAnalysis{
		Verdict:         model.VerdictFairPrice,
		MarketAvgCents:  marketAvgCents,
		MarketAvgText:   model.FormatCents(marketAvgCents),
		DifferenceLabel: "0%",
	}

	if priceCents <= 0 || marketAvgCents <= 0 {
		return pa
	}

	ratio := float64(priceCents) / float64(marketAvgCents)
	switch {
	case ratio < greatDealRatio:
		pa.Verdict = model.VerdictGreatDeal
	case ratio > premiumPriceRatio:
		pa.Verdict = model.VerdictPremiumPrice
	}

	pa.DifferencePct = (ratio - 1) * 100
	pa.DifferenceLabel = fmt.Sprintf("%.0f%%", pa.DifferencePct)
	return pa
}
