package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/scoring"
)

// Run outcomes surfaced to the caller.
const (
	OutcomeRecommended  = "highly_recommended"
	OutcomeAlternatives = "consider_alternatives"
)

// runFinalize renders the ranked result into the caller-facing payload,
// preferring the narrator's prose and falling back to the deterministic
// assembly when it fails.
func (p *Pipeline) runFinalize(ctx context.Context, identity model.ProductIdentity, ranked *model.RankedResult) (model.Payload, error) {
	payload, err := p.narrator.RenderNarrative(ctx, identity, ranked)
	if err != nil {
		zap.L().Warn("narrative rendering failed, using deterministic summary", zap.Error(err))
		return AssemblePayload(identity, ranked), err
	}
	return payload, nil
}

// AssemblePayload builds the caller-facing payload from a ranked result with
// no model involvement. This is both the narrator's input scaffold and the
// fallback when narration fails.
func AssemblePayload(identity model.ProductIdentity, ranked *model.RankedResult) model.Payload {
	payload := model.Payload{
		Outcome:           OutcomeRecommended,
		IdentifiedProduct: identity.CanonicalName,
	}
	if ranked == nil {
		payload.Outcome = OutcomeAlternatives
		payload.Summary = fmt.Sprintf("We could not complete a full market analysis for %s.", identity.CanonicalName)
		return payload
	}

	payload.Price = ranked.Price
	payload.AppliedWeights = ranked.AppliedWeights

	if d := ranked.Display; d != nil {
		payload.Active = model.ActiveProduct{
			Name:         d.Name,
			ImageURL:     d.ImageURL,
			PurchaseLink: d.PurchaseLink,
			PriceText:    d.PriceText,
			EcoScore:     d.Scores.Eco,
			EcoNotes:     d.EcoNotes,
		}
	}

	for _, alt := range ranked.Alternatives {
		payload.Alternatives = append(payload.Alternatives, model.AlternativePayload{
			Name:      alt.Name,
			Score:     alt.Scores.Total,
			Breakdown: scoring.BreakdownPercentages(alt.Scores),
			Reason:    alt.Reason,
			Image:     alt.ImageURL,
			Link:      alt.PurchaseLink,
			PriceText: alt.PriceText,
			EcoScore:  alt.Scores.Eco,
			EcoNotes:  alt.EcoNotes,
		})
	}

	if ranked.BetterAlternativeExists {
		payload.Outcome = OutcomeAlternatives
		payload.Summary = fmt.Sprintf("%s is a %s, but %s scored higher for your preferences.",
			payload.Active.Name, verdictPhrase(ranked.Price.Verdict), ranked.BestAlternative)
	} else {
		payload.Summary = fmt.Sprintf("%s is a %s and the strongest match for your preferences.",
			payload.Active.Name, verdictPhrase(ranked.Price.Verdict))
	}
	return payload
}

func verdictPhrase(v model.PriceVerdict) string {
	switch v {
	case model.VerdictGreatDeal:
		return "great deal right now"
	case model.VerdictPremiumPrice:
		return "premium-priced option"
	default:
		return "fairly priced option"
	}
}
