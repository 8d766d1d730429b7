package pipeline

import (
	"context"
	"strings"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/pool"
)

var nameNormalizer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// normalizeName canonicalizes a product name for deduplication: diacritics
// stripped, case folded, whitespace collapsed.
func normalizeName(name string) string {
	folded, _, err := transform.String(nameNormalizer, name)
	if err != nil {
		folded = name
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}

// runEnrich turns candidate proposals into fully populated candidates.
// Proposals are deduplicated by normalized name and capped before enrichment;
// every surviving proposal yields a candidate in input order, with a fallback
// shopping link standing in when no valid offer was found.
func (p *Pipeline) runEnrich(ctx context.Context, mainName string, proposals []CandidateProposal) []model.Candidate {
	mainKey := normalizeName(mainName)
	seen := map[string]bool{mainKey: true}

	unique := make([]CandidateProposal, 0, len(proposals))
	for _, prop := range proposals {
		key := normalizeName(prop.Name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, prop)
	}
	if limit := p.cfg.Scout.CandidateLimit; limit > 0 && len(unique) > limit {
		unique = unique[:limit]
	}

	candidates := make([]model.Candidate, len(unique))
	tasks := make([]pool.Task, len(unique))
	for i, prop := range unique {
		tasks[i] = func(ctx context.Context) error {
			candidates[i] = p.enrichOne(ctx, prop)
			return nil
		}
	}
	_ = p.enrichPool.Run(ctx, tasks)

	// A task that timed out never wrote its slot; backfill so the output
	// always matches the deduplicated input.
	for i, prop := range unique {
		if candidates[i].Name == "" {
			candidates[i] = fallbackCandidate(prop, model.EnrichmentFailed)
		}
	}
	return candidates
}

// enrichOne looks up offers and review evidence for a single proposal.
func (p *Pipeline) enrichOne(ctx context.Context, prop CandidateProposal) model.Candidate {
	cand := model.Candidate{
		Name:       prop.Name,
		Reason:     prop.Reason,
		Enrichment: model.EnrichmentOK,
	}

	offers, offerErr := p.prices.SearchPrices(ctx, prop.Name)
	if offerErr != nil {
		zap.L().Warn("candidate price search failed",
			zap.String("candidate", prop.Name), zap.Error(offerErr))
	}
	offers = model.DedupeOffers(offers)
	for i := range offers {
		if offers[i].Valid() {
			cand.BestOffer = &offers[i]
			break
		}
	}

	reviews, reviewErr := p.reviews.SearchReviews(ctx, prop.Name+" review "+p.cfg.Tavily.Region)
	if reviewErr != nil {
		zap.L().Warn("candidate review search failed",
			zap.String("candidate", prop.Name), zap.Error(reviewErr))
	}
	cand.Reviews = model.DedupeReviews(reviews)

	switch {
	case offerErr != nil && reviewErr != nil:
		cand.Enrichment = model.EnrichmentFailed
	case cand.BestOffer == nil || len(cand.Reviews) == 0:
		cand.Enrichment = model.EnrichmentPartial
	}

	if cand.BestOffer != nil {
		cand.PurchaseLink = cand.BestOffer.URL
		cand.ImageURL = cand.BestOffer.Thumbnail
	} else {
		cand.PurchaseLink = model.FallbackShoppingLink(prop.Name)
	}
	cand.PriceText = model.PriceTextFor(cand.BestOffer)
	return cand
}

func fallbackCandidate(prop CandidateProposal, status model.EnrichmentStatus) model.Candidate {
	return model.Candidate{
		Name:         prop.Name,
		Reason:       prop.Reason,
		PurchaseLink: model.FallbackShoppingLink(prop.Name),
		PriceText:    model.PriceTextFor(nil),
		Enrichment:   status,
	}
}
