// Package pipeline orchestrates the analysis stage graph:
// Identify -> {Research, Scout} -> Critique -> Score/Rank -> Finalize.
package pipeline

import (
	"context"

	"github.com/cartscope/advisor-cli/internal/model"
)

// Identifier resolves a raw input signal into a product identity.
type Identifier interface {
	Identify(ctx context.Context, input model.AnalysisInput) (model.ProductIdentity, error)
}

// ReviewSearcher finds review snippets for a product query. Best-effort;
// callers treat failure as an empty result.
type ReviewSearcher interface {
	SearchReviews(ctx context.Context, query string) ([]model.ReviewSnippet, error)
}

// PriceSearcher finds live price offers for a product query. Best-effort.
type PriceSearcher interface {
	SearchPrices(ctx context.Context, query string) ([]model.PriceOffer, error)
}

// WebSearcher runs a general web search for market context.
type WebSearcher interface {
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// SearchResult is one raw market-context search hit handed to candidate
// extraction.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

// CandidateProposal is an extracted alternative before enrichment.
type CandidateProposal struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CandidateExtractor pulls alternative product names out of market search
// context.
type CandidateExtractor interface {
	ExtractCandidates(ctx context.Context, product, strategy string, results []SearchResult) ([]CandidateProposal, error)
}

// ResearchData is the Research stage's output slot.
type ResearchData struct {
	Reviews    []model.ReviewSnippet `json:"reviews"`
	Offers     []model.PriceOffer    `json:"offers"`
	EcoContext string                `json:"eco_context,omitempty"`
}

// RiskAssessor produces a skeptic risk assessment of researched product data.
type RiskAssessor interface {
	AssessRisk(ctx context.Context, subject string, research ResearchData) (model.RiskReport, error)
}

// Narrator renders a ranked result into the caller-facing payload.
type Narrator interface {
	RenderNarrative(ctx context.Context, identity model.ProductIdentity, ranked *model.RankedResult) (model.Payload, error)
}

// PreferenceSource supplies stored and learned preference data for a user.
// The store satisfies this directly.
type PreferenceSource interface {
	GetPreferences(ctx context.Context, userID string) (*model.PreferenceOverlay, error)
	GetLearnedWeights(ctx context.Context, userID string) (map[string]float64, error)
}

// CandidateMemory remembers alternatives discovered in past runs. Optional;
// the pipeline functions identically when it is absent. The store satisfies
// this directly.
type CandidateMemory interface {
	LookupCandidates(ctx context.Context, productName string) ([]model.Candidate, error)
	RecordCandidate(ctx context.Context, productName string, cand model.Candidate) error
}
