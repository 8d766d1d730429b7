package pipeline

import (
	"context"
	"strings"

	"github.com/cartscope/advisor-cli/internal/model"
)

// StubCapabilities builds a capability set that answers from canned data and
// never leaves the process. Used for offline runs and as the test harness.
func StubCapabilities() Capabilities {
	return Capabilities{
		Identifier: StubIdentifier{},
		Reviews:    StubReviewSearcher{},
		Prices:     StubPriceSearcher{},
		Web:        StubWebSearcher{},
		Extractor:  StubExtractor{},
		Assessor:   StubAssessor{},
		Narrator:   StubNarrator{},
	}
}

// StubIdentifier echoes the query back as the canonical product name.
type StubIdentifier struct{}

func (StubIdentifier) Identify(_ context.Context, input model.AnalysisInput) (model.ProductIdentity, error) {
	name := strings.TrimSpace(input.Query)
	if name == "" {
		name = "Unidentified Product"
	}
	return model.ProductIdentity{CanonicalName: name}, nil
}

// StubReviewSearcher returns one synthetic snippet per query.
type StubReviewSearcher struct{}

func (StubReviewSearcher) SearchReviews(_ context.Context, query string) ([]model.ReviewSnippet, error) {
	return []model.ReviewSnippet{{
		Source:  "offline",
		URL:     "https://example.com/review?q=" + strings.ReplaceAll(query, " ", "+"),
		Snippet: "No live review data; offline mode.",
	}}, nil
}

// StubPriceSearcher returns no offers, exercising the fallback-link path.
type StubPriceSearcher struct{}

func (StubPriceSearcher) SearchPrices(context.Context, string) ([]model.PriceOffer, error) {
	return nil, nil
}

// StubWebSearcher returns no market context.
type StubWebSearcher struct{}

func (StubWebSearcher) Search(context.Context, string) ([]SearchResult, error) {
	return nil, nil
}

// StubExtractor proposes no alternatives.
type StubExtractor struct{}

func (StubExtractor) ExtractCandidates(context.Context, string, string, []SearchResult) ([]CandidateProposal, error) {
	return nil, nil
}

// StubAssessor returns the neutral default report for every subject.
type StubAssessor struct{}

func (StubAssessor) AssessRisk(_ context.Context, subject string, _ ResearchData) (model.RiskReport, error) {
	report := model.DefaultRiskReport(subject)
	report.Degraded = false
	return report, nil
}

// StubNarrator renders the deterministic payload.
type StubNarrator struct{}

func (StubNarrator) RenderNarrative(_ context.Context, identity model.ProductIdentity, ranked *model.RankedResult) (model.Payload, error) {
	return AssemblePayload(identity, ranked), nil
}
