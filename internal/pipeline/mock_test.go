package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/config"
	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/store"
)

// --- Identifier mock ---

type mockIdentifier struct {
	mock.Mock
}

func (m *mockIdentifier) Identify(ctx context.Context, input model.AnalysisInput) (model.ProductIdentity, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(model.ProductIdentity), args.Error(1)
}

// --- ReviewSearcher mock ---

type mockReviewSearcher struct {
	mock.Mock
}

func (m *mockReviewSearcher) SearchReviews(ctx context.Context, query string) ([]model.ReviewSnippet, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ReviewSnippet), args.Error(1)
}

// --- PriceSearcher mock ---

type mockPriceSearcher struct {
	mock.Mock
}

func (m *mockPriceSearcher) SearchPrices(ctx context.Context, query string) ([]model.PriceOffer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.PriceOffer), args.Error(1)
}

// --- WebSearcher mock ---

type mockWebSearcher struct {
	mock.Mock
}

func (m *mockWebSearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]SearchResult), args.Error(1)
}

// --- CandidateExtractor mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) ExtractCandidates(ctx context.Context, product, strategy string, results []SearchResult) ([]CandidateProposal, error) {
	args := m.Called(ctx, product, strategy, results)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]CandidateProposal), args.Error(1)
}

// --- RiskAssessor mock ---

type mockAssessor struct {
	mock.Mock
}

func (m *mockAssessor) AssessRisk(ctx context.Context, subject string, research ResearchData) (model.RiskReport, error) {
	args := m.Called(ctx, subject, research)
	return args.Get(0).(model.RiskReport), args.Error(1)
}

// --- Narrator mock ---

type mockNarrator struct {
	mock.Mock
}

func (m *mockNarrator) RenderNarrative(ctx context.Context, identity model.ProductIdentity, ranked *model.RankedResult) (model.Payload, error) {
	args := m.Called(ctx, identity, ranked)
	return args.Get(0).(model.Payload), args.Error(1)
}

// --- helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Tavily: config.TavilyConfig{Region: "Canada"},
		Pipeline: config.PipelineConfig{
			StageTimeoutSecs:    30,
			CritiqueTimeoutSecs: 20,
		},
		Scout: config.ScoutConfig{
			CandidateLimit:  3,
			Concurrency:     3,
			UnitTimeoutSecs: 15,
			SearchQueries:   2,
		},
	}
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}
