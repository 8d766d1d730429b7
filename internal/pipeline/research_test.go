package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/model"
)

func TestReviewQueries(t *testing.T) {
	queries := reviewQueries("Sony WH-1000XM5", "Canada")

	require.Len(t, queries, 3)
	assert.Equal(t, "Sony WH-1000XM5 review Canada", queries[0])
	assert.Equal(t, "Sony WH-1000XM5 review reddit Canada", queries[1])
	assert.Equal(t, "site:reddit.com Sony WH-1000XM5 worth it Canada", queries[2])
}

func TestRunResearchCollectsAndDedupes(t *testing.T) {
	ctx := context.Background()

	reviews := &mockReviewSearcher{}
	// The same URL comes back from two review queries; it survives once.
	reviews.On("SearchReviews", mock.Anything, "Sony WH-1000XM5 review Canada").
		Return([]model.ReviewSnippet{{Source: "rtings", URL: "https://rtings.example/xm5", Snippet: "excellent"}}, nil)
	reviews.On("SearchReviews", mock.Anything, "Sony WH-1000XM5 review reddit Canada").
		Return([]model.ReviewSnippet{{Source: "reddit", URL: "https://rtings.example/xm5", Snippet: "excellent"}}, nil)
	reviews.On("SearchReviews", mock.Anything, "site:reddit.com Sony WH-1000XM5 worth it Canada").
		Return([]model.ReviewSnippet{{Source: "reddit", URL: "https://reddit.example/worth", Snippet: "worth it"}}, nil)
	reviews.On("SearchReviews", mock.Anything, "Sony WH-1000XM5 sustainability environmental impact").
		Return([]model.ReviewSnippet{{Source: "sony", URL: "https://sony.example/eco", Snippet: "recycled plastics program"}}, nil)

	prices := &mockPriceSearcher{}
	prices.On("SearchPrices", mock.Anything, "Sony WH-1000XM5").
		Return([]model.PriceOffer{
			{Vendor: "Shop A", PriceCents: 34800, Currency: "CAD", URL: "https://a.example/xm5"},
			{Vendor: "Shop A dup", PriceCents: 34800, Currency: "CAD", URL: "https://a.example/xm5"},
		}, nil)

	caps := StubCapabilities()
	caps.Reviews = reviews
	caps.Prices = prices
	p := New(testConfig(), newTestStore(t), caps)

	data, err := p.runResearch(ctx, "Sony WH-1000XM5")

	require.NoError(t, err)
	assert.Len(t, data.Reviews, 2)
	assert.Len(t, data.Offers, 1)
	assert.Contains(t, data.EcoContext, "recycled plastics")
	reviews.AssertExpectations(t)
	prices.AssertExpectations(t)
}

func TestRunResearchPartialFailureIsNotAnError(t *testing.T) {
	ctx := context.Background()

	reviews := &mockReviewSearcher{}
	reviews.On("SearchReviews", mock.Anything, mock.Anything).
		Return(nil, errors.New("tavily down"))
	prices := &mockPriceSearcher{}
	prices.On("SearchPrices", mock.Anything, mock.Anything).
		Return([]model.PriceOffer{{Vendor: "Shop A", PriceCents: 9900, URL: "https://a.example/p"}}, nil)

	caps := StubCapabilities()
	caps.Reviews = reviews
	caps.Prices = prices
	p := New(testConfig(), newTestStore(t), caps)

	data, err := p.runResearch(ctx, "Anything")

	require.NoError(t, err)
	assert.Empty(t, data.Reviews)
	assert.Len(t, data.Offers, 1)
}

func TestRunResearchTotalFailure(t *testing.T) {
	ctx := context.Background()

	reviews := &mockReviewSearcher{}
	reviews.On("SearchReviews", mock.Anything, mock.Anything).
		Return(nil, errors.New("tavily down"))
	prices := &mockPriceSearcher{}
	prices.On("SearchPrices", mock.Anything, mock.Anything).
		Return(nil, errors.New("serpapi down"))

	caps := StubCapabilities()
	caps.Reviews = reviews
	caps.Prices = prices
	p := New(testConfig(), newTestStore(t), caps)

	data, err := p.runResearch(ctx, "Anything")

	assert.Error(t, err)
	assert.Empty(t, data.Reviews)
	assert.Empty(t, data.Offers)
}
