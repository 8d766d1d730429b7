package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/trace"
	"github.com/cartscope/advisor-cli/pkg/serpapi"
	"github.com/cartscope/advisor-cli/pkg/tavily"
)

type mockTavily struct {
	mock.Mock
}

func (m *mockTavily) Search(ctx context.Context, req tavily.SearchRequest) (*tavily.SearchResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tavily.SearchResponse), args.Error(1)
}

type mockSerp struct {
	mock.Mock
}

func (m *mockSerp) ShoppingOffers(ctx context.Context, query string) ([]serpapi.Offer, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]serpapi.Offer), args.Error(1)
}

func TestTavilySearcherReviews(t *testing.T) {
	ctx := context.Background()

	client := &mockTavily{}
	client.On("Search", mock.Anything, mock.MatchedBy(func(req tavily.SearchRequest) bool {
		return req.Query == "xm5 review Canada" && req.IncludeImages && req.MaxResults == 3
	})).Return(&tavily.SearchResponse{
		Results: []tavily.Result{
			{Title: "rtings", URL: "https://rtings.example/1", Content: "great"},
			{Title: "reddit", URL: "https://reddit.example/2", Content: "love it"},
		},
		Images: []string{"https://img.example/1.jpg"},
	}, nil).Once()

	snippets, err := NewTavilySearcher(client).SearchReviews(ctx, "xm5 review Canada")

	require.NoError(t, err)
	require.Len(t, snippets, 2)
	assert.Equal(t, "rtings", snippets[0].Source)
	assert.Equal(t, []string{"https://img.example/1.jpg"}, snippets[0].Images)
	assert.Empty(t, snippets[1].Images)
	client.AssertExpectations(t)
}

func TestTavilySearcherWebSearchError(t *testing.T) {
	ctx := context.Background()

	client := &mockTavily{}
	client.On("Search", mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).Once()

	_, err := NewTavilySearcher(client).Search(ctx, "anything")

	require.Error(t, err)
	var pv *model.ProviderError
	require.ErrorAs(t, err, &pv)
	assert.Equal(t, "tavily", pv.Provider)
}

func TestSearcherAdaptersRecordTrace(t *testing.T) {
	collector := trace.New()
	ctx := trace.WithContext(context.Background(), collector)

	tav := &mockTavily{}
	tav.On("Search", mock.Anything, mock.Anything).
		Return(&tavily.SearchResponse{Results: []tavily.Result{
			{Title: "rtings", URL: "https://rtings.example/1", Content: "great"},
		}}, nil)
	serp := &mockSerp{}
	serp.On("ShoppingOffers", mock.Anything, mock.Anything).
		Return([]serpapi.Offer{{Vendor: "Best Buy", PriceCents: 34800}}, nil)

	_, err := NewTavilySearcher(tav).SearchReviews(ctx, "xm5 review Canada")
	require.NoError(t, err)
	_, err = NewTavilySearcher(tav).Search(ctx, "cheaper alternative to xm5")
	require.NoError(t, err)
	_, err = NewSerpSearcher(serp).SearchPrices(ctx, "Sony WH-1000XM5")
	require.NoError(t, err)

	entries := collector.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "tavily", entries[0].Step)
	assert.Contains(t, entries[0].Detail, `query="xm5 review Canada"`)
	assert.Contains(t, entries[0].Detail, "hits=1")
	assert.Equal(t, "tavily", entries[1].Step)
	assert.Equal(t, "serpapi", entries[2].Step)
	assert.Contains(t, entries[2].Detail, "hits=1")
}

func TestSerpSearcherPrices(t *testing.T) {
	ctx := context.Background()

	client := &mockSerp{}
	client.On("ShoppingOffers", mock.Anything, "Sony WH-1000XM5").
		Return([]serpapi.Offer{
			{Vendor: "Best Buy", PriceCents: 34800, Currency: "CAD", URL: "https://bb.example/xm5", Thumbnail: "https://bb.example/t.jpg"},
		}, nil).Once()

	offers, err := NewSerpSearcher(client).SearchPrices(ctx, "Sony WH-1000XM5")

	require.NoError(t, err)
	require.Len(t, offers, 1)
	assert.Equal(t, "Best Buy", offers[0].Vendor)
	assert.Equal(t, int64(34800), offers[0].PriceCents)
	assert.Equal(t, "https://bb.example/t.jpg", offers[0].Thumbnail)
	client.AssertExpectations(t)
}
