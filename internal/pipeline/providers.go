package pipeline

import (
	"context"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/trace"
	"github.com/cartscope/advisor-cli/pkg/serpapi"
	"github.com/cartscope/advisor-cli/pkg/tavily"
)

// TavilySearcher adapts the Tavily client to review and market-context
// searches.
type TavilySearcher struct {
	client tavily.Client
}

// NewTavilySearcher wraps a Tavily client.
func NewTavilySearcher(client tavily.Client) *TavilySearcher {
	return &TavilySearcher{client: client}
}

func (s *TavilySearcher) SearchReviews(ctx context.Context, query string) ([]model.ReviewSnippet, error) {
	resp, err := s.client.Search(ctx, tavily.SearchRequest{
		Query:         query,
		SearchDepth:   "basic",
		MaxResults:    3,
		IncludeImages: true,
	})
	if err != nil {
		return nil, model.NewProviderError("tavily", err)
	}

	snippets := make([]model.ReviewSnippet, 0, len(resp.Results))
	for i, r := range resp.Results {
		snip := model.ReviewSnippet{
			Source:  r.Title,
			URL:     r.URL,
			Snippet: r.Content,
		}
		// Tavily returns images for the response as a whole; attach them
		// to the first snippet so they survive deduplication.
		if i == 0 && len(resp.Images) > 0 {
			snip.Images = resp.Images
		}
		snippets = append(snippets, snip)
	}
	trace.FromContext(ctx).Addf("tavily", "reviews query=%q hits=%d", query, len(snippets))
	return snippets, nil
}

func (s *TavilySearcher) Search(ctx context.Context, query string) ([]SearchResult, error) {
	resp, err := s.client.Search(ctx, tavily.SearchRequest{
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  5,
	})
	if err != nil {
		return nil, model.NewProviderError("tavily", err)
	}

	results := make([]SearchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, SearchResult{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	trace.FromContext(ctx).Addf("tavily", "search query=%q hits=%d", query, len(results))
	return results, nil
}

// SerpSearcher adapts the SerpAPI shopping client to price searches.
type SerpSearcher struct {
	client serpapi.Client
}

// NewSerpSearcher wraps a SerpAPI client.
func NewSerpSearcher(client serpapi.Client) *SerpSearcher {
	return &SerpSearcher{client: client}
}

func (s *SerpSearcher) SearchPrices(ctx context.Context, query string) ([]model.PriceOffer, error) {
	offers, err := s.client.ShoppingOffers(ctx, query)
	if err != nil {
		return nil, model.NewProviderError("serpapi", err)
	}

	out := make([]model.PriceOffer, 0, len(offers))
	for _, o := range offers {
		out = append(out, model.PriceOffer{
			Vendor:     o.Vendor,
			PriceCents: o.PriceCents,
			Currency:   o.Currency,
			URL:        o.URL,
			Thumbnail:  o.Thumbnail,
		})
	}
	trace.FromContext(ctx).Addf("serpapi", "offers query=%q hits=%d", query, len(out))
	return out, nil
}
