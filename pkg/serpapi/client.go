// Package serpapi provides a client for SerpAPI's Google Shopping engine,
// used for live price offers and product thumbnails.
package serpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/cartscope/advisor-cli/internal/resilience"
)

const (
	defaultBaseURL  = "https://serpapi.com"
	defaultCountry  = "ca"
	defaultLocation = "Canada"
	defaultCurrency = "CAD"
)

// Client fetches shopping offers for a product query.
type Client interface {
	ShoppingOffers(ctx context.Context, query string) ([]Offer, error)
}

// Offer is a single vendor listing for a product.
type Offer struct {
	Vendor     string
	Title      string
	PriceCents int64
	Currency   string
	URL        string
	Thumbnail  string
}

// searchResponse is the subset of the SerpAPI response we consume.
type searchResponse struct {
	ShoppingResults []shoppingResult `json:"shopping_results"`
	Error           string           `json:"error"`
}

type shoppingResult struct {
	Position       int     `json:"position"`
	Title          string  `json:"title"`
	Price          string  `json:"price"`
	ExtractedPrice float64 `json:"extracted_price"`
	Source         string  `json:"source"`
	Link           string  `json:"link"`
	Thumbnail      string  `json:"thumbnail"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithLocale sets the country code and location used for regional results.
func WithLocale(country, location string) Option {
	return func(c *httpClient) {
		if country != "" {
			c.country = country
		}
		if location != "" {
			c.location = location
		}
	}
}

// WithCurrency sets the currency attached to parsed offers.
func WithCurrency(currency string) Option {
	return func(c *httpClient) {
		if currency != "" {
			c.currency = currency
		}
	}
}

// WithRateLimit overrides the default request rate (2 req/s).
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithRetry overrides the default retry configuration.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

type httpClient struct {
	apiKey   string
	baseURL  string
	country  string
	location string
	currency string
	http     *http.Client
	limiter  *rate.Limiter
	retry    resilience.RetryConfig
}

// NewClient creates a SerpAPI client scoped to the Google Shopping engine.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:   apiKey,
		baseURL:  defaultBaseURL,
		country:  defaultCountry,
		location: defaultLocation,
		currency: defaultCurrency,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(2, 2),
		retry:   resilience.DefaultRetryConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) ShoppingOffers(ctx context.Context, query string) ([]Offer, error) {
	if query == "" {
		return nil, eris.New("serpapi: empty query")
	}

	params := url.Values{}
	params.Set("engine", "google_shopping")
	params.Set("q", query)
	params.Set("gl", c.country)
	params.Set("hl", "en")
	params.Set("location", c.location)
	params.Set("api_key", c.apiKey)
	reqURL := c.baseURL + "/search.json?" + params.Encode()

	result, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*searchResponse, error) {
		return c.doSearch(ctx, reqURL)
	})
	if err != nil {
		return nil, err
	}

	offers := make([]Offer, 0, len(result.ShoppingResults))
	for _, item := range result.ShoppingResults {
		cents, ok := PriceCents(item.Price, item.ExtractedPrice)
		if !ok {
			continue
		}
		offers = append(offers, Offer{
			Vendor:     orUnknown(item.Source),
			Title:      item.Title,
			PriceCents: cents,
			Currency:   c.currency,
			URL:        item.Link,
			Thumbnail:  item.Thumbnail,
		})
	}
	return offers, nil
}

func (c *httpClient) doSearch(ctx context.Context, reqURL string) (*searchResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "serpapi: rate limit")
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: send request")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "serpapi: read response")
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("serpapi: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "serpapi: unmarshal response")
	}
	if result.Error != "" {
		return nil, eris.Errorf("serpapi: api error: %s", result.Error)
	}

	return &result, nil
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
