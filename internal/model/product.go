package model

import (
	"net/url"
	"strings"
)

// ProductIdentity is the canonical identification of the product under
// analysis. Produced once by the Identify stage and immutable afterward.
type ProductIdentity struct {
	CanonicalName   string   `json:"canonical_name"`
	Context         string   `json:"context,omitempty"`
	DetectedObjects []string `json:"detected_objects,omitempty"`
	Brand           string   `json:"brand,omitempty"`
	Category        string   `json:"category,omitempty"`
}

// Valid reports whether the identity names a usable product.
func (p ProductIdentity) Valid() bool {
	return strings.TrimSpace(p.CanonicalName) != ""
}

// ReviewSnippet is a single piece of review evidence collected from an
// external search provider. Snippets are never mutated after collection and
// are deduplicated by URL across all collection points.
type ReviewSnippet struct {
	Source  string   `json:"source"`
	URL     string   `json:"url"`
	Snippet string   `json:"snippet"`
	Images  []string `json:"images,omitempty"`
}

// DedupeReviews removes snippets whose URL has already been seen, preserving
// input order.
func DedupeReviews(snippets []ReviewSnippet) []ReviewSnippet {
	seen := make(map[string]bool, len(snippets))
	out := make([]ReviewSnippet, 0, len(snippets))
	for _, s := range snippets {
		if s.URL == "" || seen[s.URL] {
			continue
		}
		seen[s.URL] = true
		out = append(out, s)
	}
	return out
}

// PriceOffer is a single vendor listing. Prices are integer minor-currency
// units (cents) end-to-end; dollars appear only in rendered text.
type PriceOffer struct {
	Vendor     string `json:"vendor"`
	PriceCents int64  `json:"price_cents"`
	Currency   string `json:"currency"`
	URL        string `json:"url"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	InStock    *bool  `json:"in_stock,omitempty"`
}

// Valid reports whether the offer carries a positive price and a listing URL.
func (o PriceOffer) Valid() bool {
	return o.PriceCents > 0 && o.URL != ""
}

// DedupeOffers removes offers whose listing URL has already been seen,
// preserving input order.
func DedupeOffers(offers []PriceOffer) []PriceOffer {
	seen := make(map[string]bool, len(offers))
	out := make([]PriceOffer, 0, len(offers))
	for _, o := range offers {
		if o.URL == "" || seen[o.URL] {
			continue
		}
		seen[o.URL] = true
		out = append(out, o)
	}
	return out
}

// EnrichmentStatus describes how completely a candidate was enriched.
type EnrichmentStatus string

const (
	EnrichmentOK      EnrichmentStatus = "ok"
	EnrichmentPartial EnrichmentStatus = "partial"
	EnrichmentFailed  EnrichmentStatus = "failed"
)

// Candidate is one product under consideration in a ranking run. Exactly one
// candidate per run may carry IsMain (the originally identified product).
type Candidate struct {
	Name         string           `json:"name"`
	IsMain       bool             `json:"is_main"`
	Reason       string           `json:"reason,omitempty"`
	Reviews      []ReviewSnippet  `json:"reviews,omitempty"`
	BestOffer    *PriceOffer      `json:"best_offer,omitempty"`
	ImageURL     string           `json:"image_url,omitempty"`
	PurchaseLink string           `json:"purchase_link,omitempty"`
	PriceText    string           `json:"price_text,omitempty"`
	Enrichment   EnrichmentStatus `json:"enrichment"`
}

// PriceCents returns the best offer's price, or 0 when unpriced.
func (c Candidate) PriceCents() int64 {
	if c.BestOffer == nil {
		return 0
	}
	return c.BestOffer.PriceCents
}

// FallbackShoppingLink synthesizes a deterministic marketplace search URL for
// a candidate with no valid offer.
func FallbackShoppingLink(name string) string {
	return "https://www.google.com/search?tbm=shop&q=" + url.QueryEscape(name)
}
