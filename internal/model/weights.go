package model

// Recognized preference factor keys. Every resolved weight set carries a
// value for each of these.
const (
	FactorPriceSensitivity = "price_sensitivity"
	FactorQuality          = "quality"
	FactorEcoFriendly      = "eco_friendly"
	FactorBrandAffinity    = "brand_affinity"
)

// FactorKeys lists all recognized factor keys in a fixed order.
func FactorKeys() []string {
	return []string{
		FactorPriceSensitivity,
		FactorQuality,
		FactorEcoFriendly,
		FactorBrandAffinity,
	}
}

// PreferenceOverlay is a partial preference source: session overrides, stored
// user preferences, or learned weights. Absent keys fall through to the next
// source in precedence.
type PreferenceOverlay struct {
	Factors      map[string]float64 `json:"factors,omitempty"`
	PreferBrands []string           `json:"prefer_brands,omitempty"`
}

// PreferenceWeights is a fully resolved weight set. Every recognized factor
// has a value in [0,1]; absence of a key is never a valid state after
// resolution.
type PreferenceWeights struct {
	PriceSensitivity float64  `json:"price_sensitivity"`
	Quality          float64  `json:"quality"`
	EcoFriendly      float64  `json:"eco_friendly"`
	BrandAffinity    float64  `json:"brand_affinity"`
	PreferBrands     []string `json:"prefer_brands,omitempty"`
}

// Factor returns the weight for a recognized factor key, 0 otherwise.
func (w PreferenceWeights) Factor(key string) float64 {
	switch key {
	case FactorPriceSensitivity:
		return w.PriceSensitivity
	case FactorQuality:
		return w.Quality
	case FactorEcoFriendly:
		return w.EcoFriendly
	case FactorBrandAffinity:
		return w.BrandAffinity
	}
	return 0
}
