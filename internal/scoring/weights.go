// Package scoring implements the weight resolver, the multi-factor scoring
// engine, and the ranker/assembler that produces the final ranked result.
package scoring

import (
	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
)

// Default factor weights, applied before any preference source.
const (
	DefaultPriceSensitivity = 0.5
	DefaultQuality          = 0.5
	DefaultEcoFriendly      = 0.3
	DefaultBrandAffinity    = 0.2
)

func defaultFactors() map[string]float64 {
	return map[string]float64{
		model.FactorPriceSensitivity: DefaultPriceSensitivity,
		model.FactorQuality:          DefaultQuality,
		model.FactorEcoFriendly:      DefaultEcoFriendly,
		model.FactorBrandAffinity:    DefaultBrandAffinity,
	}
}

// ResolveWeights merges preference sources into one fully populated weight
// set. Precedence on key collision: session > stored > learned > defaults.
// Merge is a shallow per-key override; later sources replace, never blend.
// Absent sources are treated as empty, never as errors.
func ResolveWeights(session, stored, learned model.PreferenceOverlay) model.PreferenceWeights {
	merged := defaultFactors()
	for _, src := range []model.PreferenceOverlay{learned, stored, session} {
		for key, val := range src.Factors {
			if _, recognized := merged[key]; !recognized {
				zap.L().Debug("weights: ignoring unrecognized factor", zap.String("factor", key))
				continue
			}
			merged[key] = clamp01(val)
		}
	}

	w := model.PreferenceWeights{
		PriceSensitivity: merged[model.FactorPriceSensitivity],
		Quality:          merged[model.FactorQuality],
		EcoFriendly:      merged[model.FactorEcoFriendly],
		BrandAffinity:    merged[model.FactorBrandAffinity],
	}

	// Highest-precedence non-empty brand list wins.
	for _, src := range []model.PreferenceOverlay{session, stored, learned} {
		if len(src.PreferBrands) > 0 {
			w.PreferBrands = append([]string(nil), src.PreferBrands...)
			break
		}
	}

	return w
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
