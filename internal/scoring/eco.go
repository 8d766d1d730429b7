package scoring

import (
	_ "embed"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed eco_rules.yaml
var ecoRulesYAML []byte

// EcoRule adds a fixed delta when any keyword appears in the candidate name
// and no "unless" keyword does.
type EcoRule struct {
	Keywords []string `yaml:"keywords"`
	Unless   []string `yaml:"unless,omitempty"`
	Delta    float64  `yaml:"delta"`
}

type ecoRuleFile struct {
	Rules []EcoRule `yaml:"rules"`
}

var ecoRules = mustLoadEcoRules()

func mustLoadEcoRules() []EcoRule {
	var f ecoRuleFile
	if err := yaml.Unmarshal(ecoRulesYAML, &f); err != nil {
		panic("scoring: embedded eco rules are malformed: " + err.Error())
	}
	return f.Rules
}

// Eco scores never reach the absolute extremes; the keyword heuristic is
// approximate.
const (
	ecoFloor   = 0.05
	ecoCeiling = 0.95
)

// AdjustEcoScore applies the keyword rule table to the base eco score and
// clamps the result to [0.05, 0.95]. Pure function of its inputs.
func AdjustEcoScore(base float64, productName string) float64 {
	name := strings.ToLower(productName)

	adjusted := base
	for _, rule := range ecoRules {
		if !containsAny(name, rule.Keywords) || containsAny(name, rule.Unless) {
			continue
		}
		adjusted += rule.Delta
	}

	if adjusted < ecoFloor {
		return ecoFloor
	}
	if adjusted > ecoCeiling {
		return ecoCeiling
	}
	return adjusted
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}
