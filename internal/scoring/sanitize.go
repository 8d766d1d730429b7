package scoring

import (
	"regexp"
	"strings"
)

// Certification claims that LLM-generated eco notes routinely invent. When a
// run has no corroborating eco context, a note containing any of these is
// unverifiable and replaced wholesale.
var certificationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bB\s*Corp\b`),
	regexp.MustCompile(`(?i)\bB-Corp\b`),
	regexp.MustCompile(`(?i)\bNet\s*Zero\b`),
	regexp.MustCompile(`(?i)\bISO\s*\d+\b`),
	regexp.MustCompile(`(?i)\bcarbon\s*neutral\b`),
	regexp.MustCompile(`(?i)\bFSC\s*certified\b`),
	regexp.MustCompile(`(?i)\bEnergy\s*Star\b`),
	regexp.MustCompile(`(?i)\bEPEAT\b`),
	regexp.MustCompile(`(?i)\bGreen\s*Seal\b`),
	regexp.MustCompile(`(?i)\bCradle\s*to\s*Cradle\b`),
	regexp.MustCompile(`(?i)\bFair\s*Trade\b`),
	regexp.MustCompile(`(?i)\bRainforest\s*Alliance\b`),
}

var electronicsMarkers = []string{"iphone", "samsung", "pixel", "phone"}

// SanitizeEcoNotes replaces notes carrying an unverifiable certification
// claim with a generic, non-committal note. Notes pass through untouched when
// corroborating eco context was supplied for the run.
func SanitizeEcoNotes(notes, productName string, hasEcoContext bool) string {
	if hasEcoContext {
		return notes
	}

	claimed := false
	for _, p := range certificationPatterns {
		if p.MatchString(notes) {
			claimed = true
			break
		}
	}
	if !claimed {
		return notes
	}

	name := strings.ToLower(productName)
	switch {
	case strings.Contains(name, "refurbished") || strings.Contains(name, "renewed"):
		return "Refurbished product - extends device lifespan, reducing e-waste. Score based on product category."
	case containsAny(name, electronicsMarkers):
		return "Electronics product. Score based on typical smartphone lifecycle and e-waste considerations."
	default:
		return "No verified sustainability data found. Score based on product category."
	}
}
