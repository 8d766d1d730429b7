package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeEcoNotes_StripsCertificationWithoutContext(t *testing.T) {
	notes := "This brand is a certified B Corp with carbon neutral shipping."
	got := SanitizeEcoNotes(notes, "Canvas Tote Bag", false)

	assert.NotContains(t, got, "B Corp")
	assert.NotContains(t, got, "carbon neutral")
	assert.Equal(t, "No verified sustainability data found. Score based on product category.", got)
}

func TestSanitizeEcoNotes_KeptWhenContextSupplied(t *testing.T) {
	notes := "Verified B Corp per supplied research."
	assert.Equal(t, notes, SanitizeEcoNotes(notes, "Canvas Tote Bag", true))
}

func TestSanitizeEcoNotes_NoClaimPassesThrough(t *testing.T) {
	notes := "Durable materials, likely long service life."
	assert.Equal(t, notes, SanitizeEcoNotes(notes, "Canvas Tote Bag", false))
}

func TestSanitizeEcoNotes_CaseInsensitive(t *testing.T) {
	got := SanitizeEcoNotes("уour purchase is CARBON NEUTRAL", "Mug", false)
	assert.NotContains(t, got, "CARBON NEUTRAL")
}

func TestSanitizeEcoNotes_ISOCodes(t *testing.T) {
	got := SanitizeEcoNotes("Factory holds ISO 14001.", "Desk Lamp", false)
	assert.NotContains(t, got, "ISO")
}

func TestSanitizeEcoNotes_RefurbishedReplacement(t *testing.T) {
	got := SanitizeEcoNotes("EPEAT Gold rated.", "Refurbished ThinkPad X1", false)
	assert.Contains(t, got, "Refurbished product")
}

func TestSanitizeEcoNotes_ElectronicsReplacement(t *testing.T) {
	got := SanitizeEcoNotes("Energy Star compliant.", "iPhone 16", false)
	assert.Contains(t, got, "Electronics product")
}
