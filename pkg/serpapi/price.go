package serpapi

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var priceRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// PriceCents converts a display price to integer cents. The extracted numeric
// price is preferred when present; otherwise the display string is parsed
// after stripping currency symbols and thousands separators. Returns false
// when no usable price is found.
func PriceCents(display string, extracted float64) (int64, bool) {
	if extracted > 0 {
		return toCents(extracted), true
	}

	cleaned := strings.ReplaceAll(display, ",", "")
	m := priceRe.FindString(cleaned)
	if m == "" {
		return 0, false
	}

	f, err := strconv.ParseFloat(m, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return toCents(f), true
}

func toCents(dollars float64) int64 {
	return int64(math.Round(dollars * 100))
}
