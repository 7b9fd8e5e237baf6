package htmlstore

import (
	"regexp"
	"strconv"
	"strings"
)

// pricePatterns are tried in order against a listing's price text.
// Each pattern captures the numeric amount.
var pricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$(\d+(?:,\d{3})*(?:\.\d{2})?)`),               // $123.45, $1,234.56
	regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d{2})?)\s*\$`),            // 123.45$
	regexp.MustCompile(`(?i)USD\s*(\d+(?:,\d{3})*(?:\.\d{2})?)`),       // USD 123.45
	regexp.MustCompile(`(?i)(\d+(?:,\d{3})*(?:\.\d{2})?)\s*USD`),       // 123.45 USD
	regexp.MustCompile(`(?i)Price:\s*\$?(\d+(?:,\d{3})*(?:\.\d{2})?)`), // Price: $123.45
}

// ExtractPrice pulls a price amount out of free-form listing text.
// Returns false when no pattern matches.
func ExtractPrice(text string) (float64, bool) {
	for _, pattern := range pricePatterns {
		matches := pattern.FindStringSubmatch(text)
		if matches == nil {
			continue
		}
		amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
		if err != nil {
			continue
		}
		return amount, true
	}
	return 0, false
}
