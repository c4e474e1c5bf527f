// Package classify derives brand-presence metrics from answer text.
//
// Matching is case-insensitive substring search using Unicode case folding.
// A brand entry may be an alias group written as "google+alphabet"; the group
// matches when any of its aliases occurs and always counts once.
package classify

import (
	"strings"

	"golang.org/x/text/cases"
)

// DefaultCompareThreshold is the combined own+competitor count at which an
// answer is considered to compare brands.
const DefaultCompareThreshold = 1

const aliasSeparator = "+"

// Matrix maps a brand column label to 1 (present) or 0 (absent).
type Matrix map[string]int

// CountBrandMatches returns how many distinct brands occur in text.
func CountBrandMatches(text string, brands []string) int {
	if text == "" || len(brands) == 0 {
		return 0
	}
	folded := fold(text)

	count := 0
	seen := make(map[string]struct{}, len(brands))
	for _, brand := range brands {
		key := brandKey(brand)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		if matchesBrand(folded, brand) {
			count++
		}
	}
	return count
}

func BrandExists(text string, ownBrands []string) bool {
	return CountBrandMatches(text, ownBrands) > 0
}

// BrandCompare reports whether text mentions enough brands to count as a
// comparison. Own brands contribute at most one, each distinct competitor one.
func BrandCompare(text string, ownBrands, competitorBrands []string, threshold int) bool {
	if text == "" {
		return false
	}
	own := 0
	if BrandExists(text, ownBrands) {
		own = 1
	}
	return own+CountBrandMatches(text, competitorBrands) >= threshold
}

// OwnBrandsLabel is the single column label used for all own brands.
func OwnBrandsLabel(ownBrands []string) string {
	return strings.Join(ownBrands, aliasSeparator)
}

// BuildPresenceMatrix returns one entry per distinct competitor plus one
// combined entry for the own brands. Empty text yields an empty matrix.
func BuildPresenceMatrix(text string, ownBrands, competitorBrands []string) Matrix {
	matrix := Matrix{}
	if text == "" {
		return matrix
	}

	if label := OwnBrandsLabel(ownBrands); label != "" {
		matrix[label] = presence(BrandExists(text, ownBrands))
	}

	folded := fold(text)
	for _, competitor := range DistinctBrands(competitorBrands) {
		matrix[competitor] = presence(matchesBrand(folded, competitor))
	}
	return matrix
}

// DistinctBrands trims entries and drops blanks and any entry whose folded
// alias group repeats an earlier one. The first spelling wins.
func DistinctBrands(brands []string) []string {
	result := make([]string, 0, len(brands))
	seen := make(map[string]struct{}, len(brands))
	for _, brand := range brands {
		key := brandKey(brand)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, strings.TrimSpace(brand))
	}
	return result
}

// OfficialWebsiteExists reports whether any of the brand websites occurs in text.
func OfficialWebsiteExists(text string, websites []string) bool {
	if text == "" {
		return false
	}
	folded := fold(text)
	for _, website := range websites {
		site := fold(strings.TrimSpace(website))
		if site != "" && strings.Contains(folded, site) {
			return true
		}
	}
	return false
}

// ParseList splits a comma separated form value, dropping blanks.
func ParseList(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func matchesBrand(foldedText, brand string) bool {
	for _, alias := range strings.Split(brand, aliasSeparator) {
		alias = fold(strings.TrimSpace(alias))
		if alias == "" {
			continue
		}
		if strings.Contains(foldedText, alias) {
			return true
		}
	}
	return false
}

func brandKey(brand string) string {
	aliases := strings.Split(brand, aliasSeparator)
	normalized := make([]string, 0, len(aliases))
	for _, alias := range aliases {
		alias = fold(strings.TrimSpace(alias))
		if alias != "" {
			normalized = append(normalized, alias)
		}
	}
	return strings.Join(normalized, aliasSeparator)
}

// fold builds a fresh Caser on every call; Casers are stateful.
func fold(value string) string {
	return cases.Fold().String(value)
}

func presence(ok bool) int {
	if ok {
		return 1
	}
	return 0
}
