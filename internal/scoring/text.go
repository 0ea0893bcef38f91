package scoring

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds case and Unicode composition so that amenity and city
// strings compare independently of how they were entered.
func Normalize(s string) string {
	folded := cases.Fold().String(norm.NFKC.String(s))
	return strings.Join(strings.Fields(folded), " ")
}

// AmenitySet is a set of normalized amenity names.
type AmenitySet struct {
	raw        []string
	normalized []string
}

func NewAmenitySet(amenities []string) AmenitySet {
	set := AmenitySet{
		raw:        make([]string, 0, len(amenities)),
		normalized: make([]string, 0, len(amenities)),
	}
	for _, a := range amenities {
		n := Normalize(a)
		if n == "" {
			continue
		}
		set.raw = append(set.raw, a)
		set.normalized = append(set.normalized, n)
	}
	return set
}

// Match returns the first amenity whose normalized form contains the
// normalized needle. Empty needles never match.
func (s AmenitySet) Match(needle string) (string, bool) {
	n := Normalize(needle)
	if n == "" {
		return "", false
	}
	for i, candidate := range s.normalized {
		if strings.Contains(candidate, n) {
			return s.raw[i], true
		}
	}
	return "", false
}

func sameFold(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
