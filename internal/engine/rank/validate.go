package rank

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// AddressUnavailable is stored when the extracted address text is
// garbage rather than a street address.
const AddressUnavailable = "unavailable"

var (
	digitRunRe   = regexp.MustCompile(`\d+`)
	phoneShapeRe = regexp.MustCompile(`^\(\d{2}\)\s*\d{4,5}-\d{4}`)
	postalRunRe  = regexp.MustCompile(`^\d{8}`)
	numericRe    = regexp.MustCompile(`^\d+$`)
	wordCharRe   = regexp.MustCompile(`[\p{L}\p{N}]`)
	multiSpaceRe = regexp.MustCompile(`\s+`)
)

// ParseRating parses a rating string like "4,5" or "4.5" into a float.
// Returns 0 when the text carries no rating.
func ParseRating(text string) float64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 || v > 5 {
		return 0
	}
	return v
}

// ParseReviewCount pulls the review count out of text like
// "(1.234)" or "234 reviews": the first run of digits wins, with
// thousands separators stripped beforehand.
func ParseReviewCount(text string) int {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", "")
	m := digitRunRe.FindString(s)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// SanitizeAddress normalizes raw address text and replaces junk
// (phone numbers, postal codes, bare numbers) with the unavailable
// sentinel.
func SanitizeAddress(text string) string {
	s := strings.Trim(text, "· \t\n\r")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	switch {
	case s == "":
		return AddressUnavailable
	case numericRe.MatchString(s):
		return AddressUnavailable
	case phoneShapeRe.MatchString(s):
		return AddressUnavailable
	case postalRunRe.MatchString(s):
		return AddressUnavailable
	case !wordCharRe.MatchString(s):
		return AddressUnavailable
	case len(s) < 5:
		return AddressUnavailable
	}
	return s
}

// ValidateCandidate converts a raw extraction candidate into a
// Business, rejecting entries with no name or with neither a rating
// nor any review signal.
func ValidateCandidate(c model.Candidate) (model.Business, bool) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return model.Business{}, false
	}

	rating := ParseRating(c.RatingText)
	reviews := ParseReviewCount(c.ReviewsText)

	if rating <= 0 && reviews <= 0 && strings.TrimSpace(c.ReviewsText) == "" {
		return model.Business{}, false
	}

	return model.Business{
		Name:        name,
		Rating:      rating,
		ReviewCount: reviews,
		ReviewsText: strings.TrimSpace(c.ReviewsText),
		Address:     SanitizeAddress(c.AddressText),
		Link:        strings.TrimSpace(c.Link),
		Lat:         c.Lat,
		Lng:         c.Lng,
	}, true
}

// ValidateAll filters a candidate batch, tracking attempt and
// failure counts.
func ValidateAll(cands []model.Candidate, stats *model.ExtractionStats) []model.Business {
	out := make([]model.Business, 0, len(cands))
	for _, c := range cands {
		if stats != nil {
			stats.Attempts++
		}
		b, ok := ValidateCandidate(c)
		if !ok {
			if stats != nil {
				stats.ValidationFailures++
			}
			continue
		}
		if stats != nil {
			stats.Successes++
		}
		out = append(out, b)
	}
	return out
}

// ValidateSearchTerm rejects empty or overly long search terms before
// a session is ever started.
func ValidateSearchTerm(term string) error {
	t := strings.TrimSpace(term)
	if t == "" {
		return errEmptyTerm
	}
	if len(t) > 200 {
		return errTermTooLong
	}
	return nil
}
