package extract

import (
	"regexp"
	"strconv"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine/geo"
)

// Maps embeds place coordinates in result links in a few shapes; the
// data-parameter form is preferred over the viewport anchor.
var coordPatterns = []*regexp.Regexp{
	regexp.MustCompile(`!3d(-?\d+\.?\d*).*?!4d(-?\d+\.?\d*)`),
	regexp.MustCompile(`3d(-?\d+\.?\d*).*?4d(-?\d+\.?\d*)`),
	regexp.MustCompile(`@(-?\d+\.?\d*),(-?\d+\.?\d*)`),
}

// ParseCoordinates extracts a lat/lng pair from a result link.
// Returns zeroes and false when no valid pair is present.
func ParseCoordinates(link string) (lat, lng float64, ok bool) {
	if link == "" {
		return 0, 0, false
	}
	for _, re := range coordPatterns {
		m := re.FindStringSubmatch(link)
		if m == nil {
			continue
		}
		la, errLa := strconv.ParseFloat(m[1], 64)
		ln, errLn := strconv.ParseFloat(m[2], 64)
		if errLa != nil || errLn != nil {
			continue
		}
		if !geo.ValidCoordinate(la, ln) {
			continue
		}
		return la, ln, true
	}
	return 0, 0, false
}
