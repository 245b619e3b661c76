package engine

import (
	"net/url"
	"strconv"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

const mapsBase = "https://www.google.com/maps"

// SearchURL builds the Maps URL for one search cell. With a
// coordinate the viewport is pinned to it at the given zoom;
// without one the plain query interface is used.
func SearchURL(term string, coord *model.Coordinate, zoom int) string {
	if coord == nil {
		return mapsBase + "/search/?api=1&query=" + url.QueryEscape(term)
	}
	lat := strconv.FormatFloat(coord.Lat, 'f', -1, 64)
	lng := strconv.FormatFloat(coord.Lng, 'f', -1, 64)
	return mapsBase + "/@" + lat + "," + lng + "," + strconv.Itoa(zoom) + "z/search/" + url.PathEscape(term)
}
