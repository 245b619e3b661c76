package engine

import (
	"fmt"
	"strconv"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// zoomTable maps a search radius in km to the zoom levels scanned for
// it, widest-area level last. Radii without an entry use the default
// three-level sweep.
var zoomTable = map[int][]int{
	2:   {15},
	5:   {15, 14},
	10:  {15, 14, 13},
	20:  {15, 14, 13, 12},
	50:  {15, 14, 13, 12, 11},
	100: {15, 14, 13, 12, 11, 10},
}

var defaultZoomLevels = []int{15, 14, 13}

// ZoomLevelsForRadius returns the zoom sweep for a radius.
func ZoomLevelsForRadius(radiusKm float64) []int {
	if levels, ok := zoomTable[int(radiusKm)]; ok && radiusKm == float64(int(radiusKm)) {
		out := make([]int, len(levels))
		copy(out, levels)
		return out
	}
	out := make([]int, len(defaultZoomLevels))
	copy(out, defaultZoomLevels)
	return out
}

// ResolveLocations expands the search options into the location cells
// to scan. With no coordinates the scan runs once against the plain
// query interface.
func ResolveLocations(opts model.SearchOptions) []model.Location {
	if len(opts.Coordinates) == 0 {
		return []model.Location{{}}
	}
	out := make([]model.Location, 0, len(opts.Coordinates))
	for i := range opts.Coordinates {
		c := opts.Coordinates[i]
		name := c.Label
		if name == "" {
			name = strconv.FormatFloat(c.Lat, 'f', 4, 64) + "," + strconv.FormatFloat(c.Lng, 'f', 4, 64)
		}
		out = append(out, model.Location{Name: name, Coord: &c})
	}
	return out
}

// CellCount is the number of location x zoom cells a scan will visit.
func CellCount(opts model.SearchOptions) int {
	locs := ResolveLocations(opts)
	n := 0
	for _, loc := range locs {
		if loc.Coord == nil {
			n++
			continue
		}
		n += len(ZoomLevelsForRadius(opts.SearchRadius))
	}
	return n
}

func cellLabel(loc model.Location, zoom int) string {
	if loc.Coord == nil {
		return "query"
	}
	return fmt.Sprintf("%s@z%d", loc.Name, zoom)
}
