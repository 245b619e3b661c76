package rank

import (
	"sort"
	"strings"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine/geo"
	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// Process runs the full post-extraction pipeline over a merged result
// list: fine-grained dedup, score and tier enrichment, distance
// enrichment against the search center, descending sort with rank
// assignment, quality filtering, and the result limit.
func Process(list []model.Business, center *model.Coordinate, opts model.SearchOptions, strategy ScoreStrategy) (model.ResultSet, model.ProcessingStats) {
	stats := model.ProcessingStats{TotalProcessed: len(list)}

	if !opts.KeepDupes {
		before := len(list)
		list = Deduplicate(list, func(b model.Business) string {
			return NormalizedNameKey(b.Name)
		})
		stats.Deduplicated = before - len(list)
	}

	for i := range list {
		b := &list[i]
		b.CompositeScore, b.ScoreBreakdown = Score(b.Rating, b.ReviewCount, strategy)
		b.Tier = Tier(b.CompositeScore)
		b.QualityIndicators = QualityIndicators(b.Rating, b.ReviewCount)
		if center != nil {
			b.SearchLocation = center.Label
			b.LocationLat = center.Lat
			b.LocationLng = center.Lng
			if geo.HasPoint(b.Lat, b.Lng) {
				b.DistanceKm = geo.DistanceKm(center.Lat, center.Lng, b.Lat, b.Lng)
			}
		}
		stats.Enriched++
	}

	sort.SliceStable(list, func(i, j int) bool {
		if list[i].CompositeScore != list[j].CompositeScore {
			return list[i].CompositeScore > list[j].CompositeScore
		}
		if list[i].Rating != list[j].Rating {
			return list[i].Rating > list[j].Rating
		}
		if list[i].ReviewCount != list[j].ReviewCount {
			return list[i].ReviewCount > list[j].ReviewCount
		}
		return strings.ToLower(list[i].Name) < strings.ToLower(list[j].Name)
	})
	stats.Sorted = len(list)

	// ranks are assigned before filtering; a filtered list keeps the
	// surviving records' original positions
	for i := range list {
		list[i].Rank = i + 1
	}

	filtered := list[:0]
	for _, b := range list {
		if opts.MinRating > 0 && b.Rating < opts.MinRating {
			continue
		}
		if opts.MinReviews > 0 && b.ReviewCount < opts.MinReviews {
			continue
		}
		filtered = append(filtered, b)
	}
	stats.Filtered = len(list) - len(filtered)
	list = filtered

	if center != nil && opts.SearchRadius > 0 {
		list = geo.FilterByRadius(list, center.Lat, center.Lng, opts.SearchRadius)
	}

	if opts.Limit > 0 && len(list) > opts.Limit {
		list = list[:opts.Limit]
	}

	return model.ResultSet{
		Businesses: list,
		Summary:    Summarize(list),
		Total:      len(list),
	}, stats
}
