package rank

import (
	"math"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// Summarize computes aggregate statistics over a ranked result list.
func Summarize(list []model.Business) model.Summary {
	s := model.Summary{
		Total:            len(list),
		TierDistribution: map[string]int{},
	}
	if len(list) == 0 {
		return s
	}

	// averages run over the positive populations only; unrated and
	// unreviewed records must not drag the means toward zero
	var ratingSum, scoreSum float64
	var reviewSum, scored int
	for _, b := range list {
		s.TierDistribution[b.Tier]++

		if b.Rating > 0 {
			s.Quality.WithRatings++
			ratingSum += b.Rating
			if b.Rating >= 4.0 {
				s.Quality.HighRated++
			}
		}
		if b.ReviewCount > 0 {
			s.Quality.WithReviews++
			reviewSum += b.ReviewCount
			if b.ReviewCount >= 20 {
				s.Quality.WellReviewed++
			}
		}
		if b.CompositeScore > 0 {
			scored++
			scoreSum += b.CompositeScore
		}
	}

	if s.Quality.WithRatings > 0 {
		s.AvgRating = round1(ratingSum / float64(s.Quality.WithRatings))
	}
	if s.Quality.WithReviews > 0 {
		s.AvgReviews = math.Round(float64(reviewSum) / float64(s.Quality.WithReviews))
	}
	if scored > 0 {
		s.AvgCompositeScore = round2(scoreSum / float64(scored))
	}
	return s
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
