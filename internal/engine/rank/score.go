package rank

import (
	"errors"
	"math"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// ScoreStrategy names a composite scoring formula.
type ScoreStrategy string

const (
	// StrategyLogScaled is the legacy formula:
	// (rating^4 * 0.1) * ln(reviewCount * 0.1).
	StrategyLogScaled ScoreStrategy = "log-scaled"
	// StrategyLogPlusOne replaces the log term with ln(reviewCount + 1)
	// so small review counts still contribute.
	StrategyLogPlusOne ScoreStrategy = "log-plus-one"
)

var (
	errEmptyTerm       = errors.New("search term is empty")
	errTermTooLong     = errors.New("search term exceeds 200 characters")
	errUnknownStrategy = errors.New("unknown score strategy")
)

// ParseStrategy validates a strategy name, defaulting to log-scaled
// for the empty string.
func ParseStrategy(s string) (ScoreStrategy, error) {
	switch ScoreStrategy(s) {
	case "":
		return StrategyLogScaled, nil
	case StrategyLogScaled, StrategyLogPlusOne:
		return ScoreStrategy(s), nil
	}
	return "", errUnknownStrategy
}

// Score computes the composite score for a rating and review count.
// Non-finite or negative intermediate results clamp to zero, so a
// business with no reviews never outranks one with any.
func Score(rating float64, reviewCount int, strategy ScoreStrategy) (float64, model.ScoreBreakdown) {
	bd := model.ScoreBreakdown{
		Rating:      rating,
		ReviewCount: reviewCount,
		Formula:     string(strategy),
		HasRating:   rating > 0,
		HasReviews:  reviewCount > 0,
	}

	if rating <= 0 {
		return 0, bd
	}

	var logFactor float64
	switch strategy {
	case StrategyLogPlusOne:
		logFactor = math.Log(float64(reviewCount) + 1)
	default:
		logFactor = math.Log(float64(reviewCount) * 0.1)
	}
	bd.LogFactor = logFactor

	score := (math.Pow(rating, 4) * 0.1) * logFactor
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return 0, bd
	}

	return math.Round(score*100) / 100, bd
}

// Tier maps a composite score to its named quality band.
func Tier(score float64) string {
	switch {
	case score >= 15:
		return model.TierExcellent
	case score >= 10:
		return model.TierVeryGood
	case score >= 7:
		return model.TierGood
	case score >= 4:
		return model.TierAverage
	case score > 0:
		return model.TierBasic
	}
	return model.TierUnrated
}

// QualityIndicators derives human-readable signals from the rating
// and review figures.
func QualityIndicators(rating float64, reviewCount int) []string {
	var out []string
	if rating >= 4.5 {
		out = append(out, model.IndicatorHighRating)
	}
	if reviewCount >= 100 {
		out = append(out, model.IndicatorManyReviews)
	}
	if reviewCount == 0 {
		out = append(out, model.IndicatorNoReviews)
	}
	if rating <= 0 {
		out = append(out, model.IndicatorNoRating)
	}
	return out
}
