package model

// Tier labels assigned from the composite score.
const (
	TierExcellent = "Excellent"
	TierVeryGood  = "Very Good"
	TierGood      = "Good"
	TierAverage   = "Average"
	TierBasic     = "Basic"
	TierUnrated   = "Unrated"
)

// Quality indicators attached to a business. Additive, not exclusive.
const (
	IndicatorHighRating  = "high rating"
	IndicatorManyReviews = "many reviews"
	IndicatorNoReviews   = "no reviews"
	IndicatorNoRating    = "no rating"
)

// Candidate is an unvalidated record pulled straight from the rendered
// result list. Consumed immediately by validation.
type Candidate struct {
	Name        string  `json:"name"`
	RatingText  string  `json:"rating"`
	ReviewsText string  `json:"reviews"`
	Link        string  `json:"link"`
	AddressText string  `json:"address"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`
}

// ScoreBreakdown explains how a composite score was computed.
type ScoreBreakdown struct {
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	LogFactor   float64 `json:"log_factor"`
	Formula     string  `json:"formula"`
	HasRating   bool    `json:"has_rating"`
	HasReviews  bool    `json:"has_reviews"`
}

// Business is a validated, scored, ranked output unit.
type Business struct {
	Name        string  `json:"name"`
	Rating      float64 `json:"rating"`
	ReviewCount int     `json:"review_count"`
	ReviewsText string  `json:"reviews_text,omitempty"`
	Address     string  `json:"address"`
	Link        string  `json:"link,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lng         float64 `json:"lng,omitempty"`

	// Origin of the scrape cell that produced this record.
	SearchLocation string  `json:"search_location,omitempty"`
	LocationLat    float64 `json:"location_lat,omitempty"`
	LocationLng    float64 `json:"location_lng,omitempty"`
	DistanceKm     float64 `json:"distance_km,omitempty"`

	CompositeScore    float64        `json:"composite_score"`
	ScoreBreakdown    ScoreBreakdown `json:"score_breakdown"`
	Tier              string         `json:"tier"`
	QualityIndicators []string       `json:"quality_indicators,omitempty"`
	Rank              int            `json:"rank"`
}

// Coordinate is a resolved search origin. Label is free text, usually the
// address the user picked from the lookup delegate.
type Coordinate struct {
	Label   string  `json:"label,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	City    string  `json:"city,omitempty"`
	State   string  `json:"state,omitempty"`
	Country string  `json:"country,omitempty"`
}

// Location is one named search origin resolved from SearchOptions.
// Coord is nil for the default (unpositioned) location.
type Location struct {
	Name  string
	Coord *Coordinate
}

// SearchOptions holds the normalized per-run configuration.
type SearchOptions struct {
	MinRating     float64
	MinReviews    int
	Limit         int
	ExportFormats []string
	SearchRadius  float64 // km, keys the zoom-level table
	Coordinates   []Coordinate
	ScoreStrategy string
	KeepDupes     bool // skip the normalized-name dedup pass
}

// Summary aggregates statistics over a final result set.
type Summary struct {
	Total             int            `json:"total"`
	AvgRating         float64        `json:"avg_rating"`
	AvgReviews        float64        `json:"avg_reviews"`
	AvgCompositeScore float64        `json:"avg_composite_score"`
	TierDistribution  map[string]int `json:"tier_distribution"`
	Quality           QualityMetrics `json:"quality_metrics"`
}

// QualityMetrics are the quality sub-counts of a Summary.
type QualityMetrics struct {
	WithRatings  int `json:"with_ratings"`
	WithReviews  int `json:"with_reviews"`
	HighRated    int `json:"high_rated"`    // rating >= 4.0
	WellReviewed int `json:"well_reviewed"` // reviews >= 20
}
