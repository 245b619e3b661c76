package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine/geo"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/rank"
	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

// Session is the browser lifecycle the orchestrator drives.
type Session interface {
	Initialize(ctx context.Context) model.InitResult
	Navigate(ctx context.Context, url string) model.NavigationResult
	VerifyStealth(ctx context.Context) (model.StealthReport, error)
	SaveScreenshot(ctx context.Context, name string) string
	Cleanup()
	ID() string
}

// Extractor pulls validated businesses out of the loaded page.
type Extractor interface {
	Extract(ctx context.Context) ([]model.Business, error)
	Stats() model.ExtractionStats
}

// Scroller loads the full result list for the current page.
type Scroller interface {
	Run(ctx context.Context, sink func(model.ScrollProgress)) model.ScrollResult
	Stats() model.ScrollStats
}

// Exporter writes a finished result set out in the requested formats.
type Exporter interface {
	Export(rs model.ResultSet, meta model.ExportMetadata, formats []string) model.ExportOutcome
}

// Config tunes orchestration pacing and scoring.
type Config struct {
	ZoomPause     time.Duration
	LocationPause time.Duration
	Strategy      rank.ScoreStrategy
	Sink          model.ProgressSink
}

func (c Config) withDefaults() Config {
	if c.ZoomPause <= 0 {
		c.ZoomPause = 2 * time.Second
	}
	if c.LocationPause <= 0 {
		c.LocationPause = 3 * time.Second
	}
	if c.Strategy == "" {
		c.Strategy = rank.StrategyLogScaled
	}
	return c
}

// Orchestrator runs a full scan: one browser session swept across
// every location x zoom cell, results merged, ranked, and exported.
type Orchestrator struct {
	session  Session
	extract  Extractor
	scroll   Scroller
	exporter Exporter
	cfg      Config
	log      *log.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
}

func New(s Session, e Extractor, sc Scroller, exp Exporter, cfg Config, logger *log.Logger) *Orchestrator {
	return &Orchestrator{
		session:  s,
		extract:  e,
		scroll:   sc,
		exporter: exp,
		cfg:      cfg.withDefaults(),
		log:      logger,
	}
}

// Stop cancels the active run. The browser session is torn down by
// the run itself as it unwinds.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
	}
}

func (o *Orchestrator) emit(stage model.Stage, progress float64, data map[string]any) {
	if o.cfg.Sink == nil {
		return
	}
	o.cfg.Sink(model.ProgressEvent{
		Stage:     stage,
		Progress:  progress,
		Data:      data,
		SessionID: o.session.ID(),
		Timestamp: time.Now(),
	})
}

// Run executes the scan for term and blocks until it finishes, fails,
// or is cancelled via ctx or Stop.
func (o *Orchestrator) Run(ctx context.Context, term string, opts model.SearchOptions) model.RunResult {
	start := time.Now()
	result := model.RunResult{SearchTerm: term}
	result.Session.StartTime = start

	fail := func(err error) model.RunResult {
		result.Error = err.Error()
		result.SessionID = o.session.ID()
		result.Session.EndTime = time.Now()
		result.Session.Errors = append(result.Session.Errors, err.Error())
		result.Performance.Duration = time.Since(start)
		result.Performance.DurationHuman = time.Since(start).Round(time.Millisecond).String()
		o.emit(model.StageError, -1, map[string]any{"error": err.Error()})
		return result
	}

	if err := rank.ValidateSearchTerm(term); err != nil {
		return fail(err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	o.mu.Lock()
	o.cancel = cancel
	o.mu.Unlock()
	defer cancel()
	defer o.session.Cleanup()

	o.emit(model.StageSessionStarted, 0, map[string]any{"search_term": term})

	o.emit(model.StageInitializingBrowser, 5, nil)
	init := o.session.Initialize(runCtx)
	if !init.Success {
		return fail(fmt.Errorf("browser initialization failed: %s", init.Error))
	}
	result.SessionID = init.SessionID

	if report, err := o.session.VerifyStealth(runCtx); err != nil {
		o.log.Warn("stealth verification failed", "err", err)
	} else if !report.Passed {
		o.log.Warn("stealth checks incomplete", "issues", report.Issues)
		result.Session.Warnings = append(result.Session.Warnings,
			fmt.Sprintf("stealth issues: %v", report.Issues))
	}

	locations := ResolveLocations(opts)
	zooms := ZoomLevelsForRadius(opts.SearchRadius)
	span := 60.0 / float64(len(locations))

	var merged []model.Business
	var scrolling model.ScrollOutcome
	scrolling.Success = true

	for li, loc := range locations {
		if err := runCtx.Err(); err != nil {
			return fail(err)
		}

		base := 15 + float64(li)*span
		cellZooms := zooms
		if loc.Coord == nil {
			cellZooms = []int{0}
		}

		var cellResults []model.Business
		for zi, zoom := range cellZooms {
			if err := runCtx.Err(); err != nil {
				return fail(err)
			}
			cell := cellLabel(loc, zoom)
			url := SearchURL(term, loc.Coord, zoom)

			o.emit(model.StageNavigating, base, map[string]any{"cell": cell, "url": url})
			nav := o.session.Navigate(runCtx, url)
			if !nav.Success {
				o.log.Warn("cell navigation failed", "cell", cell, "err", nav.Error)
				if shot := o.session.SaveScreenshot(runCtx, "nav_failed_"+cell); shot != "" {
					o.log.Info("failure screenshot saved", "path", shot)
				}
				result.Session.Warnings = append(result.Session.Warnings,
					fmt.Sprintf("cell %s: %s", cell, nav.Error))
				continue
			}

			// the initial pass is diagnostic; an empty or failed read
			// here must not cost the cell its scroll cycle
			o.emit(model.StageExtractingInitial, base+2, map[string]any{"cell": cell})
			initial, err := o.extract.Extract(runCtx)
			if err != nil {
				if runCtx.Err() != nil {
					return fail(runCtx.Err())
				}
				o.log.Warn("initial extraction failed", "cell", cell, "err", err)
				result.Session.Warnings = append(result.Session.Warnings,
					fmt.Sprintf("cell %s: %v", cell, err))
				initial = nil
			}

			o.emit(model.StageSmartScrolling, base+4, map[string]any{"cell": cell})
			sres := o.scroll.Run(runCtx, func(p model.ScrollProgress) {
				o.emit(model.StageScrolling, base+4+(p.Progress/100)*4, map[string]any{
					"cell":    cell,
					"attempt": p.Attempt,
				})
			})
			scrolling.Attempts += sres.Attempts
			scrolling.EndDetected = scrolling.EndDetected || sres.EndDetected
			scrolling.Success = scrolling.Success && sres.Success
			if sres.MaxAttemptsReached {
				o.log.Warn("scroll attempt budget exhausted before end of list", "cell", cell)
				result.Session.Warnings = append(result.Session.Warnings,
					fmt.Sprintf("cell %s: scroll budget exhausted before end of list", cell))
			}
			if runCtx.Err() != nil {
				return fail(runCtx.Err())
			}

			o.emit(model.StageExtractingFinal, base+8, map[string]any{"cell": cell})
			final, err := o.extract.Extract(runCtx)
			if err != nil {
				if runCtx.Err() != nil {
					return fail(runCtx.Err())
				}
				o.log.Warn("final extraction failed, keeping initial pass", "cell", cell, "err", err)
				final = nil
			}
			if len(final) == 0 {
				final = initial
			}
			cellResults = append(cellResults, final...)

			if zi < len(cellZooms)-1 {
				if err := pause(runCtx, o.cfg.ZoomPause); err != nil {
					return fail(err)
				}
			}
		}

		if loc.Coord != nil {
			cellResults = tagLocation(cellResults, loc, opts.SearchRadius)
		}
		merged = append(merged, cellResults...)

		if li < len(locations)-1 {
			if err := pause(runCtx, o.cfg.LocationPause); err != nil {
				return fail(err)
			}
		}
	}

	if len(merged) == 0 {
		return fail(fmt.Errorf("no businesses extracted for %q across %d cells", term, CellCount(opts)))
	}

	// the same business surfaces in overlapping cells; collapse on
	// name+address before the fine-grained pass
	merged = rank.Deduplicate(merged, rank.NameAddressKey)

	o.emit(model.StageProcessingResults, 85, map[string]any{"raw": len(merged)})
	var center *model.Coordinate
	if len(locations) == 1 {
		center = locations[0].Coord
	}
	strategy := o.cfg.Strategy
	if opts.ScoreStrategy != "" {
		if s, err := rank.ParseStrategy(opts.ScoreStrategy); err == nil {
			strategy = s
		} else {
			o.log.Warn("unknown score strategy, using default", "strategy", opts.ScoreStrategy)
		}
	}
	rs, procStats := rank.Process(merged, center, opts, strategy)
	result.Results = rs

	if o.exporter != nil && len(opts.ExportFormats) > 0 {
		o.emit(model.StageExportingResults, 95, map[string]any{"formats": opts.ExportFormats})
		result.Export = o.exporter.Export(rs, model.ExportMetadata{
			SessionID:      result.SessionID,
			SearchTerm:     term,
			TotalResults:   rs.Total,
			ScrollAttempts: scrolling.Attempts,
			ExportedAt:     time.Now(),
		}, opts.ExportFormats)
		if !result.Export.Success {
			result.Session.Warnings = append(result.Session.Warnings,
				fmt.Sprintf("export: %s", result.Export.Error))
		}
	}

	result.Success = true
	result.Scrolling = scrolling
	result.Performance = model.Performance{
		Duration:      time.Since(start),
		DurationHuman: time.Since(start).Round(time.Millisecond).String(),
		Extraction:    o.extract.Stats(),
		Scrolling:     o.scroll.Stats(),
		Processing:    procStats,
	}
	result.Session.EndTime = time.Now()

	o.emit(model.StageCompleted, 100, map[string]any{
		"total":    rs.Total,
		"duration": result.Performance.DurationHuman,
	})
	return result
}

// tagLocation stamps every business with the cell's center and drops
// located results outside the radius. Results without coordinates are
// kept; absence of a parsed position is not evidence of distance.
func tagLocation(list []model.Business, loc model.Location, radiusKm float64) []model.Business {
	for i := range list {
		list[i].SearchLocation = loc.Name
		list[i].LocationLat = loc.Coord.Lat
		list[i].LocationLng = loc.Coord.Lng
		if geo.HasPoint(list[i].Lat, list[i].Lng) {
			list[i].DistanceKm = geo.DistanceKm(loc.Coord.Lat, loc.Coord.Lng, list[i].Lat, list[i].Lng)
		}
	}
	if radiusKm <= 0 {
		return list
	}
	return geo.FilterByRadius(list, loc.Coord.Lat, loc.Coord.Lng, radiusKm)
}

func pause(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
