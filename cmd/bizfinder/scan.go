package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/browser"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/extract"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/geo"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/rank"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/scroll"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/storage"
	"github.com/pedrogrisolia/maps-business-finder/internal/export"
	"github.com/pedrogrisolia/maps-business-finder/internal/model"
	"github.com/pedrogrisolia/maps-business-finder/internal/tui"
)

func runScan(args []string) error {
	var (
		query      string
		coordsStr  string
		locate     string
		radius     float64
		minRating  float64
		minReviews int
		limit      int
		formatsStr string
		outputDir  string
		dbPath     string
		headless   bool
		strategy   string
		useTUI     bool
		keepDupes  bool
		maxScrolls int
	)

	fs := flag.NewFlagSet("scan", flag.ExitOnError)
	fs.StringVar(&query, "query", "", "Search term (required)")
	fs.StringVar(&coordsStr, "coords", "", "Search centers as \"lat,lng[;lat,lng...]\"")
	fs.StringVar(&locate, "locate", "", "Resolve a free-text address to a search center")
	fs.Float64Var(&radius, "radius", 0, "Search radius in km (selects the zoom sweep)")
	fs.Float64Var(&minRating, "min-rating", 0, "Minimum star rating filter")
	fs.IntVar(&minReviews, "min-reviews", 0, "Minimum review count filter")
	fs.IntVar(&limit, "limit", 0, "Maximum number of ranked results (0 = all)")
	fs.StringVar(&formatsStr, "formats", "json", "Comma-separated export formats: json,csv")
	fs.StringVar(&outputDir, "output", "./results", "Output directory for exports and logs")
	fs.StringVar(&dbPath, "db", "", "Persist ranked results to this SQLite file")
	fs.BoolVar(&headless, "headless", true, "Run Chrome headless")
	fs.StringVar(&strategy, "strategy", "", "Score strategy: log-scaled (default) or log-plus-one")
	fs.BoolVar(&useTUI, "tui", false, "Show fullscreen progress UI")
	fs.BoolVar(&keepDupes, "keep-dupes", false, "Skip name-based deduplication")
	fs.IntVar(&maxScrolls, "max-scrolls", 0, "Scroll attempt cap per cell (default 50)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bizfinder scan [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bizfinder scan -query \"pizza artesanal\"\n")
		fmt.Fprintf(os.Stderr, "  bizfinder scan -query oficina -coords \"-23.5505,-46.6333\" -radius 10 -formats json,csv\n")
		fmt.Fprintf(os.Stderr, "  bizfinder scan -query padaria -locate \"Copacabana, Rio de Janeiro\" -radius 5 -tui\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := rank.ValidateSearchTerm(query); err != nil {
		return err
	}
	scoreStrategy, err := rank.ParseStrategy(strategy)
	if err != nil {
		return fmt.Errorf("%w: %s", err, strategy)
	}

	coords, err := parseCoords(coordsStr)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("bizfinder_%s.log", time.Now().Format("20060102_150405")))
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logFile.Close()

	logger := log.NewWithOptions(logFile, log.Options{
		ReportTimestamp: true,
		Level:           log.DebugLevel,
	})
	fmt.Fprintf(os.Stderr, "Log: %s\n", logPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if locate != "" {
		lookup := geo.NewLookupClient()
		found, err := lookup.Search(ctx, locate, 1)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", locate, err)
		}
		logger.Info("location resolved", "query", locate, "label", found[0].Label)
		fmt.Fprintf(os.Stderr, "Location: %s (%.4f, %.4f)\n", found[0].Label, found[0].Lat, found[0].Lng)
		coords = append(coords, found[0])
	}

	opts := model.SearchOptions{
		MinRating:     minRating,
		MinReviews:    minReviews,
		Limit:         limit,
		ExportFormats: splitList(formatsStr),
		SearchRadius:  radius,
		Coordinates:   coords,
		ScoreStrategy: string(scoreStrategy),
		KeepDupes:     keepDupes,
	}

	var geoMock *model.Coordinate
	if len(coords) > 0 {
		geoMock = &coords[0]
	}
	session := browser.NewSession(browser.Config{
		Headless:      headless,
		Geolocation:   geoMock,
		ScreenshotDir: filepath.Join(outputDir, "screenshots"),
	}, logger)

	extractor := extract.New(session, logger)
	scroller := scroll.New(session, scroll.Config{MaxAttempts: maxScrolls}, logger)
	exporter := export.NewManager(outputDir, logger)

	newOrchestrator := func(sink model.ProgressSink) *engine.Orchestrator {
		return engine.New(session, extractor, scroller, exporter, engine.Config{
			Strategy: scoreStrategy,
			Sink:     sink,
		}, logger)
	}

	var result model.RunResult
	if useTUI {
		result, err = tui.Run(query, func(runCtx context.Context, sink model.ProgressSink) model.RunResult {
			return newOrchestrator(sink).Run(runCtx, query, opts)
		})
		if err != nil {
			return err
		}
	} else {
		result = runHeadless(ctx, newOrchestrator, query, opts)
	}

	if _, err := exporter.WriteSessionSummary(result); err != nil {
		logger.Warn("session summary not written", "err", err)
	}

	if !result.Success {
		return fmt.Errorf("scan failed: %s", result.Error)
	}

	if dbPath != "" {
		store, err := storage.NewStore(dbPath)
		if err != nil {
			return fmt.Errorf("opening db: %w", err)
		}
		n, err := store.InsertBatch(result.SessionID, query, result.Results.Businesses)
		store.Close()
		if err != nil {
			return fmt.Errorf("persisting results: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Stored %d businesses in %s\n", n, dbPath)
	}

	printSummary(result)
	return nil
}

func runHeadless(ctx context.Context, build func(model.ProgressSink) *engine.Orchestrator, query string, opts model.SearchOptions) model.RunResult {
	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	spin.Suffix = " starting"
	spin.Start()
	defer spin.Stop()

	o := build(func(e model.ProgressEvent) {
		spin.Suffix = fmt.Sprintf(" %s (%.0f%%)", strings.ReplaceAll(string(e.Stage), "_", " "), e.Progress)
	})
	return o.Run(ctx, query, opts)
}

func printSummary(res model.RunResult) {
	s := res.Results.Summary
	fmt.Printf("\n%q: %d businesses in %s\n", res.SearchTerm, s.Total, res.Performance.DurationHuman)
	fmt.Printf("  avg rating %.2f, avg reviews %.0f, avg score %.2f\n", s.AvgRating, s.AvgReviews, s.AvgCompositeScore)
	if len(s.TierDistribution) > 0 {
		fmt.Print("  tiers:")
		for _, tier := range []string{
			model.TierExcellent, model.TierVeryGood, model.TierGood,
			model.TierAverage, model.TierBasic, model.TierUnrated,
		} {
			if n := s.TierDistribution[tier]; n > 0 {
				fmt.Printf(" %s=%d", tier, n)
			}
		}
		fmt.Println()
	}

	top := res.Results.Businesses
	if len(top) > 10 {
		top = top[:10]
	}
	for _, b := range top {
		fmt.Printf("  %2d. %-40s %.1f (%d) score=%.2f %s\n",
			b.Rank, b.Name, b.Rating, b.ReviewCount, b.CompositeScore, b.Tier)
	}

	for format, f := range res.Export.Files {
		if f.Success {
			fmt.Printf("  %s: %s\n", format, f.Path)
		}
	}
	if len(res.Session.Warnings) > 0 {
		fmt.Printf("  %d warnings, see log\n", len(res.Session.Warnings))
	}
}

func parseCoords(s string) ([]model.Coordinate, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []model.Coordinate
	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(strings.TrimSpace(pair), ",")
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid coordinate %q, want \"lat,lng\"", pair)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid latitude in %q", pair)
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid longitude in %q", pair)
		}
		if !geo.ValidCoordinate(lat, lng) {
			return nil, fmt.Errorf("coordinate %q out of range", pair)
		}
		out = append(out, model.Coordinate{Lat: lat, Lng: lng})
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, v := range strings.Split(s, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
