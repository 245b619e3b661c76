package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/engine/rank"
	"github.com/pedrogrisolia/maps-business-finder/internal/engine/storage"
	"github.com/pedrogrisolia/maps-business-finder/internal/export"
	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func runExport(args []string) error {
	var dbPath, term, outputDir, formatsStr string

	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.StringVar(&dbPath, "db", "", "Path to .db file (required)")
	fs.StringVar(&term, "term", "", "Search term to export (required)")
	fs.StringVar(&outputDir, "output", ".", "Output directory")
	fs.StringVar(&formatsStr, "formats", "csv", "Comma-separated formats: json,csv")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bizfinder export [flags]\n\nFlags:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bizfinder export -db ./results/scans.db -term pizza\n")
		fmt.Fprintf(os.Stderr, "  bizfinder export -db scans.db -term oficina -formats json,csv -output ./out\n")
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if dbPath == "" {
		return fmt.Errorf("-db is required")
	}
	if term == "" {
		return fmt.Errorf("-term is required")
	}

	store, err := storage.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("opening db: %w", err)
	}
	defer store.Close()

	businesses, err := store.LoadByTerm(term)
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}
	if len(businesses) == 0 {
		return fmt.Errorf("no stored results for %q", term)
	}

	rs := model.ResultSet{
		Businesses: businesses,
		Summary:    rank.Summarize(businesses),
		Total:      len(businesses),
	}

	manager := export.NewManager(outputDir, log.New(io.Discard))
	outcome := manager.Export(rs, model.ExportMetadata{
		SearchTerm:   term,
		TotalResults: rs.Total,
		ExportedAt:   time.Now(),
	}, splitList(formatsStr))

	if !outcome.Success {
		return fmt.Errorf("export failed: %s", outcome.Error)
	}
	for format, f := range outcome.Files {
		if f.Success {
			fmt.Fprintf(os.Stderr, "Exported %d businesses to %s (%s)\n", f.Count, f.Path, format)
		} else {
			fmt.Fprintf(os.Stderr, "Format %s failed: %s\n", format, f.Error)
		}
	}
	return nil
}
