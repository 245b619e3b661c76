package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

var unsafeNameRe = regexp.MustCompile(`[^a-z0-9]+`)

// Filename builds the timestamped export name for a search term.
func Filename(term, format string, ts time.Time) string {
	slug := unsafeNameRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(term)), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "results"
	}
	return fmt.Sprintf("%s_%s.%s", slug, ts.Format("2006-01-02_15-04-05"), format)
}

// Manager writes finished result sets to disk. It satisfies the
// orchestrator's Exporter dependency.
type Manager struct {
	dir string
	log *log.Logger
}

func NewManager(dir string, logger *log.Logger) *Manager {
	return &Manager{dir: dir, log: logger}
}

type jsonPayload struct {
	Metadata   model.ExportMetadata `json:"metadata"`
	Summary    model.Summary        `json:"summary"`
	Businesses []model.Business     `json:"businesses"`
}

// Export writes rs once per requested format. A failed format does
// not abort the others; the outcome carries per-format results.
func (m *Manager) Export(rs model.ResultSet, meta model.ExportMetadata, formats []string) model.ExportOutcome {
	outcome := model.ExportOutcome{Files: make(map[string]model.ExportFile, len(formats))}

	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		outcome.Error = fmt.Sprintf("creating export directory: %v", err)
		return outcome
	}

	ts := meta.ExportedAt
	if ts.IsZero() {
		ts = time.Now()
	}

	anyOK := false
	for _, format := range formats {
		format = strings.ToLower(strings.TrimSpace(format))
		name := Filename(meta.SearchTerm, format, ts)
		path := filepath.Join(m.dir, name)

		var err error
		switch format {
		case "json":
			err = m.writeJSON(path, rs, meta)
		case "csv":
			err = m.writeCSV(path, rs)
		default:
			err = fmt.Errorf("unsupported format %q", format)
		}

		file := model.ExportFile{Count: rs.Total}
		if err != nil {
			file.Error = err.Error()
			m.log.Error("export failed", "format", format, "err", err)
		} else {
			file.Success = true
			file.Path = path
			file.Filename = name
			anyOK = true
			m.log.Info("export written", "format", format, "path", path, "count", rs.Total)
		}
		outcome.Files[format] = file
	}

	outcome.Success = anyOK
	if !anyOK {
		outcome.Error = "no export format succeeded"
	}
	return outcome
}

func (m *Manager) writeJSON(path string, rs model.ResultSet, meta model.ExportMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(jsonPayload{
		Metadata:   meta,
		Summary:    rs.Summary,
		Businesses: rs.Businesses,
	}); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return nil
}

var csvHeader = []string{
	"rank", "name", "rating", "review_count", "composite_score", "tier",
	"address", "search_location", "distance_km", "link",
}

func (m *Manager) writeCSV(path string, rs model.ResultSet) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, b := range rs.Businesses {
		distance := ""
		if b.DistanceKm > 0 {
			distance = strconv.FormatFloat(b.DistanceKm, 'f', 2, 64)
		}
		row := []string{
			strconv.Itoa(b.Rank),
			b.Name,
			strconv.FormatFloat(b.Rating, 'f', 1, 64),
			strconv.Itoa(b.ReviewCount),
			strconv.FormatFloat(b.CompositeScore, 'f', 2, 64),
			b.Tier,
			b.Address,
			b.SearchLocation,
			distance,
			b.Link,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("writing row %d: %w", b.Rank, err)
		}
	}
	w.Flush()
	return w.Error()
}

// WriteSessionSummary drops a compact JSON recap of the whole run
// next to the exports.
func (m *Manager) WriteSessionSummary(res model.RunResult) (string, error) {
	if err := os.MkdirAll(m.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating export directory: %w", err)
	}

	name := Filename(res.SearchTerm+"_session", "json", res.Session.EndTime)
	path := filepath.Join(m.dir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(struct {
		SessionID   string              `json:"session_id"`
		SearchTerm  string              `json:"search_term"`
		Success     bool                `json:"success"`
		Summary     model.Summary       `json:"summary"`
		Scrolling   model.ScrollOutcome `json:"scrolling"`
		Performance model.Performance   `json:"performance"`
		Session     model.SessionInfo   `json:"session"`
	}{
		SessionID:   res.SessionID,
		SearchTerm:  res.SearchTerm,
		Success:     res.Success,
		Summary:     res.Results.Summary,
		Scrolling:   res.Scrolling,
		Performance: res.Performance,
		Session:     res.Session,
	}); err != nil {
		return "", fmt.Errorf("encoding %s: %w", path, err)
	}

	m.log.Info("session summary written", "path", path)
	return path, nil
}
