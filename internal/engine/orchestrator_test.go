package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

type fakeSession struct {
	initFail  bool
	navFailAt int // 1-based navigation index that fails; 0 = never
	navs      []string
	shots     []string
	cleanups  int
}

func (f *fakeSession) Initialize(context.Context) model.InitResult {
	if f.initFail {
		return model.InitResult{Error: "chrome not found"}
	}
	return model.InitResult{Success: true, SessionID: "session_test"}
}

func (f *fakeSession) Navigate(_ context.Context, url string) model.NavigationResult {
	f.navs = append(f.navs, url)
	if f.navFailAt > 0 && len(f.navs) == f.navFailAt {
		return model.NavigationResult{Error: "consent wall"}
	}
	return model.NavigationResult{Success: true, Title: "pizza - Google Maps", URL: url}
}

func (f *fakeSession) VerifyStealth(context.Context) (model.StealthReport, error) {
	return model.StealthReport{Passed: true, WebdriverHidden: true, PluginCount: 5, ChromeRuntime: true}, nil
}

func (f *fakeSession) SaveScreenshot(_ context.Context, name string) string {
	f.shots = append(f.shots, name)
	return ""
}

func (f *fakeSession) Cleanup()   { f.cleanups++ }
func (f *fakeSession) ID() string { return "session_test" }

type fakeExtractor struct {
	batches  [][]model.Business
	fallback []model.Business
	failAt   int // 1-based call index that errors; 0 = never
	calls    int
}

func (f *fakeExtractor) Extract(ctx context.Context) ([]model.Business, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.calls++
	if f.failAt > 0 && f.calls == f.failAt {
		return nil, errors.New("page read failed")
	}
	if len(f.batches) == 0 {
		return f.fallback, nil
	}
	b := f.batches[0]
	f.batches = f.batches[1:]
	return b, nil
}

func (f *fakeExtractor) Stats() model.ExtractionStats {
	return model.ExtractionStats{Attempts: f.calls}
}

type fakeScroller struct {
	result model.ScrollResult
	runs   int
	onRun  func()
}

func (f *fakeScroller) Run(_ context.Context, sink func(model.ScrollProgress)) model.ScrollResult {
	f.runs++
	if f.onRun != nil {
		f.onRun()
	}
	if sink != nil {
		sink(model.ScrollProgress{Attempt: 1, MaxAttempts: 50, Progress: 50})
	}
	return f.result
}

func (f *fakeScroller) Stats() model.ScrollStats {
	return model.ScrollStats{TotalScrolls: f.runs}
}

type fakeExporter struct {
	formats []string
	meta    model.ExportMetadata
}

func (f *fakeExporter) Export(_ model.ResultSet, meta model.ExportMetadata, formats []string) model.ExportOutcome {
	f.formats = formats
	f.meta = meta
	return model.ExportOutcome{Success: true, Files: map[string]model.ExportFile{}}
}

func fastConfig(sink model.ProgressSink) Config {
	return Config{
		ZoomPause:     time.Millisecond,
		LocationPause: time.Millisecond,
		Sink:          sink,
	}
}

func nopLogger() *log.Logger {
	return log.New(io.Discard)
}

func TestRunEndToEnd(t *testing.T) {
	session := &fakeSession{}
	extractor := &fakeExtractor{batches: [][]model.Business{
		{{Name: "Pizzaria Bella", Rating: 4.7, ReviewCount: 412}},
		{
			{Name: "Pizzaria Bella", Rating: 4.7, ReviewCount: 412, Address: "Rua A, 1"},
			{Name: "PIZZARIA BELLA", Rating: 4.7, ReviewCount: 412, Address: "rua a, 1"},
			{Name: "Cantina Roma", Rating: 4.2, ReviewCount: 130, Address: "Rua B, 2"},
		},
	}}
	scroller := &fakeScroller{result: model.ScrollResult{
		Success: true, EndDetected: true, Attempts: 7, Outcome: model.ScrollEndDetected,
	}}
	exporter := &fakeExporter{}

	var events []model.ProgressEvent
	o := New(session, extractor, scroller, exporter, fastConfig(func(e model.ProgressEvent) {
		events = append(events, e)
	}), nopLogger())

	res := o.Run(context.Background(), "pizza", model.SearchOptions{ExportFormats: []string{"json"}})

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, "session_test", res.SessionID)
	require.Equal(t, 2, res.Results.Total)
	assert.Equal(t, "Pizzaria Bella", res.Results.Businesses[0].Name)
	assert.Equal(t, 1, res.Results.Businesses[0].Rank)
	assert.Equal(t, 2, res.Results.Businesses[1].Rank)

	assert.True(t, res.Scrolling.EndDetected)
	assert.Equal(t, 7, res.Scrolling.Attempts)
	assert.Equal(t, 1, session.cleanups)
	assert.Equal(t, []string{"json"}, exporter.formats)
	assert.Equal(t, "pizza", exporter.meta.SearchTerm)

	// one cell: initial and final extraction passes
	assert.Equal(t, 2, extractor.calls)
	require.Len(t, session.navs, 1)
	assert.Contains(t, session.navs[0], "search/?api=1&query=pizza")

	stages := make([]model.Stage, 0, len(events))
	for _, e := range events {
		stages = append(stages, e.Stage)
	}
	for _, want := range []model.Stage{
		model.StageSessionStarted,
		model.StageInitializingBrowser,
		model.StageNavigating,
		model.StageExtractingInitial,
		model.StageSmartScrolling,
		model.StageExtractingFinal,
		model.StageProcessingResults,
		model.StageExportingResults,
		model.StageCompleted,
	} {
		assert.Contains(t, stages, want)
	}

	last := events[len(events)-1]
	assert.Equal(t, model.StageCompleted, last.Stage)
	assert.Equal(t, 100.0, last.Progress)
	for i := 1; i < len(events); i++ {
		if events[i].Progress < 0 {
			continue
		}
		assert.GreaterOrEqual(t, events[i].Progress, events[i-1].Progress,
			"stage %s regressed", events[i].Stage)
	}
}

func TestRunRejectsInvalidTerm(t *testing.T) {
	session := &fakeSession{}
	o := New(session, &fakeExtractor{}, &fakeScroller{}, nil, fastConfig(nil), nopLogger())
	res := o.Run(context.Background(), "   ", model.SearchOptions{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "empty")
	assert.Empty(t, session.navs)
}

func TestRunBrowserInitFailure(t *testing.T) {
	o := New(&fakeSession{initFail: true}, &fakeExtractor{}, &fakeScroller{}, nil, fastConfig(nil), nopLogger())
	res := o.Run(context.Background(), "pizza", model.SearchOptions{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "chrome not found")
}

func TestRunCellIsolation(t *testing.T) {
	// two locations at radius 2 (one zoom each); the first cell's
	// navigation fails but the second still delivers
	session := &fakeSession{navFailAt: 1}
	extractor := &fakeExtractor{batches: [][]model.Business{
		{{Name: "Oficina Norte", Rating: 4.1, ReviewCount: 55, Lat: -23.551, Lng: -46.634}},
		{{Name: "Oficina Norte", Rating: 4.1, ReviewCount: 55, Lat: -23.551, Lng: -46.634}},
	}}
	o := New(session, extractor, &fakeScroller{result: model.ScrollResult{Success: true}}, nil,
		fastConfig(nil), nopLogger())

	res := o.Run(context.Background(), "oficina", model.SearchOptions{
		SearchRadius: 2,
		Coordinates: []model.Coordinate{
			{Label: "Zona Sul", Lat: -22.9068, Lng: -43.1729},
			{Label: "Centro SP", Lat: -23.5505, Lng: -46.6333},
		},
	})

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Len(t, session.navs, 2)
	assert.Equal(t, []string{"nav_failed_Zona Sul@z15"}, session.shots)
	require.Equal(t, 1, res.Results.Total)
	assert.Equal(t, "Centro SP", res.Results.Businesses[0].SearchLocation)
	assert.NotEmpty(t, res.Session.Warnings)
}

func TestRunStopCancels(t *testing.T) {
	session := &fakeSession{}
	scroller := &fakeScroller{result: model.ScrollResult{Success: true}}
	var o *Orchestrator
	scroller.onRun = func() { o.Stop() }
	o = New(session, &fakeExtractor{}, scroller, nil, fastConfig(nil), nopLogger())

	res := o.Run(context.Background(), "pizza", model.SearchOptions{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, context.Canceled.Error())
	assert.Equal(t, 1, session.cleanups, "session torn down on cancellation")
}

func TestRunMultiZoomNavigatesEveryCell(t *testing.T) {
	session := &fakeSession{}
	extractor := &fakeExtractor{fallback: []model.Business{
		{Name: "Padaria Imperial", Rating: 4.6, ReviewCount: 310, Address: "Rua da Carioca, 10"},
	}}
	o := New(session, extractor, &fakeScroller{result: model.ScrollResult{Success: true}}, nil,
		fastConfig(nil), nopLogger())

	res := o.Run(context.Background(), "padaria", model.SearchOptions{
		SearchRadius: 20,
		Coordinates:  []model.Coordinate{{Label: "Centro", Lat: -22.9068, Lng: -43.1729}},
	})

	require.True(t, res.Success)
	require.Len(t, session.navs, 4)
	for i, zoom := range []string{"15z", "14z", "13z", "12z"} {
		assert.True(t, strings.Contains(session.navs[i], zoom), "nav %d should pin %s", i, zoom)
	}
}

func TestRunInitialExtractionFailureStillScrolls(t *testing.T) {
	session := &fakeSession{}
	scroller := &fakeScroller{result: model.ScrollResult{Success: true, EndDetected: true}}
	extractor := &fakeExtractor{
		failAt: 1,
		fallback: []model.Business{
			{Name: "Cantina Roma", Rating: 4.2, ReviewCount: 130, Address: "Rua B, 2"},
		},
	}
	o := New(session, extractor, scroller, nil, fastConfig(nil), nopLogger())

	res := o.Run(context.Background(), "pizza", model.SearchOptions{})

	require.True(t, res.Success, "error: %s", res.Error)
	assert.Equal(t, 1, scroller.runs, "scroll cycle ran despite the failed first read")
	assert.Equal(t, 2, extractor.calls)
	assert.Equal(t, 1, res.Results.Total)
	assert.NotEmpty(t, res.Session.Warnings)
}

func TestRunFailsWhenNothingExtracted(t *testing.T) {
	session := &fakeSession{}
	o := New(session, &fakeExtractor{}, &fakeScroller{result: model.ScrollResult{Success: true}}, nil,
		fastConfig(nil), nopLogger())

	res := o.Run(context.Background(), "pizza", model.SearchOptions{})

	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "no businesses extracted")
	assert.Equal(t, 1, session.cleanups)
}
