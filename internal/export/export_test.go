package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pedrogrisolia/maps-business-finder/internal/model"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager(t.TempDir(), log.New(io.Discard))
}

func sampleResults() model.ResultSet {
	businesses := []model.Business{
		{
			Rank: 1, Name: "Pizzaria Bella", Rating: 4.7, ReviewCount: 412,
			Address: "Rua Augusta, 500", CompositeScore: 18.1, Tier: "Excellent",
			DistanceKm: 1.24, Link: "https://maps.google.com/x",
		},
		{
			Rank: 2, Name: "Cantina Roma", Rating: 4.2, ReviewCount: 130,
			Address: "Rua B, 2", CompositeScore: 7.98, Tier: "Good",
		},
	}
	return model.ResultSet{
		Businesses: businesses,
		Summary:    model.Summary{Total: 2},
		Total:      2,
	}
}

func TestFilename(t *testing.T) {
	ts := time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC)
	assert.Equal(t, "pizza_artesanal_2026-08-31_14-30-05.json", Filename("Pizza Artesanal!", "json", ts))
	assert.Equal(t, "results_2026-08-31_14-30-05.csv", Filename("!!!", "csv", ts))
}

func TestExportJSONAndCSV(t *testing.T) {
	m := testManager(t)
	meta := model.ExportMetadata{
		SessionID:  "session_1",
		SearchTerm: "pizza",
		ExportedAt: time.Date(2026, 8, 31, 14, 30, 5, 0, time.UTC),
	}

	out := m.Export(sampleResults(), meta, []string{"json", "csv"})
	require.True(t, out.Success, "error: %s", out.Error)
	require.Len(t, out.Files, 2)

	jf := out.Files["json"]
	require.True(t, jf.Success, jf.Error)
	raw, err := os.ReadFile(jf.Path)
	require.NoError(t, err)
	var payload jsonPayload
	require.NoError(t, json.Unmarshal(raw, &payload))
	assert.Equal(t, "pizza", payload.Metadata.SearchTerm)
	require.Len(t, payload.Businesses, 2)
	assert.Equal(t, "Pizzaria Bella", payload.Businesses[0].Name)

	cf := out.Files["csv"]
	require.True(t, cf.Success, cf.Error)
	f, err := os.Open(cf.Path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, "Pizzaria Bella", rows[1][1])
	assert.Equal(t, "1.24", rows[1][8])
	assert.Equal(t, "", rows[2][8], "no distance column for unlocated results")
}

func TestExportUnsupportedFormat(t *testing.T) {
	m := testManager(t)
	out := m.Export(sampleResults(), model.ExportMetadata{SearchTerm: "pizza"}, []string{"xml"})

	assert.False(t, out.Success)
	assert.Contains(t, out.Files["xml"].Error, "unsupported format")
}

func TestExportPartialFailureStillSucceeds(t *testing.T) {
	m := testManager(t)
	out := m.Export(sampleResults(), model.ExportMetadata{SearchTerm: "pizza"}, []string{"xml", "json"})

	assert.True(t, out.Success)
	assert.False(t, out.Files["xml"].Success)
	assert.True(t, out.Files["json"].Success)
}

func TestWriteSessionSummary(t *testing.T) {
	m := testManager(t)
	res := model.RunResult{
		Success:    true,
		SessionID:  "session_1",
		SearchTerm: "pizza",
		Results:    sampleResults(),
	}
	res.Session.EndTime = time.Date(2026, 8, 31, 15, 0, 0, 0, time.UTC)

	path, err := m.WriteSessionSummary(res)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "session_1", decoded["session_id"])
	assert.Equal(t, true, decoded["success"])
}
