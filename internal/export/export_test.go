package export

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
	"gopkg.in/yaml.v3"

	"github.com/halifax-gis/dwellings-cli/internal/report"
)

func sampleReport() report.Report {
	return report.Report{
		PerBuilding: []report.BuildingSummary{
			{CollArea: "AREA 1", BuildingID: "B001", Units: 4, Rows: 1},
			{CollArea: "AREA 1", BuildingID: "B002", Units: 2, Rows: 2},
			{CollArea: "AREA 2", BuildingID: "B003", Units: 6, Rows: 1},
		},
		ByArea: []report.AreaSummary{
			{CollArea: "AREA 1", Units: 6, Buildings: 2},
			{CollArea: "AREA 2", Units: 6, Buildings: 1},
			{CollArea: report.TotalLabel, Units: 12, Buildings: 3},
		},
	}
}

func TestBaseName(t *testing.T) {
	d := time.Date(2022, time.March, 15, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, "Building_Dwellings_Summarized_03152022", BaseName(d))
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, WriteXLSX(path, sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)

	final, ok := f.Sheet["final"]
	require.True(t, ok, "final sheet present")
	require.Len(t, final.Rows, 4)
	assert.Equal(t, "COLLECTION AREA", final.Rows[0].Cells[0].Value)
	assert.Equal(t, "AREA 1", final.Rows[1].Cells[0].Value)
	assert.Equal(t, "6", final.Rows[1].Cells[1].Value)
	assert.Equal(t, "2", final.Rows[1].Cells[2].Value)
	assert.Equal(t, report.TotalLabel, final.Rows[3].Cells[0].Value)

	summary, ok := f.Sheet["summary"]
	require.True(t, ok, "summary sheet present")
	require.Len(t, summary.Rows, 4)
	assert.Equal(t, "BL_ID", summary.Rows[0].Cells[1].Value)
	assert.Equal(t, "B001", summary.Rows[1].Cells[1].Value)
	assert.Equal(t, "4", summary.Rows[1].Cells[2].Value)
}

func TestWriteXLSX_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	require.NoError(t, WriteXLSX(path, sampleReport()))

	f, err := xlsx.OpenFile(path)
	require.NoError(t, err)
	assert.Contains(t, f.Sheet, "final")
}

func TestWriteFinalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "final.csv")
	require.NoError(t, WriteFinalCSV(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "COLLECTION AREA,SUM of DWELLING UNITS,BL_ID COUNT")
	assert.Contains(t, content, "AREA 1,6,2")
	assert.Contains(t, content, "TOTAL,12,3")
}

func TestWriteSummaryCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.csv")
	require.NoError(t, WriteSummaryCSV(path, sampleReport()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "COLL_AREA,BL_ID,SUM_DWEL_UNITS,FREQUENCY")
	assert.Contains(t, content, "AREA 1,B001,4,1")
}

func TestWriteManifest_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	started := time.Date(2022, time.March, 15, 9, 0, 0, 0, time.UTC)

	m := Manifest{
		RunID:      "run-123",
		StartedAt:  started,
		FinishedAt: started.Add(2 * time.Minute),
		Workspace:  "/tmp/temp_workspace.db",
		Counts: ManifestCounts{
			Fragments:     5,
			UseRecords:    4,
			Areas:         2,
			JoinedRecords: 5,
			DetailRows:    5,
			FilteredRows:  3,
		},
		Outputs: ManifestOutputs{
			Workbook:   "report.xlsx",
			FinalCSV:   "final.csv",
			SummaryCSV: "summary.csv",
		},
		Findings: []report.Finding{
			{Check: "joined_records", OK: true, Message: "5 joined records"},
		},
	}
	require.NoError(t, WriteManifest(path, m))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Manifest
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, "run-123", got.RunID)
	assert.Equal(t, 5, got.Counts.Fragments)
	assert.Equal(t, 3, got.Counts.FilteredRows)
	require.Len(t, got.Findings, 1)
	assert.True(t, got.Findings[0].OK)
}
