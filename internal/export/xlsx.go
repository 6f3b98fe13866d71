// Package export writes the report to its output formats: a two-sheet
// spreadsheet, CSV flat files, and a YAML run manifest.
package export

import (
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/report"
)

// finalHeader labels the aggregated sheet columns.
var finalHeader = []string{"COLLECTION AREA", "SUM of DWELLING UNITS", "BL_ID COUNT"}

// summaryHeader labels the per-building sheet columns.
var summaryHeader = []string{"COLL_AREA", "BL_ID", "SUM_DWEL_UNITS", "FREQUENCY"}

// BaseName returns the dated report file base name, e.g.
// Building_Dwellings_Summarized_03152022.
func BaseName(t time.Time) string {
	return fmt.Sprintf("Building_Dwellings_Summarized_%s", t.Format("01022006"))
}

// WriteXLSX writes the report workbook: sheet "final" holds the per-area
// aggregation with its grand total, sheet "summary" the filtered
// per-building rows. An existing file at path is replaced.
func WriteXLSX(path string, rep report.Report) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "export: remove existing %s", path)
	}

	f := xlsx.NewFile()

	final, err := f.AddSheet("final")
	if err != nil {
		return eris.Wrap(err, "export: add final sheet")
	}
	headerRow := final.AddRow()
	for _, h := range finalHeader {
		headerRow.AddCell().SetString(h)
	}
	for _, a := range rep.ByArea {
		row := final.AddRow()
		row.AddCell().SetString(a.CollArea)
		row.AddCell().SetInt64(a.Units)
		row.AddCell().SetInt(a.Buildings)
	}

	summary, err := f.AddSheet("summary")
	if err != nil {
		return eris.Wrap(err, "export: add summary sheet")
	}
	headerRow = summary.AddRow()
	for _, h := range summaryHeader {
		headerRow.AddCell().SetString(h)
	}
	for _, b := range rep.PerBuilding {
		row := summary.AddRow()
		row.AddCell().SetString(b.CollArea)
		row.AddCell().SetString(b.BuildingID)
		row.AddCell().SetInt64(b.Units)
		row.AddCell().SetInt(b.Rows)
	}

	if err := f.Save(path); err != nil {
		return eris.Wrapf(err, "export: save %s", path)
	}

	zap.L().Info("exported report workbook",
		zap.String("component", "export.xlsx"),
		zap.String("path", path),
		zap.Int("final_rows", len(rep.ByArea)),
		zap.Int("summary_rows", len(rep.PerBuilding)),
	)

	return nil
}
