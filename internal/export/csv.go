package export

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/report"
)

// WriteFinalCSV writes the per-area aggregation as a flat file.
func WriteFinalCSV(path string, rep report.Report) error {
	records := make([][]string, 0, len(rep.ByArea)+1)
	records = append(records, finalHeader)
	for _, a := range rep.ByArea {
		records = append(records, []string{
			a.CollArea,
			strconv.FormatInt(a.Units, 10),
			strconv.Itoa(a.Buildings),
		})
	}
	return writeCSV(path, records)
}

// WriteSummaryCSV writes the filtered per-building detail as a flat file.
func WriteSummaryCSV(path string, rep report.Report) error {
	records := make([][]string, 0, len(rep.PerBuilding)+1)
	records = append(records, summaryHeader)
	for _, b := range rep.PerBuilding {
		records = append(records, []string{
			b.CollArea,
			b.BuildingID,
			strconv.FormatInt(b.Units, 10),
			strconv.Itoa(b.Rows),
		})
	}
	return writeCSV(path, records)
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "export: close %s", path)
	}

	zap.L().Info("exported flat file",
		zap.String("component", "export.csv"),
		zap.String("path", path),
		zap.Int("rows", len(records)-1),
	)

	return nil
}
