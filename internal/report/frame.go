// Package report converts the flat overlay table into the summarized
// dwelling-unit report and checks the results against historical ranges.
package report

import (
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// NoAreaLabel replaces a missing collection area so buildings outside every
// area still appear in the report.
const NoAreaLabel = "N/A"

// TotalLabel names the grand-total row appended to the final table.
const TotalLabel = "TOTAL"

// Row is one normalized record of the in-memory table: missing areas have
// been relabeled and missing unit counts coerced to zero.
type Row struct {
	BuildingID string
	CollArea   string
	DwellUnits int64
}

// Frame is the in-memory row/column table the aggregation runs over.
type Frame struct {
	Rows []Row
}

// NewFrame normalizes the flat detail table: NULL collection areas become
// NoAreaLabel and NULL dwelling units become zero.
func NewFrame(detail []model.DetailRow) Frame {
	log := zap.L().With(zap.String("component", "report.frame"))

	rows := make([]Row, 0, len(detail))
	var relabeled, zeroed int

	for _, d := range detail {
		r := Row{BuildingID: d.BuildingID, CollArea: d.CollArea}
		if r.CollArea == "" {
			r.CollArea = NoAreaLabel
			relabeled++
		}
		if d.DwellUnits != nil {
			r.DwellUnits = *d.DwellUnits
		} else {
			zeroed++
		}
		rows = append(rows, r)
	}

	if relabeled > 0 || zeroed > 0 {
		log.Debug("normalized detail rows",
			zap.Int("no_area", relabeled),
			zap.Int("null_units", zeroed),
		)
	}

	return Frame{Rows: rows}
}
