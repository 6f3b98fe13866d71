package overlay

import (
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// AttrJoin joins dwelling-unit counts onto the spatially joined buildings
// by building id, producing the flat detail table: one row per building.
// Buildings with no use record keep a nil DwellUnits. A building id with
// several use records gets their summed units.
func AttrJoin(buildings []JoinedBuilding, uses []model.UseRecord) []model.DetailRow {
	log := zap.L().With(zap.String("component", "overlay.attrjoin"))

	units := make(map[string]int64, len(uses))
	seen := make(map[string]bool, len(uses))
	for _, u := range uses {
		units[u.BuildingID] += u.DwellUnits
		seen[u.BuildingID] = true
	}

	rows := make([]model.DetailRow, 0, len(buildings))
	var unmatched int

	for _, b := range buildings {
		row := model.DetailRow{
			BuildingID: b.BuildingID,
			CollArea:   b.CollArea,
			JoinCount:  b.JoinCount,
		}
		if seen[b.BuildingID] {
			n := units[b.BuildingID]
			row.DwellUnits = &n
		} else {
			unmatched++
		}
		rows = append(rows, row)
	}

	log.Debug("joined building use attributes",
		zap.Int("buildings", len(buildings)),
		zap.Int("use_records", len(uses)),
		zap.Int("without_units", unmatched),
	)

	return rows
}
