package report

import (
	"sort"

	"go.uber.org/zap"
)

// BuildingSummary is one row of the per-building summary: units and source
// rows grouped by (collection area, building id).
type BuildingSummary struct {
	CollArea   string
	BuildingID string
	Units      int64
	Rows       int
}

// AreaSummary is one row of the final table: total units and building count
// per collection area. The last row carries the TotalLabel area.
type AreaSummary struct {
	CollArea  string
	Units     int64
	Buildings int
}

// Report holds both report tables: the filtered per-building summary and
// the per-area final table with its grand-total row.
type Report struct {
	PerBuilding []BuildingSummary
	ByArea      []AreaSummary
}

// Aggregate groups the frame by (collection area, building id) summing
// units, keeps buildings whose summed units are at most cutoff, regroups by
// collection area summing units and counting buildings, and appends a
// grand-total row.
func Aggregate(f Frame, cutoff int) Report {
	log := zap.L().With(zap.String("component", "report.aggregate"))

	type key struct{ area, building string }
	grouped := make(map[key]*BuildingSummary)

	for _, r := range f.Rows {
		k := key{r.CollArea, r.BuildingID}
		s, ok := grouped[k]
		if !ok {
			s = &BuildingSummary{CollArea: r.CollArea, BuildingID: r.BuildingID}
			grouped[k] = s
		}
		s.Units += r.DwellUnits
		s.Rows++
	}

	perBuilding := make([]BuildingSummary, 0, len(grouped))
	for _, s := range grouped {
		if s.Units > int64(cutoff) {
			continue
		}
		perBuilding = append(perBuilding, *s)
	}
	sort.Slice(perBuilding, func(i, j int) bool {
		a, b := perBuilding[i], perBuilding[j]
		if a.CollArea != b.CollArea {
			return areaLess(a.CollArea, b.CollArea)
		}
		return a.BuildingID < b.BuildingID
	})

	byAreaMap := make(map[string]*AreaSummary)
	for _, s := range perBuilding {
		a, ok := byAreaMap[s.CollArea]
		if !ok {
			a = &AreaSummary{CollArea: s.CollArea}
			byAreaMap[s.CollArea] = a
		}
		a.Units += s.Units
		a.Buildings++
	}

	byArea := make([]AreaSummary, 0, len(byAreaMap)+1)
	for _, a := range byAreaMap {
		byArea = append(byArea, *a)
	}
	sort.Slice(byArea, func(i, j int) bool {
		return areaLess(byArea[i].CollArea, byArea[j].CollArea)
	})

	var total AreaSummary
	total.CollArea = TotalLabel
	for _, a := range byArea {
		total.Units += a.Units
		total.Buildings += a.Buildings
	}
	byArea = append(byArea, total)

	log.Info("aggregated dwelling units",
		zap.Int("frame_rows", len(f.Rows)),
		zap.Int("filtered_buildings", len(perBuilding)),
		zap.Int("areas", len(byArea)-1),
		zap.Int64("total_units", total.Units),
	)

	return Report{PerBuilding: perBuilding, ByArea: byArea}
}

// areaLess orders collection areas lexically with NoAreaLabel last.
func areaLess(a, b string) bool {
	if a == NoAreaLabel {
		return false
	}
	if b == NoAreaLabel {
		return true
	}
	return a < b
}
