package overlay

import (
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// Result holds the outputs of the geometry pipeline.
type Result struct {
	Buildings []model.Building  // dissolved buildings
	Joined    []JoinedBuilding  // buildings with their collection area
	Detail    []model.DetailRow // flat table: building, area, units
	// JoinedRecords counts buildings that landed inside a collection area
	// (JoinCount > 0); the historical run expects well over 100k.
	JoinedRecords int
}

// Run executes the three geometry operations in sequence: dissolve building
// fragments, spatially join buildings to collection areas, then join the
// dwelling-unit attribute table by building id.
func Run(fragments []model.BuildingFragment, areas []model.CollectionArea, uses []model.UseRecord) Result {
	log := zap.L().With(zap.String("component", "overlay.pipeline"))

	log.Info("dissolving building polygons", zap.Int("fragments", len(fragments)))
	buildings := Dissolve(fragments)

	log.Info("spatially joining buildings and waste collection areas",
		zap.Int("buildings", len(buildings)),
		zap.Int("areas", len(areas)),
	)
	joined := SpatialJoin(buildings, areas)

	log.Info("joining building use table to building polygons",
		zap.Int("use_records", len(uses)))
	detail := AttrJoin(joined, uses)

	var joinedRecords int
	for _, row := range detail {
		if row.JoinCount > 0 {
			joinedRecords++
		}
	}

	return Result{
		Buildings:     buildings,
		Joined:        joined,
		Detail:        detail,
		JoinedRecords: joinedRecords,
	}
}
