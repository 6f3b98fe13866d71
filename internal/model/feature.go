// Package model defines the feature and row types shared across the
// staging, overlay, and reporting layers.
package model

import "github.com/twpayne/go-geom"

// BuildingFragment is one polygon record from the source building layer.
// A single building is often split across several fragments sharing a
// building id; the dissolve step merges them.
type BuildingFragment struct {
	BuildingID string
	Geom       geom.T
}

// Building is a dissolved building: one multipart geometry per building id.
type Building struct {
	BuildingID string
	Geom       *geom.MultiPolygon
	Fragments  int
}

// CollectionArea is one solid-waste collection area polygon.
type CollectionArea struct {
	Name string
	Geom *geom.MultiPolygon
}

// UseRecord is one row of the building-use attribute table.
type UseRecord struct {
	BuildingID string
	DwellUnits int64
}

// DetailRow is one row of the flat table the geometry pipeline produces:
// one row per building with its collection area and dwelling-unit count.
// CollArea is empty when the building fell outside every area; DwellUnits
// is nil when no use record matched the building id.
type DetailRow struct {
	BuildingID string
	CollArea   string
	JoinCount  int
	DwellUnits *int64
}
