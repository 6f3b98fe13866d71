package overlay

import (
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// JoinedBuilding is a dissolved building with its spatial-join result.
type JoinedBuilding struct {
	model.Building
	CollArea  string // empty when no area matched
	JoinCount int
}

// indexedArea caches an area's bounds for the prefilter.
type indexedArea struct {
	name   string
	geom   *geom.MultiPolygon
	bounds *geom.Bounds
}

// SpatialJoin assigns each building the collection area it falls inside.
// One-to-one: the first matching area wins. Buildings outside every area
// are kept with an empty CollArea and JoinCount 0.
//
// The match test uses the building's representative point (centroid of the
// largest fragment) against each area, with a bounding-box prefilter. If no
// area contains the representative point, every vertex of the building is
// tried so slivers straddling a boundary still match the area they touch.
func SpatialJoin(buildings []model.Building, areas []model.CollectionArea) []JoinedBuilding {
	log := zap.L().With(zap.String("component", "overlay.spatialjoin"))

	indexed := make([]indexedArea, 0, len(areas))
	for _, a := range areas {
		if a.Geom == nil || a.Geom.NumPolygons() == 0 {
			continue
		}
		indexed = append(indexed, indexedArea{
			name:   a.Name,
			geom:   a.Geom,
			bounds: a.Geom.Bounds(),
		})
	}

	joined := make([]JoinedBuilding, 0, len(buildings))
	var unmatched int

	for _, b := range buildings {
		jb := JoinedBuilding{Building: b}

		if name, ok := matchArea(indexed, b.Geom); ok {
			jb.CollArea = name
			jb.JoinCount = 1
		} else {
			unmatched++
		}

		joined = append(joined, jb)
	}

	log.Debug("spatially joined buildings to collection areas",
		zap.Int("buildings", len(buildings)),
		zap.Int("areas", len(indexed)),
		zap.Int("unmatched", unmatched),
	)

	return joined
}

// matchArea finds the first area containing the building.
func matchArea(areas []indexedArea, building *geom.MultiPolygon) (string, bool) {
	rep, ok := representativePoint(building)
	if !ok {
		return "", false
	}

	for _, a := range areas {
		if !boundsOverlapPoint(a.bounds, rep) {
			continue
		}
		if multiPolygonContains(a.geom, rep) {
			return a.name, true
		}
	}

	// Boundary slivers: fall back to vertex containment.
	for _, a := range areas {
		if !a.bounds.Overlaps(geom.XY, building.Bounds()) {
			continue
		}
		for i := 0; i < building.NumPolygons(); i++ {
			p := building.Polygon(i)
			if p.NumLinearRings() == 0 {
				continue
			}
			for _, c := range p.LinearRing(0).Coords() {
				if multiPolygonContains(a.geom, c) {
					return a.name, true
				}
			}
		}
	}

	return "", false
}
