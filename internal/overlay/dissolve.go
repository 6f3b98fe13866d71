// Package overlay implements the three-step geometry pipeline: dissolve
// building fragments, spatially join buildings to collection areas, and
// join dwelling-unit attributes by building id.
package overlay

import (
	"sort"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// Dissolve merges same-building polygon fragments into one multipart
// geometry per building id. Fragments with no usable polygon geometry are
// skipped. Output is sorted by building id.
func Dissolve(fragments []model.BuildingFragment) []model.Building {
	log := zap.L().With(zap.String("component", "overlay.dissolve"))

	grouped := make(map[string]*model.Building)
	var skipped int

	for _, frag := range fragments {
		polys := extractPolygons(frag.Geom)
		if len(polys) == 0 {
			skipped++
			continue
		}

		b, ok := grouped[frag.BuildingID]
		if !ok {
			b = &model.Building{
				BuildingID: frag.BuildingID,
				Geom:       geom.NewMultiPolygon(geom.XY),
			}
			grouped[frag.BuildingID] = b
		}
		for _, p := range polys {
			if err := b.Geom.Push(p); err != nil {
				skipped++
				continue
			}
		}
		b.Fragments++
	}

	if skipped > 0 {
		log.Debug("skipped fragments with unusable geometry", zap.Int("skipped", skipped))
	}

	buildings := make([]model.Building, 0, len(grouped))
	for _, b := range grouped {
		if b.Geom.NumPolygons() == 0 {
			continue
		}
		buildings = append(buildings, *b)
	}
	sort.Slice(buildings, func(i, j int) bool {
		return buildings[i].BuildingID < buildings[j].BuildingID
	})

	log.Debug("dissolved building fragments",
		zap.Int("fragments", len(fragments)),
		zap.Int("buildings", len(buildings)),
	)

	return buildings
}

// extractPolygons pulls XY polygons out of a geometry, rebuilding rings so
// the parts can be pushed into a fresh multipolygon.
func extractPolygons(g geom.T) []*geom.Polygon {
	switch t := g.(type) {
	case *geom.Polygon:
		if p := clonePolygonXY(t); p != nil {
			return []*geom.Polygon{p}
		}
	case *geom.MultiPolygon:
		var polys []*geom.Polygon
		for i := 0; i < t.NumPolygons(); i++ {
			if p := clonePolygonXY(t.Polygon(i)); p != nil {
				polys = append(polys, p)
			}
		}
		return polys
	}
	return nil
}

// clonePolygonXY copies a polygon into XY layout, dropping any Z/M values.
// Returns nil for polygons with no valid outer ring.
func clonePolygonXY(p *geom.Polygon) *geom.Polygon {
	if p == nil || p.NumLinearRings() == 0 {
		return nil
	}
	out := geom.NewPolygon(geom.XY)
	for i := 0; i < p.NumLinearRings(); i++ {
		coords := p.LinearRing(i).Coords()
		if len(coords) < 4 {
			if i == 0 {
				return nil
			}
			continue
		}
		flat := make([]float64, 0, len(coords)*2)
		for _, c := range coords {
			flat = append(flat, c[0], c[1])
		}
		if err := out.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			if i == 0 {
				return nil
			}
		}
	}
	if out.NumLinearRings() == 0 {
		return nil
	}
	return out
}
