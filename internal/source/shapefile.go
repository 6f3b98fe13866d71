package source

import (
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// BuildingsFromShapefile reads a building polygon snapshot. idField names
// the attribute carrying the building id (typically BL_ID).
func BuildingsFromShapefile(shpPath, idField string) ([]model.BuildingFragment, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	idx, err := fieldIndex(reader, idField)
	if err != nil {
		return nil, err
	}

	var frags []model.BuildingFragment
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		blID := attribute(reader, idx)
		if blID == "" {
			skipped++
			continue
		}
		mp := shapeToMultiPolygon(shape)
		if mp == nil {
			skipped++
			continue
		}
		frags = append(frags, model.BuildingFragment{BuildingID: blID, Geom: mp})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile building records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return frags, nil
}

// AreasFromShapefile reads a collection-area polygon snapshot. nameField
// names the attribute carrying the area label (typically COLL_AREA).
func AreasFromShapefile(shpPath, nameField string) ([]model.CollectionArea, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	idx, err := fieldIndex(reader, nameField)
	if err != nil {
		return nil, err
	}

	var areas []model.CollectionArea
	var skipped int

	for reader.Next() {
		_, shape := reader.Shape()
		name := attribute(reader, idx)
		mp := shapeToMultiPolygon(shape)
		if name == "" || mp == nil {
			skipped++
			continue
		}
		areas = append(areas, model.CollectionArea{Name: name, Geom: mp})
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped shapefile area records",
			zap.String("path", shpPath),
			zap.Int("skipped", skipped),
		)
	}

	return areas, nil
}

// fieldIndex resolves an attribute field name, case-insensitively.
func fieldIndex(reader *shp.Reader, name string) (int, error) {
	for i, f := range reader.Fields() {
		fname := strings.TrimRight(f.String(), "\x00")
		if strings.EqualFold(fname, name) {
			return i, nil
		}
	}
	return 0, eris.Errorf("source: shapefile has no field %q", name)
}

// attribute reads and trims one attribute value.
func attribute(reader *shp.Reader, idx int) string {
	val := strings.TrimRight(reader.Attribute(idx), "\x00")
	return strings.TrimSpace(val)
}

// shapeToMultiPolygon converts a shapefile polygon to a geom.MultiPolygon.
// Returns nil for unsupported or empty shapes.
func shapeToMultiPolygon(shape shp.Shape) *geom.MultiPolygon {
	p, ok := shape.(*shp.Polygon)
	if !ok || p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		var end int32
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		} else {
			end = int32(len(p.Points))
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		poly := geom.NewPolygon(geom.XY)
		if err := poly.Push(ring); err != nil {
			zap.L().Debug("source: skipping malformed polygon ring", zap.Int32("part", i), zap.Error(err))
			continue
		}
		if err := mp.Push(poly); err != nil {
			zap.L().Debug("source: skipping malformed polygon part", zap.Int32("part", i), zap.Error(err))
			continue
		}
	}

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
