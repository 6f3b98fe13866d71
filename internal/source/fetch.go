// Package source fetches the three source datasets from the enterprise
// geodatabase, with shapefile/CSV snapshot fallbacks for offline runs.
package source

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/halifax-gis/dwellings-cli/internal/db"
	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// Tables names the three source datasets.
type Tables struct {
	Buildings string // polygon layer with bl_id
	Use       string // attribute table with bl_id, dwel_units
	Areas     string // polygon layer with coll_area
}

// Datasets holds everything the geometry pipeline consumes.
type Datasets struct {
	Fragments []model.BuildingFragment
	Uses      []model.UseRecord
	Areas     []model.CollectionArea
}

// FetchAll reads the three source datasets concurrently. The sources are
// only ever read; staging copies them before any further processing.
func FetchAll(ctx context.Context, pool db.Pool, tables Tables) (*Datasets, error) {
	log := zap.L().With(zap.String("component", "source.fetch"))

	var ds Datasets
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		frags, err := FetchBuildings(gCtx, pool, tables.Buildings)
		if err != nil {
			return err
		}
		ds.Fragments = frags
		return nil
	})
	g.Go(func() error {
		uses, err := FetchUses(gCtx, pool, tables.Use)
		if err != nil {
			return err
		}
		ds.Uses = uses
		return nil
	})
	g.Go(func() error {
		areas, err := FetchAreas(gCtx, pool, tables.Areas)
		if err != nil {
			return err
		}
		ds.Areas = areas
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info("fetched source datasets",
		zap.Int("building_fragments", len(ds.Fragments)),
		zap.Int("use_records", len(ds.Uses)),
		zap.Int("collection_areas", len(ds.Areas)),
	)

	return &ds, nil
}

// FetchBuildings reads the building polygon layer: one fragment per record.
func FetchBuildings(ctx context.Context, pool db.Pool, table string) ([]model.BuildingFragment, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		`SELECT bl_id, ST_AsBinary(shape) FROM %s WHERE bl_id IS NOT NULL`,
		db.SanitizeTable(table),
	)
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query buildings %s", table)
	}
	defer rows.Close()

	var frags []model.BuildingFragment
	var skipped int
	for rows.Next() {
		var blID string
		var wkb []byte
		if err := rows.Scan(&blID, &wkb); err != nil {
			return nil, eris.Wrap(err, "source: scan building row")
		}
		g, err := decodeGeom(wkb)
		if err != nil || g == nil {
			skipped++
			continue
		}
		frags = append(frags, model.BuildingFragment{BuildingID: blID, Geom: g})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate building rows")
	}

	if skipped > 0 {
		zap.L().Debug("source: skipped buildings with undecodable geometry",
			zap.Int("skipped", skipped))
	}

	return frags, nil
}

// FetchUses reads the building-use attribute table. NULL dwelling-unit
// values come back as zero, matching the report's null translation.
func FetchUses(ctx context.Context, pool db.Pool, table string) ([]model.UseRecord, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		`SELECT bl_id, dwel_units FROM %s WHERE bl_id IS NOT NULL`,
		db.SanitizeTable(table),
	)
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query building use %s", table)
	}
	defer rows.Close()

	var uses []model.UseRecord
	for rows.Next() {
		var blID string
		var units *int64
		if err := rows.Scan(&blID, &units); err != nil {
			return nil, eris.Wrap(err, "source: scan building use row")
		}
		u := model.UseRecord{BuildingID: blID}
		if units != nil {
			u.DwellUnits = *units
		}
		uses = append(uses, u)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate building use rows")
	}

	return uses, nil
}

// FetchAreas reads the waste collection area polygons.
func FetchAreas(ctx context.Context, pool db.Pool, table string) ([]model.CollectionArea, error) {
	if err := db.ValidateTable(table); err != nil {
		return nil, err
	}
	sql := fmt.Sprintf(
		`SELECT coll_area, ST_AsBinary(shape) FROM %s WHERE coll_area IS NOT NULL`,
		db.SanitizeTable(table),
	)
	rows, err := pool.Query(ctx, sql)
	if err != nil {
		return nil, eris.Wrapf(err, "source: query collection areas %s", table)
	}
	defer rows.Close()

	var areas []model.CollectionArea
	for rows.Next() {
		var name string
		var wkb []byte
		if err := rows.Scan(&name, &wkb); err != nil {
			return nil, eris.Wrap(err, "source: scan collection area row")
		}
		g, err := decodeGeom(wkb)
		if err != nil {
			return nil, eris.Wrapf(err, "source: decode area geometry for %s", name)
		}
		mp := toMultiPolygon(g)
		if mp == nil {
			zap.L().Warn("source: collection area has no polygon geometry", zap.String("area", name))
			continue
		}
		areas = append(areas, model.CollectionArea{Name: name, Geom: mp})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "source: iterate collection area rows")
	}

	return areas, nil
}

// decodeGeom parses EWKB (or plain WKB) bytes.
func decodeGeom(data []byte) (geom.T, error) {
	if len(data) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return nil, eris.Wrap(err, "source: unmarshal EWKB")
	}
	return g, nil
}

// toMultiPolygon normalizes polygonal geometry into a multipolygon.
func toMultiPolygon(g geom.T) *geom.MultiPolygon {
	switch t := g.(type) {
	case *geom.MultiPolygon:
		if t.NumPolygons() == 0 {
			return nil
		}
		return t
	case *geom.Polygon:
		if t.NumLinearRings() == 0 {
			return nil
		}
		mp := geom.NewMultiPolygon(t.Layout())
		if err := mp.Push(t); err != nil {
			return nil
		}
		return mp
	}
	return nil
}
