// Package workspace manages the disposable per-run working database. Each
// run stages copies of the three source datasets into a fresh SQLite file
// so later steps never touch the source-of-record, and persists every
// intermediate table for debugging.
package workspace

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/halifax-gis/dwellings-cli/internal/model"
	"github.com/halifax-gis/dwellings-cli/internal/overlay"
)

// DefaultName is the working database file name within the workspace dir.
const DefaultName = "temp_workspace.db"

// Workspace is an open working database.
type Workspace struct {
	db    *sql.DB
	path  string
	runID string
}

const schema = `
CREATE TABLE IF NOT EXISTS run_info (
	id             TEXT PRIMARY KEY,
	started_at     DATETIME NOT NULL,
	finished_at    DATETIME,
	fragments      INTEGER NOT NULL DEFAULT 0,
	use_records    INTEGER NOT NULL DEFAULT 0,
	areas          INTEGER NOT NULL DEFAULT 0,
	joined_records INTEGER NOT NULL DEFAULT 0,
	detail_rows    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS bld_building_polygon (
	bl_id TEXT NOT NULL,
	shape BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS bld_building_use (
	bl_id      TEXT NOT NULL,
	dwel_units INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS waste_coll_area (
	coll_area TEXT NOT NULL,
	shape     BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS dissolved_building_polygons (
	bl_id     TEXT PRIMARY KEY,
	shape     BLOB NOT NULL,
	fragments INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS buildings_w_waste_areas_blduse (
	bl_id      TEXT NOT NULL,
	coll_area  TEXT,
	join_count INTEGER NOT NULL,
	dwel_units INTEGER
);

CREATE INDEX IF NOT EXISTS idx_building_polygon_bl_id ON bld_building_polygon(bl_id);
CREATE INDEX IF NOT EXISTS idx_building_use_bl_id ON bld_building_use(bl_id);
`

// Create builds a fresh working database in dir, removing any previous one
// at the same path, and records the run.
func Create(ctx context.Context, dir string) (*Workspace, error) {
	path := filepath.Join(dir, DefaultName)

	// Overwrite semantics: a leftover workspace from an earlier run is
	// discarded along with its WAL sidecars.
	for _, p := range []string{path, path + "-wal", path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return nil, eris.Wrapf(err, "workspace: remove stale %s", p)
		}
	}

	w, err := open(path)
	if err != nil {
		return nil, err
	}

	w.runID = uuid.New().String()
	_, err = w.db.ExecContext(ctx,
		`INSERT INTO run_info (id, started_at) VALUES (?, ?)`,
		w.runID, time.Now().UTC(),
	)
	if err != nil {
		w.db.Close()
		return nil, eris.Wrap(err, "workspace: insert run info")
	}

	zap.L().Info("workspace created",
		zap.String("component", "workspace"),
		zap.String("path", path),
		zap.String("run_id", w.runID),
	)

	return w, nil
}

// Open opens an existing working database without clearing it.
func Open(path string) (*Workspace, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, eris.Wrapf(err, "workspace: stat %s", path)
	}
	return open(path)
}

func open(path string) (*Workspace, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "workspace: exec %s", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "workspace: migrate")
	}
	return &Workspace{db: db, path: path}, nil
}

// Path returns the working database file path.
func (w *Workspace) Path() string { return w.path }

// RunID returns the id of the run that created this workspace, if any.
func (w *Workspace) RunID() string { return w.runID }

// Close closes the working database.
func (w *Workspace) Close() error {
	return w.db.Close()
}

// Remove closes and deletes the working database. The workspace is
// disposable; report runs remove it unless asked to keep it.
func (w *Workspace) Remove() error {
	if err := w.db.Close(); err != nil {
		return eris.Wrap(err, "workspace: close before remove")
	}
	for _, p := range []string{w.path, w.path + "-wal", w.path + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return eris.Wrapf(err, "workspace: remove %s", p)
		}
	}
	return nil
}

// StageBuildings copies building fragments into the workspace.
func (w *Workspace) StageBuildings(ctx context.Context, frags []model.BuildingFragment) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: begin stage buildings")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bld_building_polygon (bl_id, shape) VALUES (?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: prepare stage buildings")
	}
	defer stmt.Close()

	var n int
	for _, f := range frags {
		data, err := encodeGeom(f.Geom)
		if err != nil {
			return 0, eris.Wrapf(err, "workspace: encode building %s", f.BuildingID)
		}
		if data == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, f.BuildingID, data); err != nil {
			return 0, eris.Wrapf(err, "workspace: stage building %s", f.BuildingID)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "workspace: commit stage buildings")
	}
	return n, nil
}

// StageUses copies building-use rows into the workspace.
func (w *Workspace) StageUses(ctx context.Context, uses []model.UseRecord) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: begin stage uses")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO bld_building_use (bl_id, dwel_units) VALUES (?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: prepare stage uses")
	}
	defer stmt.Close()

	for _, u := range uses {
		if _, err := stmt.ExecContext(ctx, u.BuildingID, u.DwellUnits); err != nil {
			return 0, eris.Wrapf(err, "workspace: stage use row %s", u.BuildingID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "workspace: commit stage uses")
	}
	return len(uses), nil
}

// StageAreas copies collection-area polygons into the workspace.
func (w *Workspace) StageAreas(ctx context.Context, areas []model.CollectionArea) (int, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: begin stage areas")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO waste_coll_area (coll_area, shape) VALUES (?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "workspace: prepare stage areas")
	}
	defer stmt.Close()

	var n int
	for _, a := range areas {
		data, err := encodeGeom(a.Geom)
		if err != nil {
			return 0, eris.Wrapf(err, "workspace: encode area %s", a.Name)
		}
		if data == nil {
			continue
		}
		if _, err := stmt.ExecContext(ctx, a.Name, data); err != nil {
			return 0, eris.Wrapf(err, "workspace: stage area %s", a.Name)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "workspace: commit stage areas")
	}
	return n, nil
}

// Buildings reads the staged building fragments back.
func (w *Workspace) Buildings(ctx context.Context) ([]model.BuildingFragment, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT bl_id, shape FROM bld_building_polygon`)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: query staged buildings")
	}
	defer rows.Close()

	var frags []model.BuildingFragment
	for rows.Next() {
		var blID string
		var data []byte
		if err := rows.Scan(&blID, &data); err != nil {
			return nil, eris.Wrap(err, "workspace: scan staged building")
		}
		g, err := ewkb.Unmarshal(data)
		if err != nil {
			return nil, eris.Wrapf(err, "workspace: decode staged building %s", blID)
		}
		frags = append(frags, model.BuildingFragment{BuildingID: blID, Geom: g})
	}
	return frags, rows.Err()
}

// Uses reads the staged building-use rows back.
func (w *Workspace) Uses(ctx context.Context) ([]model.UseRecord, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT bl_id, dwel_units FROM bld_building_use`)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: query staged uses")
	}
	defer rows.Close()

	var uses []model.UseRecord
	for rows.Next() {
		var u model.UseRecord
		if err := rows.Scan(&u.BuildingID, &u.DwellUnits); err != nil {
			return nil, eris.Wrap(err, "workspace: scan staged use row")
		}
		uses = append(uses, u)
	}
	return uses, rows.Err()
}

// Areas reads the staged collection areas back.
func (w *Workspace) Areas(ctx context.Context) ([]model.CollectionArea, error) {
	rows, err := w.db.QueryContext(ctx, `SELECT coll_area, shape FROM waste_coll_area`)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: query staged areas")
	}
	defer rows.Close()

	var areas []model.CollectionArea
	for rows.Next() {
		var name string
		var data []byte
		if err := rows.Scan(&name, &data); err != nil {
			return nil, eris.Wrap(err, "workspace: scan staged area")
		}
		g, err := ewkb.Unmarshal(data)
		if err != nil {
			return nil, eris.Wrapf(err, "workspace: decode staged area %s", name)
		}
		mp, ok := g.(*geom.MultiPolygon)
		if !ok {
			return nil, eris.Errorf("workspace: staged area %s is not a multipolygon", name)
		}
		areas = append(areas, model.CollectionArea{Name: name, Geom: mp})
	}
	return areas, rows.Err()
}

// SaveDissolved persists the dissolved buildings.
func (w *Workspace) SaveDissolved(ctx context.Context, buildings []model.Building) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "workspace: begin save dissolved")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dissolved_building_polygons (bl_id, shape, fragments) VALUES (?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "workspace: prepare save dissolved")
	}
	defer stmt.Close()

	for _, b := range buildings {
		data, err := encodeGeom(b.Geom)
		if err != nil {
			return eris.Wrapf(err, "workspace: encode dissolved building %s", b.BuildingID)
		}
		if _, err := stmt.ExecContext(ctx, b.BuildingID, data, b.Fragments); err != nil {
			return eris.Wrapf(err, "workspace: save dissolved building %s", b.BuildingID)
		}
	}

	return eris.Wrap(tx.Commit(), "workspace: commit save dissolved")
}

// SaveDetail persists the flat detail table.
func (w *Workspace) SaveDetail(ctx context.Context, detail []model.DetailRow) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "workspace: begin save detail")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO buildings_w_waste_areas_blduse (bl_id, coll_area, join_count, dwel_units) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return eris.Wrap(err, "workspace: prepare save detail")
	}
	defer stmt.Close()

	for _, d := range detail {
		var area any
		if d.CollArea != "" {
			area = d.CollArea
		}
		var units any
		if d.DwellUnits != nil {
			units = *d.DwellUnits
		}
		if _, err := stmt.ExecContext(ctx, d.BuildingID, area, d.JoinCount, units); err != nil {
			return eris.Wrapf(err, "workspace: save detail row %s", d.BuildingID)
		}
	}

	return eris.Wrap(tx.Commit(), "workspace: commit save detail")
}

// SaveResult persists the pipeline output and closes out the run row.
func (w *Workspace) SaveResult(ctx context.Context, res overlay.Result, staged Counts) error {
	if err := w.SaveDissolved(ctx, res.Buildings); err != nil {
		return err
	}
	if err := w.SaveDetail(ctx, res.Detail); err != nil {
		return err
	}

	_, err := w.db.ExecContext(ctx, `
		UPDATE run_info SET
			finished_at = ?,
			fragments = ?,
			use_records = ?,
			areas = ?,
			joined_records = ?,
			detail_rows = ?
		WHERE id = ?`,
		time.Now().UTC(),
		staged.Fragments, staged.UseRecords, staged.Areas,
		res.JoinedRecords, len(res.Detail),
		w.runID,
	)
	return eris.Wrap(err, "workspace: finish run info")
}

// Counts summarizes what was staged for the run row.
type Counts struct {
	Fragments  int
	UseRecords int
	Areas      int
}

// RunInfo is one row of the run_info table.
type RunInfo struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    *time.Time
	Fragments     int
	UseRecords    int
	Areas         int
	JoinedRecords int
	DetailRows    int
}

// Runs lists recorded runs, newest first.
func (w *Workspace) Runs(ctx context.Context) ([]RunInfo, error) {
	rows, err := w.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, fragments, use_records, areas, joined_records, detail_rows
		FROM run_info ORDER BY started_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: query run info")
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt,
			&r.Fragments, &r.UseRecords, &r.Areas, &r.JoinedRecords, &r.DetailRows); err != nil {
			return nil, eris.Wrap(err, "workspace: scan run info")
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// encodeGeom marshals a geometry to EWKB. Returns nil, nil for nil input.
func encodeGeom(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "workspace: encode EWKB")
	}
	return data, nil
}
