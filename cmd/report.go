package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/halifax-gis/dwellings-cli/internal/export"
	"github.com/halifax-gis/dwellings-cli/internal/overlay"
	"github.com/halifax-gis/dwellings-cli/internal/report"
	"github.com/halifax-gis/dwellings-cli/internal/source"
	"github.com/halifax-gis/dwellings-cli/internal/workspace"
)

// File names expected inside a --from-shapefile export directory.
const (
	shpBuildings = "bld_building_polygon.shp"
	shpAreas     = "adm_waste_coll_area.shp"
	csvUse       = "bld_building_use.csv"

	fieldBuildingID = "BL_ID"
	fieldAreaName   = "COLL_AREA"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the full dwelling-unit report pipeline",
	Long:  "Stages the three source datasets, dissolves building fragments, joins buildings to waste collection areas and dwelling-unit counts, and writes the summarized report workbook, flat files, and run manifest.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shpDir, _ := cmd.Flags().GetString("from-shapefile")
		wsDir, _ := cmd.Flags().GetString("workspace")
		outDir, _ := cmd.Flags().GetString("out")
		keep, _ := cmd.Flags().GetBool("keep-workspace")
		cutoff, _ := cmd.Flags().GetInt("cutoff")

		if wsDir == "" {
			wsDir = cfg.Workspace.Dir
		}
		if outDir == "" {
			outDir = cfg.Report.OutDir
		}
		if !cmd.Flags().Changed("cutoff") {
			cutoff = cfg.Report.UnitCutoff
		}
		keep = keep || cfg.Workspace.Keep

		if err := cfg.Validate("report", shpDir == ""); err != nil {
			return err
		}

		started := time.Now()

		ds, err := loadDatasets(ctx, shpDir)
		if err != nil {
			return err
		}

		ws, err := workspace.Create(ctx, wsDir)
		if err != nil {
			return err
		}
		defer ws.Close() //nolint:errcheck

		staged, err := stageAll(ctx, ws, ds)
		if err != nil {
			return err
		}

		res := overlay.Run(ds.Fragments, ds.Areas, ds.Uses)
		if err := ws.SaveResult(ctx, res, staged); err != nil {
			return err
		}

		frame := report.NewFrame(res.Detail)
		rep := report.Aggregate(frame, cutoff)
		findings := report.Sanity(rep, res.JoinedRecords, len(frame.Rows), sanityThresholds())

		base := export.BaseName(started)
		paths := export.ManifestOutputs{
			Workbook:   filepath.Join(outDir, base+".xlsx"),
			FinalCSV:   filepath.Join(outDir, base+"_final.csv"),
			SummaryCSV: filepath.Join(outDir, base+"_summary.csv"),
		}

		if err := export.WriteXLSX(paths.Workbook, rep); err != nil {
			return err
		}
		if err := export.WriteFinalCSV(paths.FinalCSV, rep); err != nil {
			return err
		}
		if err := export.WriteSummaryCSV(paths.SummaryCSV, rep); err != nil {
			return err
		}

		manifest := export.Manifest{
			RunID:      ws.RunID(),
			StartedAt:  started.UTC(),
			FinishedAt: time.Now().UTC(),
			Workspace:  ws.Path(),
			Counts: export.ManifestCounts{
				Fragments:     staged.Fragments,
				UseRecords:    staged.UseRecords,
				Areas:         staged.Areas,
				JoinedRecords: res.JoinedRecords,
				DetailRows:    len(res.Detail),
				FilteredRows:  len(rep.PerBuilding),
			},
			Outputs:  paths,
			Findings: findings,
		}
		if err := export.WriteManifest(filepath.Join(outDir, base+".yaml"), manifest); err != nil {
			return err
		}

		if keep {
			fmt.Printf("Workspace kept at %s\n", ws.Path())
		} else if err := ws.Remove(); err != nil {
			return err
		}

		printReportResult(rep, findings, paths.Workbook)
		return nil
	},
}

func init() {
	reportCmd.Flags().String("workspace", "", "directory for the disposable working database (default from config)")
	reportCmd.Flags().String("out", "", "directory for the report files (default from config)")
	reportCmd.Flags().Int("cutoff", 0, "max dwelling units per building to include (default from config)")
	reportCmd.Flags().Bool("keep-workspace", false, "keep the working database after the run")
	reportCmd.Flags().String("from-shapefile", "", "read sources from a directory of exported shapefiles/CSV instead of the geodatabase")
	rootCmd.AddCommand(reportCmd)
}

// sourcePool creates a pgxpool.Pool against the enterprise geodatabase.
func sourcePool(ctx context.Context) (*pgxpool.Pool, error) {
	if cfg.Source.DatabaseURL == "" {
		return nil, eris.New("source: no database_url configured (set source.database_url or use --from-shapefile)")
	}

	pool, err := pgxpool.New(ctx, cfg.Source.DatabaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "source: create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "source: ping database")
	}

	fmt.Println("Connected to database")
	return pool, nil
}

// loadDatasets reads the three source datasets, either from the geodatabase
// or from an exported shapefile/CSV directory.
func loadDatasets(ctx context.Context, shpDir string) (*source.Datasets, error) {
	if shpDir == "" {
		pool, err := sourcePool(ctx)
		if err != nil {
			return nil, err
		}
		defer pool.Close()

		return source.FetchAll(ctx, pool, source.Tables{
			Buildings: cfg.Source.BuildingsTable,
			Use:       cfg.Source.UseTable,
			Areas:     cfg.Source.AreasTable,
		})
	}

	frags, err := source.BuildingsFromShapefile(filepath.Join(shpDir, shpBuildings), fieldBuildingID)
	if err != nil {
		return nil, err
	}
	areas, err := source.AreasFromShapefile(filepath.Join(shpDir, shpAreas), fieldAreaName)
	if err != nil {
		return nil, err
	}
	uses, err := source.UsesFromCSV(filepath.Join(shpDir, csvUse))
	if err != nil {
		return nil, err
	}

	return &source.Datasets{Fragments: frags, Uses: uses, Areas: areas}, nil
}

// stageAll copies the fetched datasets into the workspace.
func stageAll(ctx context.Context, ws *workspace.Workspace, ds *source.Datasets) (workspace.Counts, error) {
	var counts workspace.Counts
	var err error

	if counts.Fragments, err = ws.StageBuildings(ctx, ds.Fragments); err != nil {
		return counts, err
	}
	if counts.UseRecords, err = ws.StageUses(ctx, ds.Uses); err != nil {
		return counts, err
	}
	if counts.Areas, err = ws.StageAreas(ctx, ds.Areas); err != nil {
		return counts, err
	}
	return counts, nil
}

func sanityThresholds() report.Thresholds {
	return report.Thresholds{
		MinJoinedRecords: cfg.Sanity.MinJoinedRecords,
		MinDetailRows:    cfg.Sanity.MinDetailRows,
		MinFilteredRows:  cfg.Sanity.MinFilteredRows,
		ExpectedAreas:    cfg.Sanity.ExpectedAreas,
		WatchArea:        cfg.Sanity.WatchArea,
		MinWatchUnits:    cfg.Sanity.MinWatchUnits,
	}
}

// printReportResult writes a short run summary to stdout.
func printReportResult(rep report.Report, findings []report.Finding, workbook string) {
	fmt.Printf("Report written to %s\n", workbook)
	for _, a := range rep.ByArea {
		fmt.Printf("  %-20s %8d units %8d buildings\n", a.CollArea, a.Units, a.Buildings)
	}

	var failed int
	for _, f := range findings {
		if !f.OK {
			failed++
			fmt.Fprintf(os.Stderr, "WARNING: %s\n", f.Message)
		}
	}
	if failed == 0 {
		fmt.Println("All sanity checks passed")
	}
}
