package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/halifax-gis/dwellings-cli/internal/workspace"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Stage the source tables into a fresh working database",
	Long:  "Copies the building polygon, building use, and waste collection area datasets into a new disposable workspace without running the overlay. Useful for inspecting staged data before a report run.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		shpDir, _ := cmd.Flags().GetString("from-shapefile")
		wsDir, _ := cmd.Flags().GetString("workspace")
		if wsDir == "" {
			wsDir = cfg.Workspace.Dir
		}

		if err := cfg.Validate("stage", shpDir == ""); err != nil {
			return err
		}

		ds, err := loadDatasets(ctx, shpDir)
		if err != nil {
			return err
		}

		ws, err := workspace.Create(ctx, wsDir)
		if err != nil {
			return err
		}
		defer ws.Close() //nolint:errcheck

		counts, err := stageAll(ctx, ws, ds)
		if err != nil {
			return err
		}

		fmt.Printf("Staged %d building fragments, %d use records, %d collection areas into %s\n",
			counts.Fragments, counts.UseRecords, counts.Areas, ws.Path())
		return nil
	},
}

func init() {
	stageCmd.Flags().String("workspace", "", "directory for the working database (default from config)")
	stageCmd.Flags().String("from-shapefile", "", "read sources from a directory of exported shapefiles/CSV instead of the geodatabase")
	rootCmd.AddCommand(stageCmd)
}
