package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/halifax-gis/dwellings-cli/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show runs recorded in the working database",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		wsDir, _ := cmd.Flags().GetString("workspace")
		if wsDir == "" {
			wsDir = cfg.Workspace.Dir
		}

		if err := cfg.Validate("status", false); err != nil {
			return err
		}

		ws, err := workspace.Open(filepath.Join(wsDir, workspace.DefaultName))
		if err != nil {
			return err
		}
		defer ws.Close() //nolint:errcheck

		runs, err := ws.Runs(ctx)
		if err != nil {
			return err
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs recorded.")
			return nil
		}

		formatRuns(os.Stdout, runs)
		return nil
	},
}

func init() {
	statusCmd.Flags().String("workspace", "", "directory holding the working database (default from config)")
	rootCmd.AddCommand(statusCmd)
}

// formatRuns writes a tabular list of runs to w.
func formatRuns(out io.Writer, runs []workspace.RunInfo) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTARTED\tFINISHED\tFRAGMENTS\tUSE_ROWS\tAREAS\tJOINED\tDETAIL")
	_, _ = fmt.Fprintln(w, "--\t-------\t--------\t---------\t--------\t-----\t------\t------")

	for _, r := range runs {
		finished := "running"
		if r.FinishedAt != nil {
			finished = r.FinishedAt.Format("2006-01-02 15:04")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			truncateID(r.ID),
			r.StartedAt.Format("2006-01-02 15:04"),
			finished,
			r.Fragments,
			r.UseRecords,
			r.Areas,
			r.JoinedRecords,
			r.DetailRows,
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
