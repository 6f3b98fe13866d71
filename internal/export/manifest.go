package export

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/halifax-gis/dwellings-cli/internal/report"
)

// ManifestCounts records the staged and derived row counts of a run.
type ManifestCounts struct {
	Fragments     int `yaml:"building_fragments"`
	UseRecords    int `yaml:"use_records"`
	Areas         int `yaml:"collection_areas"`
	JoinedRecords int `yaml:"joined_records"`
	DetailRows    int `yaml:"detail_rows"`
	FilteredRows  int `yaml:"filtered_rows"`
}

// ManifestOutputs lists the files a run produced.
type ManifestOutputs struct {
	Workbook   string `yaml:"workbook"`
	FinalCSV   string `yaml:"final_csv"`
	SummaryCSV string `yaml:"summary_csv"`
}

// Manifest is the YAML sidecar written next to the report files. It is the
// record of what a run read, produced, and flagged.
type Manifest struct {
	RunID      string           `yaml:"run_id"`
	StartedAt  time.Time        `yaml:"started_at"`
	FinishedAt time.Time        `yaml:"finished_at"`
	Workspace  string           `yaml:"workspace"`
	Counts     ManifestCounts   `yaml:"counts"`
	Outputs    ManifestOutputs  `yaml:"outputs"`
	Findings   []report.Finding `yaml:"sanity_findings"`
}

// WriteManifest marshals m to path, replacing any existing file.
func WriteManifest(path string, m Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "export: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}

	zap.L().Info("exported run manifest",
		zap.String("component", "export.manifest"),
		zap.String("path", path),
		zap.String("run_id", m.RunID),
	)

	return nil
}
