package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source    SourceConfig    `yaml:"source" mapstructure:"source"`
	Workspace WorkspaceConfig `yaml:"workspace" mapstructure:"workspace"`
	Report    ReportConfig    `yaml:"report" mapstructure:"report"`
	Sanity    SanityConfig    `yaml:"sanity" mapstructure:"sanity"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// SourceConfig points at the enterprise geodatabase and names the three
// source datasets the pipeline stages.
type SourceConfig struct {
	DatabaseURL    string `yaml:"database_url" mapstructure:"database_url"`
	BuildingsTable string `yaml:"buildings_table" mapstructure:"buildings_table"`
	UseTable       string `yaml:"use_table" mapstructure:"use_table"`
	AreasTable     string `yaml:"areas_table" mapstructure:"areas_table"`
}

// WorkspaceConfig configures the disposable per-run working database.
type WorkspaceConfig struct {
	Dir  string `yaml:"dir" mapstructure:"dir"`
	Keep bool   `yaml:"keep" mapstructure:"keep"`
}

// ReportConfig configures aggregation and export.
type ReportConfig struct {
	OutDir     string `yaml:"out_dir" mapstructure:"out_dir"`
	UnitCutoff int    `yaml:"unit_cutoff" mapstructure:"unit_cutoff"`
}

// SanityConfig holds the historical-range thresholds checked after each run.
// Out-of-range counts log warnings; they never fail the run.
type SanityConfig struct {
	MinJoinedRecords int    `yaml:"min_joined_records" mapstructure:"min_joined_records"`
	MinDetailRows    int    `yaml:"min_detail_rows" mapstructure:"min_detail_rows"`
	MinFilteredRows  int    `yaml:"min_filtered_rows" mapstructure:"min_filtered_rows"`
	ExpectedAreas    int    `yaml:"expected_areas" mapstructure:"expected_areas"`
	WatchArea        string `yaml:"watch_area" mapstructure:"watch_area"`
	MinWatchUnits    int    `yaml:"min_watch_units" mapstructure:"min_watch_units"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("DWELLINGS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.buildings_table", "sdeadm.bld_building_polygon")
	v.SetDefault("source.use_table", "sdeadm.bld_building_use")
	v.SetDefault("source.areas_table", "sdeadm.adm_waste_coll_area")
	v.SetDefault("workspace.dir", ".")
	v.SetDefault("workspace.keep", false)
	v.SetDefault("report.out_dir", ".")
	v.SetDefault("report.unit_cutoff", 6)
	v.SetDefault("sanity.min_joined_records", 100000)
	v.SetDefault("sanity.min_detail_rows", 130000)
	v.SetDefault("sanity.min_filtered_rows", 125000)
	v.SetDefault("sanity.expected_areas", 8)
	v.SetDefault("sanity.watch_area", "AREA 1")
	v.SetDefault("sanity.min_watch_units", 30000)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration is usable for the given mode.
// Modes: "report" (full pipeline), "stage" (staging only), "status".
// Shapefile-mode runs skip the database requirement via requireDB=false.
func (c *Config) Validate(mode string, requireDB bool) error {
	var missing []string

	switch mode {
	case "report", "stage":
		if requireDB && c.Source.DatabaseURL == "" {
			missing = append(missing, "source.database_url is required (or use --from-shapefile)")
		}
		if c.Source.BuildingsTable == "" {
			missing = append(missing, "source.buildings_table is required")
		}
		if c.Source.UseTable == "" {
			missing = append(missing, "source.use_table is required")
		}
		if c.Source.AreasTable == "" {
			missing = append(missing, "source.areas_table is required")
		}
	case "status":
		// Reads an existing workspace only.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Report.UnitCutoff < 0 {
		missing = append(missing, "report.unit_cutoff must be >= 0")
	}
	if c.Sanity.ExpectedAreas < 0 {
		missing = append(missing, "sanity.expected_areas must be >= 0")
	}

	if len(missing) > 0 {
		return eris.Errorf("config: %s", strings.Join(missing, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
