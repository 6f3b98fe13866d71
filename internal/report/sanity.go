package report

import (
	"fmt"

	"go.uber.org/zap"
)

// Thresholds holds the historical ranges the run's counts are checked
// against. A zero threshold disables that check.
type Thresholds struct {
	MinJoinedRecords int    // buildings that landed inside an area
	MinDetailRows    int    // normalized frame rows
	MinFilteredRows  int    // per-building rows after the unit cutoff
	ExpectedAreas    int    // distinct collection areas in the final table
	WatchArea        string // single area whose unit total is tracked
	MinWatchUnits    int
}

// Finding is the outcome of one sanity check.
type Finding struct {
	Check   string `yaml:"check"`
	OK      bool   `yaml:"ok"`
	Message string `yaml:"message"`
}

// Sanity compares the run's counts against the thresholds. Out-of-range
// counts log warnings and come back as failed findings; the run itself
// never aborts on a sanity failure.
func Sanity(rep Report, joinedRecords, detailRows int, t Thresholds) []Finding {
	log := zap.L().With(zap.String("component", "report.sanity"))

	var findings []Finding
	record := func(check string, ok bool, msg string) {
		findings = append(findings, Finding{Check: check, OK: ok, Message: msg})
		if ok {
			log.Info(msg, zap.String("check", check))
		} else {
			log.Warn(msg, zap.String("check", check))
		}
	}

	if t.MinJoinedRecords > 0 {
		record("joined_records",
			joinedRecords >= t.MinJoinedRecords,
			fmt.Sprintf("number of joined records: %d (should be >%d)", joinedRecords, t.MinJoinedRecords),
		)
	}

	if t.MinDetailRows > 0 {
		record("detail_rows",
			detailRows >= t.MinDetailRows,
			fmt.Sprintf("number of detail rows: %d (expected >=%d)", detailRows, t.MinDetailRows),
		)
	}

	if t.MinFilteredRows > 0 {
		record("filtered_rows",
			len(rep.PerBuilding) >= t.MinFilteredRows,
			fmt.Sprintf("number of records in filtered dwelling units table: %d (expected >=%d)", len(rep.PerBuilding), t.MinFilteredRows),
		)
	}

	if t.ExpectedAreas > 0 {
		areas := 0
		for _, a := range rep.ByArea {
			if a.CollArea != TotalLabel && a.CollArea != NoAreaLabel {
				areas++
			}
		}
		record("collection_areas",
			areas == t.ExpectedAreas,
			fmt.Sprintf("collection areas in report: %d (expected %d)", areas, t.ExpectedAreas),
		)
	}

	if t.WatchArea != "" && t.MinWatchUnits > 0 {
		var units int64
		found := false
		for _, a := range rep.ByArea {
			if a.CollArea == t.WatchArea {
				units = a.Units
				found = true
				break
			}
		}
		record("watch_area_units",
			found && units >= int64(t.MinWatchUnits),
			fmt.Sprintf("%s units: %d (expected >=%d)", t.WatchArea, units, t.MinWatchUnits),
		)
	}

	return findings
}
