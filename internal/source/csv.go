package source

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// UsesFromCSV reads a building-use snapshot. The file needs a header row
// with BL_ID and DWEL_UNITS columns (any case, any order); blank or
// non-numeric unit values count as zero.
func UsesFromCSV(path string) ([]model.UseRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "source: open use snapshot %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "source: read use snapshot header")
	}

	idCol, unitsCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "bl_id":
			idCol = i
		case "dwel_units":
			unitsCol = i
		}
	}
	if idCol < 0 || unitsCol < 0 {
		return nil, eris.Errorf("source: use snapshot %s missing BL_ID/DWEL_UNITS columns", path)
	}

	var uses []model.UseRecord
	var badUnits int

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "source: read use snapshot row")
		}
		if idCol >= len(record) {
			continue
		}
		blID := strings.TrimSpace(record[idCol])
		if blID == "" {
			continue
		}

		var units int64
		if unitsCol < len(record) {
			raw := strings.TrimSpace(record[unitsCol])
			if raw != "" {
				n, convErr := strconv.ParseInt(raw, 10, 64)
				if convErr != nil {
					badUnits++
				} else {
					units = n
				}
			}
		}
		uses = append(uses, model.UseRecord{BuildingID: blID, DwellUnits: units})
	}

	if badUnits > 0 {
		zap.L().Warn("source: non-numeric dwelling unit values treated as zero",
			zap.String("path", path),
			zap.Int("rows", badUnits),
		)
	}

	return uses, nil
}
