package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

func joinedFixture() []JoinedBuilding {
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(1, 1, 2, 2)},
		{BuildingID: "B002", Geom: square(3, 3, 4, 4)},
		{BuildingID: "B003", Geom: square(5, 5, 6, 6)},
	})
	return SpatialJoin(buildings, []model.CollectionArea{
		area("AREA 1", square(0, 0, 10, 10)),
	})
}

func TestAttrJoin_MatchesUnitsByBuildingID(t *testing.T) {
	rows := AttrJoin(joinedFixture(), []model.UseRecord{
		{BuildingID: "B001", DwellUnits: 2},
		{BuildingID: "B002", DwellUnits: 6},
		{BuildingID: "B003", DwellUnits: 1},
	})
	require.Len(t, rows, 3)

	require.NotNil(t, rows[0].DwellUnits)
	assert.Equal(t, int64(2), *rows[0].DwellUnits)
	require.NotNil(t, rows[1].DwellUnits)
	assert.Equal(t, int64(6), *rows[1].DwellUnits)
	require.NotNil(t, rows[2].DwellUnits)
	assert.Equal(t, int64(1), *rows[2].DwellUnits)
}

func TestAttrJoin_MissingUseRecordLeavesNil(t *testing.T) {
	rows := AttrJoin(joinedFixture(), []model.UseRecord{
		{BuildingID: "B001", DwellUnits: 2},
	})
	require.Len(t, rows, 3)

	assert.NotNil(t, rows[0].DwellUnits)
	assert.Nil(t, rows[1].DwellUnits)
	assert.Nil(t, rows[2].DwellUnits)
}

func TestAttrJoin_DuplicateUseRecordsSum(t *testing.T) {
	rows := AttrJoin(joinedFixture(), []model.UseRecord{
		{BuildingID: "B001", DwellUnits: 2},
		{BuildingID: "B001", DwellUnits: 3},
	})
	require.Len(t, rows, 3)
	require.NotNil(t, rows[0].DwellUnits)
	assert.Equal(t, int64(5), *rows[0].DwellUnits)
}

func TestAttrJoin_ZeroUnitRecordIsNotNil(t *testing.T) {
	rows := AttrJoin(joinedFixture(), []model.UseRecord{
		{BuildingID: "B001", DwellUnits: 0},
	})
	require.NotNil(t, rows[0].DwellUnits)
	assert.Equal(t, int64(0), *rows[0].DwellUnits)
}

func TestAttrJoin_CarriesAreaAndJoinCount(t *testing.T) {
	rows := AttrJoin(joinedFixture(), nil)
	for _, row := range rows {
		assert.Equal(t, "AREA 1", row.CollArea)
		assert.Equal(t, 1, row.JoinCount)
	}
}
