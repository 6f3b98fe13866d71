package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

func TestSpatialJoin_AssignsContainingArea(t *testing.T) {
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(1, 1, 2, 2)},
		{BuildingID: "B002", Geom: square(11, 11, 12, 12)},
	})
	areas := []model.CollectionArea{
		area("AREA 1", square(0, 0, 10, 10)),
		area("AREA 2", square(10, 10, 20, 20)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 2)

	assert.Equal(t, "AREA 1", joined[0].CollArea)
	assert.Equal(t, 1, joined[0].JoinCount)
	assert.Equal(t, "AREA 2", joined[1].CollArea)
	assert.Equal(t, 1, joined[1].JoinCount)
}

func TestSpatialJoin_KeepAllOutsideEveryArea(t *testing.T) {
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(100, 100, 101, 101)},
	})
	areas := []model.CollectionArea{
		area("AREA 1", square(0, 0, 10, 10)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 1)
	assert.Empty(t, joined[0].CollArea)
	assert.Equal(t, 0, joined[0].JoinCount)
}

func TestSpatialJoin_OneToOneFirstMatchWins(t *testing.T) {
	// Overlapping areas: the building centroid is inside both.
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(4, 4, 6, 6)},
	})
	areas := []model.CollectionArea{
		area("AREA 1", square(0, 0, 10, 10)),
		area("AREA 2", square(0, 0, 10, 10)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 1)
	assert.Equal(t, "AREA 1", joined[0].CollArea)
	assert.Equal(t, 1, joined[0].JoinCount)
}

func TestSpatialJoin_BoundarySliverFallsBackToVertices(t *testing.T) {
	// Building centroid sits outside the area, but its western vertices
	// are inside; the vertex fallback must still match it.
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(9, 0, 15, 2)},
	})
	areas := []model.CollectionArea{
		area("AREA 1", square(0, 0, 10, 10)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 1)
	assert.Equal(t, "AREA 1", joined[0].CollArea)
}

func TestSpatialJoin_SkipsEmptyAreas(t *testing.T) {
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(1, 1, 2, 2)},
	})
	areas := []model.CollectionArea{
		{Name: "EMPTY", Geom: nil},
		area("AREA 1", square(0, 0, 10, 10)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 1)
	assert.Equal(t, "AREA 1", joined[0].CollArea)
}

func TestSpatialJoin_MultipartAreaHole(t *testing.T) {
	// Building inside the hole of an area must not match it.
	buildings := Dissolve([]model.BuildingFragment{
		{BuildingID: "B001", Geom: square(4.5, 4.5, 5.5, 5.5)},
	})
	areas := []model.CollectionArea{
		area("DONUT", squareWithHole(0, 0, 10, 10, 4, 4, 6, 6)),
	}

	joined := SpatialJoin(buildings, areas)
	require.Len(t, joined, 1)
	assert.Empty(t, joined[0].CollArea)
}

func TestSpatialJoin_NoBuildings(t *testing.T) {
	joined := SpatialJoin(nil, []model.CollectionArea{area("AREA 1", square(0, 0, 1, 1))})
	assert.Empty(t, joined)
}
