package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

func TestDissolve_MergesFragmentsByBuildingID(t *testing.T) {
	fragments := []model.BuildingFragment{
		{BuildingID: "B001", Geom: square(0, 0, 5, 5)},
		{BuildingID: "B001", Geom: square(5, 0, 10, 5)},
		{BuildingID: "B002", Geom: square(20, 20, 25, 25)},
	}

	buildings := Dissolve(fragments)
	require.Len(t, buildings, 2)

	assert.Equal(t, "B001", buildings[0].BuildingID)
	assert.Equal(t, 2, buildings[0].Fragments)
	assert.Equal(t, 2, buildings[0].Geom.NumPolygons())

	assert.Equal(t, "B002", buildings[1].BuildingID)
	assert.Equal(t, 1, buildings[1].Fragments)
	assert.Equal(t, 1, buildings[1].Geom.NumPolygons())
}

func TestDissolve_SortedByBuildingID(t *testing.T) {
	fragments := []model.BuildingFragment{
		{BuildingID: "B900", Geom: square(0, 0, 1, 1)},
		{BuildingID: "B100", Geom: square(2, 2, 3, 3)},
		{BuildingID: "B500", Geom: square(4, 4, 5, 5)},
	}

	buildings := Dissolve(fragments)
	require.Len(t, buildings, 3)
	assert.Equal(t, "B100", buildings[0].BuildingID)
	assert.Equal(t, "B500", buildings[1].BuildingID)
	assert.Equal(t, "B900", buildings[2].BuildingID)
}

func TestDissolve_SkipsUnusableGeometry(t *testing.T) {
	fragments := []model.BuildingFragment{
		{BuildingID: "B001", Geom: nil},
		{BuildingID: "B002", Geom: geom.NewPolygon(geom.XY)}, // no rings
		{BuildingID: "B003", Geom: square(0, 0, 1, 1)},
	}

	buildings := Dissolve(fragments)
	require.Len(t, buildings, 1)
	assert.Equal(t, "B003", buildings[0].BuildingID)
}

func TestDissolve_MultiPolygonFragment(t *testing.T) {
	fragments := []model.BuildingFragment{
		{BuildingID: "B001", Geom: multi(square(0, 0, 1, 1), square(2, 2, 3, 3))},
	}

	buildings := Dissolve(fragments)
	require.Len(t, buildings, 1)
	assert.Equal(t, 2, buildings[0].Geom.NumPolygons())
	assert.Equal(t, 1, buildings[0].Fragments)
}

func TestDissolve_PreservesHoles(t *testing.T) {
	fragments := []model.BuildingFragment{
		{BuildingID: "B001", Geom: squareWithHole(0, 0, 10, 10, 4, 4, 6, 6)},
	}

	buildings := Dissolve(fragments)
	require.Len(t, buildings, 1)
	require.Equal(t, 1, buildings[0].Geom.NumPolygons())
	assert.Equal(t, 2, buildings[0].Geom.Polygon(0).NumLinearRings())
}

func TestDissolve_Empty(t *testing.T) {
	assert.Empty(t, Dissolve(nil))
	assert.Empty(t, Dissolve([]model.BuildingFragment{}))
}
