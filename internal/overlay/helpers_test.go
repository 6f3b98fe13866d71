package overlay

import (
	"github.com/twpayne/go-geom"

	"github.com/halifax-gis/dwellings-cli/internal/model"
)

// square returns a closed XY square polygon with corners (x0,y0)-(x1,y1).
func square(x0, y0, x1, y1 float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x0, y0,
		x1, y0,
		x1, y1,
		x0, y1,
		x0, y0,
	}, []int{10})
}

// squareWithHole returns a square polygon with a square hole cut out.
func squareWithHole(x0, y0, x1, y1, hx0, hy0, hx1, hy1 float64) *geom.Polygon {
	return geom.NewPolygonFlat(geom.XY, []float64{
		x0, y0,
		x1, y0,
		x1, y1,
		x0, y1,
		x0, y0,
		hx0, hy0,
		hx0, hy1,
		hx1, hy1,
		hx1, hy0,
		hx0, hy0,
	}, []int{10, 20})
}

// multi wraps polygons into a multipolygon.
func multi(polys ...*geom.Polygon) *geom.MultiPolygon {
	mp := geom.NewMultiPolygon(geom.XY)
	for _, p := range polys {
		if err := mp.Push(p); err != nil {
			panic(err)
		}
	}
	return mp
}

// area builds a named collection area from polygons.
func area(name string, polys ...*geom.Polygon) model.CollectionArea {
	return model.CollectionArea{Name: name, Geom: multi(polys...)}
}
