package world

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// GeoJSON exports every tile as a unit square in grid coordinates
// (x = column, y = row) with its values as properties.
func (w *World) GeoJSON() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for row, tiles := range w.Tiles {
		for col, t := range tiles {
			x, y := float64(col), float64(row)
			cell := orb.Polygon{orb.Ring{
				{x, y}, {x + 1, y}, {x + 1, y + 1}, {x, y + 1}, {x, y},
			}}

			f := geojson.NewFeature(cell)
			f.Properties["row"] = row
			f.Properties["col"] = col
			f.Properties["height"] = t.Height
			f.Properties["food"] = t.Food
			f.Properties["water"] = t.Height <= w.WaterLevel

			fc.Append(f)
		}
	}

	return fc
}
