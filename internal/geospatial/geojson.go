package geospatial

import (
	"strconv"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection serializes features as GeoJSON. Each feature with a
// geometry carries its bounding box and the collection carries the overall
// extent, which the map uses to fit its viewport.
func FeatureCollection(features []Feature) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(features)),
	}

	var extent *geom.Bounds
	for i, f := range features {
		feature := &geojson.Feature{
			ID:         strconv.Itoa(i),
			Properties: f.Properties,
		}
		// Left unset, Geometry encodes as null.
		if f.Geometry != nil {
			feature.BBox = f.Geometry.Bounds()
			feature.Geometry = f.Geometry
			if extent == nil {
				extent = geom.NewBounds(geom.XY)
			}
			extent.Extend(f.Geometry)
		}
		fc.Features = append(fc.Features, feature)
	}
	fc.BBox = extent

	return fc
}
