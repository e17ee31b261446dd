// Package geotest writes small TIGER-like block group shapefiles for tests.
package geotest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/require"
)

// Pattern is the boundary file name pattern the fixtures are written with.
const Pattern = "tl_2020_{fips}_bg20.shp"

// BlockGroup is one fixture block group drawn as a unit square whose
// lower-left corner is (X, Y). A Null block group is written as a null shape
// record that still carries its attributes.
type BlockGroup struct {
	State, County, Tract, BG string
	X, Y                     float64
	Null                     bool
}

// GEOID returns the block group's full identifier.
func (b BlockGroup) GEOID() string {
	return b.State + b.County + b.Tract + b.BG
}

// Square returns a clockwise unit square, the winding shapefiles use for
// outer rings.
func Square(x, y float64) []shp.Point {
	return []shp.Point{{X: x, Y: y}, {X: x, Y: y + 1}, {X: x + 1, Y: y + 1}, {X: x + 1, Y: y}, {X: x, Y: y}}
}

// Polygon builds a shapefile polygon from rings.
func Polygon(rings ...[]shp.Point) *shp.Polygon {
	p := shp.Polygon(*shp.NewPolyLine(rings))
	return &p
}

// WriteCounty writes the block group shapefile of one county under dir.
// When withGEOID is false the GEOID20 field is left out and readers must
// derive it from the code fields.
func WriteCounty(t testing.TB, dir, fips string, withGEOID bool, groups ...BlockGroup) {
	t.Helper()

	base := filepath.Join(dir, strings.TrimSuffix(strings.ReplaceAll(Pattern, "{fips}", fips), ".shp"))
	w, err := shp.Create(base+".shp", shp.POLYGON)
	require.NoError(t, err)

	fields := []shp.Field{
		shp.StringField("STATEFP20", 2),
		shp.StringField("COUNTYFP20", 3),
		shp.StringField("TRACTCE20", 6),
		shp.StringField("BLKGRPCE20", 1),
		shp.NumberField("ALAND20", 14),
	}
	if withGEOID {
		fields = append(fields, shp.StringField("GEOID20", 12))
	}
	require.NoError(t, w.SetFields(fields))

	for _, g := range groups {
		var row int
		if g.Null {
			// The record header takes the writer's type, so switch it for
			// the null record only.
			w.GeometryType = shp.NULL
			row = int(w.Write(&shp.Null{}))
			w.GeometryType = shp.POLYGON
		} else {
			row = int(w.Write(Polygon(Square(g.X, g.Y))))
		}
		require.NoError(t, w.WriteAttribute(row, 0, g.State))
		require.NoError(t, w.WriteAttribute(row, 1, g.County))
		require.NoError(t, w.WriteAttribute(row, 2, g.Tract))
		require.NoError(t, w.WriteAttribute(row, 3, g.BG))
		require.NoError(t, w.WriteAttribute(row, 4, 1000))
		if withGEOID {
			require.NoError(t, w.WriteAttribute(row, 5, g.GEOID()))
		}
	}
	w.Close()

	// go-shp v0.1.1 names the attribute table "<base>dbf" while its reader
	// looks for "<base>.dbf".
	require.NoError(t, os.Rename(base+"dbf", base+".dbf"))
}
