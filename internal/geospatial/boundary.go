package geospatial

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/apperr"
)

// Identifier fields of TIGER/Line block group shapefiles. 2020 vintages
// suffix every field with "20".
var (
	idFields   = []string{"GEOID20", "GEOID"}
	codeFields = [][4]string{
		{"STATEFP20", "COUNTYFP20", "TRACTCE20", "BLKGRPCE20"},
		{"STATEFP", "COUNTYFP", "TRACTCE", "BLKGRPCE"},
	}
)

// Boundary is one block group polygon with its shapefile attributes.
// Geometry is nil for null shape records and for records whose rings are all
// degenerate.
type Boundary struct {
	GEOID      string
	Attributes map[string]any
	Geometry   *geom.MultiPolygon
}

// BoundarySet holds the block groups of one county. It is shared through the
// cache and must not be modified.
type BoundarySet struct {
	FIPS       string
	Fields     []string
	Boundaries []Boundary
}

// BoundaryPath substitutes fips into pattern under dir.
func BoundaryPath(dir, pattern, fips string) string {
	return filepath.Join(dir, strings.ReplaceAll(pattern, "{fips}", fips))
}

// LoadBoundaries reads the block group shapefile of one county. Each
// boundary's GEOID comes from the file's identifier field or, when the file
// has none, from its state, county, tract and block group fields; in that
// case a GEOID attribute is added as well.
func LoadBoundaries(fips, dir, pattern string) (*BoundarySet, error) {
	path := BoundaryPath(dir, pattern, fips)
	if _, err := os.Stat(path); err != nil {
		return nil, apperr.NewIntegrityError(eris.Wrapf(err, "geospatial: boundary file for %s", fips))
	}

	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geospatial: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	numeric := make([]bool, len(fields))
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
		numeric[i] = f.Fieldtype == 'N' || f.Fieldtype == 'F'
		index[names[i]] = i
	}

	idOf, synthesized, err := identifier(index)
	if err != nil {
		return nil, apperr.NewIntegrityError(eris.Wrapf(err, "geospatial: shapefile %s", path))
	}

	set := &BoundarySet{FIPS: fips, Fields: names}
	if synthesized {
		set.Fields = append(set.Fields, "GEOID")
	}

	var empty int
	for reader.Next() {
		_, shape := reader.Shape()

		raw := make([]string, len(fields))
		attrs := make(map[string]any, len(set.Fields))
		for i := range fields {
			raw[i] = strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[names[i]] = attributeValue(raw[i], numeric[i])
		}

		id := idOf(raw)
		if synthesized {
			attrs["GEOID"] = id
		}

		var mp *geom.MultiPolygon
		if poly, ok := shape.(*shp.Polygon); ok {
			mp = polygonToMultiPolygon(poly)
		}
		if mp == nil {
			empty++
		}

		set.Boundaries = append(set.Boundaries, Boundary{GEOID: id, Attributes: attrs, Geometry: mp})
	}

	if empty > 0 {
		zap.L().Debug("geospatial: shapefile records without geometry",
			zap.String("fips", fips),
			zap.Int("records", empty),
		)
	}

	return set, nil
}

// identifier returns a function deriving a record's GEOID from its raw
// attribute values.
func identifier(index map[string]int) (idOf func([]string) string, synthesized bool, err error) {
	for _, name := range idFields {
		if i, ok := index[name]; ok {
			return func(raw []string) string { return raw[i] }, false, nil
		}
	}

	for _, set := range codeFields {
		var idx [4]int
		found := true
		for j, name := range set {
			i, ok := index[name]
			if !ok {
				found = false
				break
			}
			idx[j] = i
		}
		if found {
			return func(raw []string) string {
				return raw[idx[0]] + raw[idx[1]] + raw[idx[2]] + raw[idx[3]]
			}, true, nil
		}
	}

	return nil, false, eris.New("no GEOID or block group code fields")
}

func attributeValue(s string, numeric bool) any {
	if s == "" {
		return nil
	}
	if numeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if math.IsNaN(f) || math.IsInf(f, 0) {
				return nil
			}
			return f
		}
	}
	return s
}

// polygonToMultiPolygon converts a shapefile Polygon to a geom.MultiPolygon.
// Clockwise rings start a new polygon; counter-clockwise rings are holes of
// the polygon before them.
func polygonToMultiPolygon(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}

	mp := geom.NewMultiPolygon(geom.XY)
	var current *geom.Polygon

	flush := func() {
		if current == nil {
			return
		}
		if err := mp.Push(current); err != nil {
			zap.L().Debug("geospatial: skipping malformed polygon", zap.Error(err))
		}
		current = nil
	}

	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end-start < 4 {
			continue
		}

		flat := make([]float64, 0, (end-start)*2)
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}

		ring := geom.NewLinearRingFlat(geom.XY, flat)
		hole := xy.IsRingCounterClockwise(geom.XY, flat)
		if !hole || current == nil {
			flush()
			current = geom.NewPolygon(geom.XY)
		}
		if err := current.Push(ring); err != nil {
			zap.L().Debug("geospatial: skipping malformed ring", zap.Int32("part", i), zap.Error(err))
		}
	}
	flush()

	if mp.NumPolygons() == 0 {
		return nil
	}
	return mp
}
