package geospatial

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/missing-middle/internal/apperr"
	"github.com/sells-group/missing-middle/internal/census"
	"github.com/sells-group/missing-middle/internal/dataset"
)

// Properties added to every merged feature.
const (
	PropHousingChange        = "housing_units_change"
	PropHousingChangePercent = "housing_units_change_percent"
	PropZ                    = "z"
)

// Feature is one boundary joined with at most one tabular row. Properties
// holds nil for every tabular column of an unmatched boundary.
type Feature struct {
	GEOID      string
	Geometry   *geom.MultiPolygon
	Properties map[string]any
}

// MergeOptions configures a Merger.
type MergeOptions struct {
	Dir         string         // directory holding boundary files
	Pattern     string         // file name pattern containing {fips}
	Cache       *BoundaryCache // optional; nil reads every file per request
	Concurrency int            // parallel county loads (default 1)
}

// Merger joins the dataset onto county block group boundaries.
type Merger struct {
	opts MergeOptions
}

// NewMerger creates a Merger.
func NewMerger(opts MergeOptions) *Merger {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	return &Merger{opts: opts}
}

// CacheStats reports boundary cache statistics; ok is false when caching is
// disabled.
func (m *Merger) CacheStats() (stats CacheStats, ok bool) {
	if m.opts.Cache == nil {
		return CacheStats{}, false
	}
	return m.opts.Cache.Stats(), true
}

// Merge builds the choropleth payload: every block group of every county in
// ds, with the tabular columns, the housing change between year1 and year2,
// and z set only for block groups of city.
func (m *Merger) Merge(ctx context.Context, ds *dataset.Dataset, year1, year2, city string) (*geojson.FeatureCollection, error) {
	start := time.Now()
	log := zap.L().With(
		zap.String("component", "geospatial.merge"),
		zap.String("city", city),
		zap.String("year1", year1),
		zap.String("year2", year2),
	)

	for _, year := range []string{year1, year2} {
		col, err := ds.Column(census.HousingColumn(year))
		if err != nil {
			return nil, eris.Wrap(err, "geospatial: merge")
		}
		if !col.Numeric() {
			return nil, apperr.NewIntegrityError(eris.Errorf("geospatial: column %s is not numeric", col.Name))
		}
	}

	withID, err := BuildGEOID(ds)
	if err != nil {
		return nil, err
	}
	codes, err := CountyFIPS(withID)
	if err != nil {
		return nil, err
	}

	sets := make([]*BoundarySet, len(codes))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Concurrency)
	for i, fips := range codes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return eris.Wrap(err, "geospatial: context cancelled")
			}
			set, err := m.boundaries(fips)
			if err != nil {
				return err
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index, err := geoidIndex(withID)
	if err != nil {
		return nil, err
	}

	var features []Feature
	for _, set := range sets {
		joined := JoinTabular(set, withID, index)
		features = append(features, HousingDeltas(joined, year1, year2, city, ds.CityColumn())...)
	}

	log.Info("geography merged",
		zap.Int("counties", len(codes)),
		zap.Int("features", len(features)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return FeatureCollection(features), nil
}

// boundaries returns the boundary set of one county, consulting the cache.
func (m *Merger) boundaries(fips string) (*BoundarySet, error) {
	if m.opts.Cache != nil {
		if set := m.opts.Cache.Get(fips); set != nil {
			return set, nil
		}
	}

	set, err := LoadBoundaries(fips, m.opts.Dir, m.opts.Pattern)
	if err != nil {
		return nil, err
	}

	if m.opts.Cache != nil {
		m.opts.Cache.Put(set)
	}
	return set, nil
}

// geoidIndex maps each GEOID to the rows carrying it.
func geoidIndex(ds *dataset.Dataset) (map[string][]int, error) {
	col, err := ds.Column(dataset.GEOIDColumn)
	if err != nil {
		return nil, eris.Wrap(err, "geospatial: index geoid")
	}
	index := make(map[string][]int, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		id := col.Text(i)
		index[id] = append(index[id], i)
	}
	return index, nil
}

// JoinTabular left-joins the rows of ds onto set by GEOID. A boundary with no
// matching row is kept with nil tabular properties; a boundary matching
// several rows yields one feature per row. Boundary attributes win when a
// tabular column has the same name.
func JoinTabular(set *BoundarySet, ds *dataset.Dataset, index map[string][]int) []Feature {
	columns := ds.Columns()
	cols := make([]*dataset.Column, len(columns))
	for i, name := range columns {
		cols[i], _ = ds.Column(name)
	}

	build := func(b Boundary, row int) Feature {
		props := make(map[string]any, len(b.Attributes)+len(cols)+3)
		for k, v := range b.Attributes {
			props[k] = v
		}
		for _, c := range cols {
			if _, taken := props[c.Name]; taken {
				continue
			}
			if row < 0 {
				props[c.Name] = nil
			} else {
				props[c.Name] = c.Value(row)
			}
		}
		return Feature{GEOID: b.GEOID, Geometry: b.Geometry, Properties: props}
	}

	features := make([]Feature, 0, len(set.Boundaries))
	for _, b := range set.Boundaries {
		rows := index[b.GEOID]
		if len(rows) == 0 {
			features = append(features, build(b, -1))
			continue
		}
		for _, r := range rows {
			features = append(features, build(b, r))
		}
	}
	return features
}

func floatProp(props map[string]any, name string) (float64, bool) {
	v, ok := props[name].(float64)
	return v, ok
}

// HousingDeltas returns copies of features carrying the housing unit change
// between year1 and year2, its percent (nil when year1 is missing or zero),
// and z: the change for features whose cityColumn equals city, nil elsewhere.
func HousingDeltas(features []Feature, year1, year2, city, cityColumn string) []Feature {
	out := make([]Feature, len(features))
	for i, f := range features {
		props := make(map[string]any, len(f.Properties)+3)
		for k, v := range f.Properties {
			props[k] = v
		}

		units1, ok1 := floatProp(props, census.HousingColumn(year1))
		units2, ok2 := floatProp(props, census.HousingColumn(year2))

		var change, percent any
		if ok1 && ok2 {
			change = math.RoundToEven(units2 - units1)
			if units1 != 0 {
				percent = census.Round((units2-units1)/units1*100, 2)
			}
		}

		var z any
		if town, ok := props[cityColumn].(string); ok && town == city {
			z = change
		}

		props[PropHousingChange] = change
		props[PropHousingChangePercent] = percent
		props[PropZ] = z

		out[i] = Feature{GEOID: f.GEOID, Geometry: f.Geometry, Properties: props}
	}
	return out
}
