package geospatial

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/dataset"
)

// zfill left-pads s with zeros to width.
func zfill(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// FIPS returns the 5-digit state+county code.
func FIPS(state, county string) string {
	return zfill(state, 2) + zfill(county, 3)
}

// GEOID joins zero-padded state(2), county(3) and tract(6) codes with the
// block group code.
func GEOID(state, county, tract, blockGroup string) string {
	return FIPS(state, county) + zfill(tract, 6) + blockGroup
}

// geoColumns returns the four code columns of ds.
func geoColumns(ds *dataset.Dataset) (state, county, tract, bg *dataset.Column, err error) {
	if state, err = ds.Column(dataset.StateColumn); err != nil {
		return nil, nil, nil, nil, err
	}
	if county, err = ds.Column(dataset.CountyColumn); err != nil {
		return nil, nil, nil, nil, err
	}
	if tract, err = ds.Column(dataset.TractColumn); err != nil {
		return nil, nil, nil, nil, err
	}
	if bg, err = ds.Column(dataset.BlockGroupColumn); err != nil {
		return nil, nil, nil, nil, err
	}
	return state, county, tract, bg, nil
}

// BuildGEOID returns a copy of ds with a GEOID column derived from each
// row's code columns.
func BuildGEOID(ds *dataset.Dataset) (*dataset.Dataset, error) {
	state, county, tract, bg, err := geoColumns(ds)
	if err != nil {
		return nil, eris.Wrap(err, "geospatial: build geoid")
	}

	ids := make([]string, ds.Len())
	for i := range ids {
		ids[i] = GEOID(state.Text(i), county.Text(i), tract.Text(i), bg.Text(i))
	}

	return ds.WithColumn(dataset.GEOIDColumn, ids)
}

// CountyFIPS lists the distinct county codes of ds in order of first
// appearance.
func CountyFIPS(ds *dataset.Dataset) ([]string, error) {
	state, county, _, _, err := geoColumns(ds)
	if err != nil {
		return nil, eris.Wrap(err, "geospatial: county fips")
	}

	seen := make(map[string]struct{})
	var codes []string
	for i := 0; i < ds.Len(); i++ {
		code := FIPS(state.Text(i), county.Text(i))
		if _, ok := seen[code]; ok {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes, nil
}
