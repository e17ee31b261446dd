// Package datasettest builds small block group tables for tests.
package datasettest

import (
	"sort"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/census"
	"github.com/sells-group/missing-middle/internal/dataset"
)

// Row is one block group keyed by column name. Columns absent from a row are
// written as empty cells.
type Row map[string]string

// Set stores an integer cell and returns r for chaining.
func (r Row) Set(column string, v int) Row {
	r[column] = strconv.Itoa(v)
	return r
}

// BlockGroup starts a row with its geographic codes and city.
func BlockGroup(state, county, tract, bg, city string) Row {
	return Row{
		dataset.StateColumn:       state,
		dataset.CountyColumn:      county,
		dataset.TractColumn:       tract,
		dataset.BlockGroupColumn:  bg,
		dataset.DefaultCityColumn: city,
	}
}

// WithYear fills every age, race and housing column of year with zero.
func (r Row) WithYear(year string) Row {
	for _, b := range census.AgeBuckets() {
		r.Set(census.AgeColumn(census.Male, b.Raw, year), 0)
		r.Set(census.AgeColumn(census.Female, b.Raw, year), 0)
	}
	for _, race := range census.Races() {
		r.Set(census.RaceColumn(race, year), 0)
	}
	return r.Set(census.HousingColumn(year), 0)
}

// Build turns rows into a Dataset. The header is the sorted union of the
// rows' columns.
func Build(t testing.TB, rows ...Row) *dataset.Dataset {
	t.Helper()

	seen := map[string]struct{}{dataset.DefaultCityColumn: {}}
	for _, r := range rows {
		for k := range r {
			seen[k] = struct{}{}
		}
	}
	header := make([]string, 0, len(seen))
	for k := range seen {
		header = append(header, k)
	}
	sort.Strings(header)

	records := make([][]string, len(rows))
	for i, r := range rows {
		rec := make([]string, len(header))
		for j, h := range header {
			rec[j] = r[h]
		}
		records[i] = rec
	}

	ds, err := dataset.New(header, records, dataset.Options{})
	require.NoError(t, err)
	return ds
}
