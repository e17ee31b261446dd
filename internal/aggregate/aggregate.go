// Package aggregate sums block group columns into per-city counts.
package aggregate

import (
	"github.com/rotisserie/eris"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sells-group/missing-middle/internal/census"
	"github.com/sells-group/missing-middle/internal/dataset"
)

// SexCounts is the population of one display age band.
type SexCounts struct {
	Male   int `json:"male"`
	Female int `json:"female"`
	Total  int `json:"total"`
}

// AgeCounts maps display age bands, in canonical order, to their counts.
type AgeCounts = orderedmap.OrderedMap[string, SexCounts]

// RaceCounts maps race labels, in canonical order, to their counts.
type RaceCounts = orderedmap.OrderedMap[string, int]

// HousingTotals is the city-wide housing unit count for two years.
type HousingTotals struct {
	Year1          int     `json:"year1"`
	Year2          int     `json:"year2"`
	ChangeAbsolute int     `json:"change_absolute"`
	ChangePercent  float64 `json:"change_percent"`
}

// AgeGroupCounts sums the male and female columns of every raw age bucket
// over the rows of city and rolls them up into display bands.
func AgeGroupCounts(ds *dataset.Dataset, year, city string) (*AgeCounts, error) {
	rows := ds.CityRows(city)
	counts := orderedmap.New[string, SexCounts]()

	for _, bucket := range census.AgeBuckets() {
		male, err := ds.Sum(census.AgeColumn(census.Male, bucket.Raw, year), rows)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: age bucket %s", bucket.Raw)
		}
		female, err := ds.Sum(census.AgeColumn(census.Female, bucket.Raw, year), rows)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: age bucket %s", bucket.Raw)
		}

		band, _ := counts.Get(bucket.Band)
		band.Male += int(male)
		band.Female += int(female)
		band.Total += int(male) + int(female)
		counts.Set(bucket.Band, band)
	}

	return counts, nil
}

// RaceGroupCounts sums each race column over the rows of city. The two_plus
// category is reported as multiracial.
func RaceGroupCounts(ds *dataset.Dataset, year, city string) (*RaceCounts, error) {
	rows := ds.CityRows(city)
	counts := orderedmap.New[string, int]()

	for _, race := range census.Races() {
		n, err := ds.Sum(census.RaceColumn(race, year), rows)
		if err != nil {
			return nil, eris.Wrapf(err, "aggregate: race %s", race)
		}
		label := census.RaceLabel(race)
		prev, _ := counts.Get(label)
		counts.Set(label, prev+int(n))
	}

	return counts, nil
}

// CityHousingTotals sums housing units of city for both years. The percent
// change is rounded to two places and is 0 when year1 has no units.
func CityHousingTotals(ds *dataset.Dataset, year1, year2, city string) (HousingTotals, error) {
	rows := ds.CityRows(city)

	units1, err := ds.Sum(census.HousingColumn(year1), rows)
	if err != nil {
		return HousingTotals{}, eris.Wrap(err, "aggregate: housing units")
	}
	units2, err := ds.Sum(census.HousingColumn(year2), rows)
	if err != nil {
		return HousingTotals{}, eris.Wrap(err, "aggregate: housing units")
	}

	totals := HousingTotals{
		Year1: int(units1),
		Year2: int(units2),
	}
	totals.ChangeAbsolute = totals.Year2 - totals.Year1
	if totals.Year1 != 0 {
		totals.ChangePercent = census.Round(float64(totals.ChangeAbsolute)/float64(totals.Year1)*100, 2)
	}
	return totals, nil
}
