// Package analysis computes year-over-year changes between two aggregations
// and picks the largest increase and decrease.
//
// Age bands and race groups deliberately take separate paths: when the first
// year count is zero, an age band reports 100 (growth) or 0, while a race
// group reports its raw second year count as the percent figure.
package analysis

import (
	"github.com/rotisserie/eris"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/sells-group/missing-middle/internal/aggregate"
	"github.com/sells-group/missing-middle/internal/census"
)

// AgeChange is the change of one display band, split by sex.
type AgeChange struct {
	MaleChangeAbsolute   int     `json:"male_change_absolute"`
	MaleChangePercent    float64 `json:"male_change_percent"`
	MaleColor            string  `json:"male_color"`
	FemaleChangeAbsolute int     `json:"female_change_absolute"`
	FemaleChangePercent  float64 `json:"female_change_percent"`
	FemaleColor          string  `json:"female_color"`
	TotalChangeAbsolute  int     `json:"total_change_absolute"`
	TotalChangePercent   float64 `json:"total_change_percent"`
	TotalColor           string  `json:"total_color"`

	// set when the percent is a true ratio, not a zero-baseline stand-in
	maleRatio, femaleRatio, totalRatio bool
}

// RaceChange is the change of one race group.
type RaceChange struct {
	ChangeAbsolute int     `json:"change_absolute"`
	ChangePercent  float64 `json:"change_percent"`
	Color          string  `json:"color"`

	ratio bool
}

// AgeChanges maps display bands to their change, in first-year order.
type AgeChanges = orderedmap.OrderedMap[string, AgeChange]

// RaceChanges maps race labels to their change, in first-year order.
type RaceChanges = orderedmap.OrderedMap[string, RaceChange]

// CityChange is the whole-city population change.
type CityChange struct {
	Change  int     `json:"change"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// agePercent applies the age band zero-baseline rule.
func agePercent(delta, base int) float64 {
	if base != 0 {
		return float64(delta) / float64(base) * 100
	}
	if delta > 0 {
		return 100
	}
	return 0
}

// racePercent applies the race group zero-baseline rule: the second year
// count stands in for the percent.
func racePercent(delta, base, year2 int) float64 {
	if base != 0 {
		return float64(delta) / float64(base) * 100
	}
	return float64(year2)
}

// AgeGroupChanges computes per-sex deltas for every band of year1.
func AgeGroupChanges(year1, year2 *aggregate.AgeCounts) (*AgeChanges, error) {
	changes := orderedmap.New[string, AgeChange]()

	for pair := year1.Oldest(); pair != nil; pair = pair.Next() {
		before := pair.Value
		after, ok := year2.Get(pair.Key)
		if !ok {
			return nil, eris.Errorf("analysis: age band %q missing from second year", pair.Key)
		}

		male := after.Male - before.Male
		female := after.Female - before.Female
		total := after.Total - before.Total

		changes.Set(pair.Key, AgeChange{
			MaleChangeAbsolute:   male,
			MaleChangePercent:    agePercent(male, before.Male),
			MaleColor:            census.ChangeColor(male, census.ColorMaleIncrease),
			FemaleChangeAbsolute: female,
			FemaleChangePercent:  agePercent(female, before.Female),
			FemaleColor:          census.ChangeColor(female, census.ColorFemaleIncrease),
			TotalChangeAbsolute:  total,
			TotalChangePercent:   agePercent(total, before.Total),
			TotalColor:           census.ChangeColor(total, census.ColorTotalIncrease),
			maleRatio:            before.Male != 0,
			femaleRatio:          before.Female != 0,
			totalRatio:           before.Total != 0,
		})
	}

	return changes, nil
}

// RaceGroupChanges computes the delta of every race group of year1.
func RaceGroupChanges(year1, year2 *aggregate.RaceCounts) (*RaceChanges, error) {
	changes := orderedmap.New[string, RaceChange]()

	for pair := year1.Oldest(); pair != nil; pair = pair.Next() {
		after, ok := year2.Get(pair.Key)
		if !ok {
			return nil, eris.Errorf("analysis: race group %q missing from second year", pair.Key)
		}

		delta := after - pair.Value
		changes.Set(pair.Key, RaceChange{
			ChangeAbsolute: delta,
			ChangePercent:  racePercent(delta, pair.Value, after),
			Color:          census.ChangeColor(delta, census.ColorTotalIncrease),
			ratio:          pair.Value != 0,
		})
	}

	return changes, nil
}

// TotalCityChange sums the band totals into a city-wide change. A city with
// no first-year population has no defined percent change and is an error.
func TotalCityChange(changes *AgeChanges, year1 *aggregate.AgeCounts) (CityChange, error) {
	var delta, base int
	for pair := changes.Oldest(); pair != nil; pair = pair.Next() {
		before, ok := year1.Get(pair.Key)
		if !ok {
			return CityChange{}, eris.Errorf("analysis: age band %q missing from first year", pair.Key)
		}
		delta += pair.Value.TotalChangeAbsolute
		base += before.Total
	}

	if base == 0 {
		return CityChange{}, eris.New("analysis: city has no population in the first year")
	}

	return CityChange{
		Change:  delta,
		Percent: float64(delta) / float64(base) * 100,
		Color:   census.ChangeColor(delta, census.ColorTotalIncrease),
	}, nil
}
