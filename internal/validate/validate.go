// Package validate checks query parameters against the loaded dataset before
// any aggregation runs.
package validate

import (
	"slices"
	"strconv"
	"strings"

	"github.com/sells-group/missing-middle/internal/apperr"
	"github.com/sells-group/missing-middle/internal/dataset"
)

// Validator checks year and city parameters. It is built once per dataset
// and is safe for concurrent use.
type Validator struct {
	ds     *dataset.Dataset
	years  []string
	cities map[string]struct{}
}

// New creates a Validator accepting years and the cities present in ds.
func New(ds *dataset.Dataset, years []string) *Validator {
	cities := make(map[string]struct{})
	for _, c := range ds.Cities() {
		cities[c] = struct{}{}
	}
	return &Validator{
		ds:     ds,
		years:  slices.Clone(years),
		cities: cities,
	}
}

// Years returns the accepted years in configured order.
func (v *Validator) Years() []string {
	return slices.Clone(v.years)
}

// Year validates one year parameter named param.
func (v *Validator) Year(year, param string) error {
	if year == "" {
		return apperr.Validationf("%s is required", param)
	}
	if !slices.Contains(v.years, year) {
		return apperr.Validationf("Invalid %s: '%s'. Must be one of %s", param, year, quoteList(v.years))
	}
	if !v.ds.HasYear(year) {
		return apperr.Validationf("No data available for %s: %s", param, year)
	}
	return nil
}

// City validates the city parameter.
func (v *Validator) City(city string) error {
	if city == "" {
		return apperr.Validationf("city is required")
	}
	if _, ok := v.cities[city]; !ok {
		return apperr.Validationf("Invalid city: '%s'. City not found in dataset", city)
	}
	if len(v.ds.CityRows(city)) == 0 {
		return apperr.Validationf("No data found for city: %s", city)
	}
	return nil
}

// Request validates a full query: both years, the city, and that year1
// comes strictly before year2.
func (v *Validator) Request(year1, year2, city string) error {
	if err := v.Year(year1, "year1"); err != nil {
		return err
	}
	if err := v.Year(year2, "year2"); err != nil {
		return err
	}
	if err := v.City(city); err != nil {
		return err
	}

	a, errA := strconv.Atoi(year1)
	b, errB := strconv.Atoi(year2)
	if errA != nil || errB != nil || a >= b {
		return apperr.Validationf("year1 (%s) must be before year2 (%s)", year1, year2)
	}
	return nil
}

// quoteList renders years as ['1990', '2000'].
func quoteList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = "'" + s + "'"
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}
