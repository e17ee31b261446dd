package analysis

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/census"
)

// Superlative describes one extreme change. Male, Female and Total are only
// set for age bands. Ratio reports whether Percent was computed from a
// non-zero first year count; zero-baseline figures are whole counts.
type Superlative struct {
	Group   string  `json:"group"`
	Change  int     `json:"change"`
	Percent float64 `json:"percent"`
	Ratio   bool    `json:"-"`
	Color   string  `json:"color"`
	Male    *int    `json:"male,omitempty"`
	Female  *int    `json:"female,omitempty"`
	Total   *int    `json:"total,omitempty"`
}

// SuperlativePair holds the largest increase and the largest decrease.
type SuperlativePair struct {
	Increase Superlative `json:"increase"`
	Decrease Superlative `json:"decrease"`
}

// pick returns the first maximum and first minimum by Change.
func pick(candidates []Superlative) SuperlativePair {
	inc, dec := candidates[0], candidates[0]
	for _, c := range candidates[1:] {
		if c.Change > inc.Change {
			inc = c
		}
		if c.Change < dec.Change {
			dec = c
		}
	}
	return SuperlativePair{Increase: inc, Decrease: dec}
}

// TopAgeGroupChanges flattens every band into male, female and total
// candidates and picks the extremes across all of them.
func TopAgeGroupChanges(changes *AgeChanges) (SuperlativePair, error) {
	if changes.Len() == 0 {
		return SuperlativePair{}, eris.New("analysis: no age band changes")
	}

	candidates := make([]Superlative, 0, changes.Len()*3)
	for pair := changes.Oldest(); pair != nil; pair = pair.Next() {
		c := pair.Value
		male, female, total := c.MaleChangeAbsolute, c.FemaleChangeAbsolute, c.TotalChangeAbsolute

		for _, slot := range []struct {
			sex     string
			change  int
			percent float64
			ratio   bool
			color   string
		}{
			{census.Male, c.MaleChangeAbsolute, c.MaleChangePercent, c.maleRatio, c.MaleColor},
			{census.Female, c.FemaleChangeAbsolute, c.FemaleChangePercent, c.femaleRatio, c.FemaleColor},
			{census.Total, c.TotalChangeAbsolute, c.TotalChangePercent, c.totalRatio, c.TotalColor},
		} {
			candidates = append(candidates, Superlative{
				Group:   fmt.Sprintf("%s population aged %s", slot.sex, pair.Key),
				Change:  slot.change,
				Percent: slot.percent,
				Ratio:   slot.ratio,
				Color:   slot.color,
				Male:    &male,
				Female:  &female,
				Total:   &total,
			})
		}
	}

	return pick(candidates), nil
}

// TopRaceGroupChanges picks the extremes directly over race groups.
func TopRaceGroupChanges(changes *RaceChanges) (SuperlativePair, error) {
	if changes.Len() == 0 {
		return SuperlativePair{}, eris.New("analysis: no race group changes")
	}

	candidates := make([]Superlative, 0, changes.Len())
	for pair := changes.Oldest(); pair != nil; pair = pair.Next() {
		candidates = append(candidates, Superlative{
			Group:   pair.Key,
			Change:  pair.Value.ChangeAbsolute,
			Percent: pair.Value.ChangePercent,
			Ratio:   pair.Value.ratio,
			Color:   pair.Value.Color,
		})
	}

	return pick(candidates), nil
}
