// Package insight renders change figures as plain-English sentences.
package insight

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/missing-middle/internal/aggregate"
	"github.com/sells-group/missing-middle/internal/analysis"
	"github.com/sells-group/missing-middle/internal/census"
)

// PopulationChange is the city-wide population change supplied alongside a
// housing query.
type PopulationChange struct {
	Change  int
	Percent float64
}

var printer = message.NewPrinter(language.English)

// count formats n with thousands separators.
func count(n int) string {
	return printer.Sprintf("%d", n)
}

// signed formats n with thousands separators and an explicit sign.
func signed(n int) string {
	if n < 0 {
		return "-" + count(-n)
	}
	return "+" + count(n)
}

// percent formats |x| rounded to two places. A ratio keeps at least one
// decimal ("50.0"); a zero-baseline figure is a whole count ("100").
func percent(x float64, ratio bool) string {
	s := strconv.FormatFloat(math.Abs(census.Round(x, 2)), 'f', -1, 64)
	if ratio && !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// DemographicSentences describes the largest increase, then the largest
// decrease. Whole-band totals also get a men/women breakdown.
func DemographicSentences(pair analysis.SuperlativePair) []string {
	sentences := make([]string, 0, 2)

	for _, d := range []struct {
		verb string
		s    analysis.Superlative
	}{
		{"increased", pair.Increase},
		{"decreased", pair.Decrease},
	} {
		sentence := fmt.Sprintf("The %s population %s by %d people (%s%%).",
			d.s.Group, d.verb, abs(d.s.Change), percent(d.s.Percent, d.s.Ratio))

		lead, _, _ := strings.Cut(d.s.Group, " ")
		if lead == census.Total && d.s.Male != nil && d.s.Female != nil {
			sentence += fmt.Sprintf(" %d were men and %d were women.", abs(*d.s.Male), abs(*d.s.Female))
		}

		sentences = append(sentences, sentence)
	}

	return sentences
}

// HousingDemographicSentences relates a city's housing change to its
// population change in a single sentence.
func HousingDemographicSentences(city string, housing aggregate.HousingTotals, pop PopulationChange) []string {
	h := housing.ChangeAbsolute
	hp := math.Abs(housing.ChangePercent)
	pp := math.Abs(pop.Percent)

	var sentence string
	switch {
	case h > 0 && pop.Change > 0:
		var ratio float64
		if h != 0 {
			ratio = float64(abs(pop.Change)) / float64(h)
		}
		sentence = fmt.Sprintf("Housing units increased by %s (%.1f%%) across %s, while the population grew by %s people (%.1f%%). "+
			"This suggests approximately %.1f people per new housing unit.",
			count(h), hp, city, count(abs(pop.Change)), pp, ratio)

	case h > 0 && pop.Change < 0:
		sentence = fmt.Sprintf("Despite housing units increasing by %s (%.1f%%) across %s, the population declined by %s people (%.1f%%), "+
			"indicating households are shrinking in size or vacancy rates are rising.",
			count(h), hp, city, count(abs(pop.Change)), pp)

	case h < 0:
		sentence = fmt.Sprintf("Housing units decreased by %s (%.1f%%) across %s, while the population changed by %s people (%.1f%%).",
			count(abs(h)), hp, city, signed(pop.Change), pp)

	default:
		sentence = fmt.Sprintf("Housing units remained relatively stable with a change of %s across %s, while the population changed by %s people (%.1f%%).",
			signed(h), city, signed(pop.Change), pp)
	}

	return []string{sentence}
}
