// Package census holds the fixed vocabulary of the block group table: the
// raw age buckets and the display bands they roll up into, the race
// categories, and the column naming scheme.
package census

// AgeBucket maps one raw age column label onto its display band.
type AgeBucket struct {
	Raw  string
	Band string
}

// ageBuckets is ordered; several raw buckets may share a band.
var ageBuckets = []AgeBucket{
	{"under_5", "00 - 04"},
	{"5-9", "05 - 09"},
	{"10-14", "10 - 14"},
	{"15-17", "15 - 19"},
	{"18-19", "15 - 19"},
	{"20", "20 - 24"},
	{"21", "20 - 24"},
	{"22-24", "20 - 24"},
	{"25-29", "25 - 29"},
	{"30-34", "30 - 34"},
	{"35-39", "35 - 39"},
	{"40-44", "40 - 44"},
	{"45-49", "45 - 49"},
	{"50-54", "50 - 54"},
	{"55-59", "55 - 59"},
	{"60-61", "60 - 64"},
	{"62-64", "60 - 64"},
	{"65-69", "65 - 69"},
	{"70-74", "70 - 74"},
	{"75-79", "75 - 79"},
	{"80-84", "80 - 84"},
	{"85_plus", "85+"},
}

// AgeBuckets returns the raw-bucket to display-band mapping in canonical order.
func AgeBuckets() []AgeBucket {
	out := make([]AgeBucket, len(ageBuckets))
	copy(out, ageBuckets)
	return out
}

// AgeBands returns the distinct display bands in first-seen order.
func AgeBands() []string {
	var bands []string
	for i, b := range ageBuckets {
		if i > 0 && ageBuckets[i-1].Band == b.Band {
			continue
		}
		bands = append(bands, b.Band)
	}
	return bands
}

// Race categories as they appear in column names.
const (
	RaceWhite    = "white"
	RaceBlack    = "black"
	RaceNative   = "native"
	RaceAsian    = "asian"
	RaceIslander = "islander"
	RaceOther    = "other"
	RaceTwoPlus  = "two_plus"

	// RaceMultiracial replaces RaceTwoPlus in every output.
	RaceMultiracial = "multiracial"
)

var races = []string{RaceWhite, RaceBlack, RaceNative, RaceAsian, RaceIslander, RaceOther, RaceTwoPlus}

// Races returns the race categories in canonical order.
func Races() []string {
	out := make([]string, len(races))
	copy(out, races)
	return out
}

// RaceLabel returns the output key for a race column category.
func RaceLabel(race string) string {
	if race == RaceTwoPlus {
		return RaceMultiracial
	}
	return race
}

// Sexes in the order their columns are summed.
const (
	Male   = "male"
	Female = "female"
	Total  = "total"
)
