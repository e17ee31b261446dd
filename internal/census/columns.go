package census

// AgeColumn names the count of one sex in one raw age bucket, e.g.
// male_under_5_1990.
func AgeColumn(sex, bucket, year string) string {
	return sex + "_" + bucket + "_" + year
}

// RaceColumn names a race count, e.g. pop_two_plus_2020.
func RaceColumn(race, year string) string {
	return "pop_" + race + "_" + year
}

// HousingColumn names the housing unit count for a year.
func HousingColumn(year string) string {
	return "housing_units_" + year
}
