package query

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/apperr"
	"github.com/sells-group/missing-middle/internal/dataset/datasettest"
	"github.com/sells-group/missing-middle/internal/geospatial"
	"github.com/sells-group/missing-middle/internal/geospatial/geotest"
	"github.com/sells-group/missing-middle/internal/validate"
)

func newService(t *testing.T) *Service {
	t.Helper()

	dir := t.TempDir()
	geotest.WriteCounty(t, dir, "09003", true,
		geotest.BlockGroup{State: "09", County: "003", Tract: "500100", BG: "1", X: 0, Y: 0},
		geotest.BlockGroup{State: "09", County: "003", Tract: "500200", BG: "1", X: 1, Y: 0},
	)

	ds := datasettest.Build(t,
		datasettest.BlockGroup("9", "3", "500100", "1", "Hartford").WithYear("1990").WithYear("2000").
			Set("male_under_5_1990", 10).
			Set("female_under_5_1990", 8).
			Set("male_under_5_2000", 5).
			Set("female_under_5_2000", 8).
			Set("male_20_1990", 2).
			Set("male_20_2000", 6).
			Set("pop_white_1990", 18).
			Set("pop_white_2000", 13).
			Set("pop_two_plus_2000", 4).
			Set("housing_units_1990", 100).
			Set("housing_units_2000", 90),
		datasettest.BlockGroup("9", "3", "500200", "1", "Avon").WithYear("1990").WithYear("2000").
			Set("male_under_5_1990", 3).
			Set("housing_units_1990", 50).
			Set("housing_units_2000", 60),
	)

	merger := geospatial.NewMerger(geospatial.MergeOptions{Dir: dir, Pattern: geotest.Pattern})
	return New(ds, validate.New(ds, []string{"1990", "2000", "2010", "2020"}), merger)
}

func float(v float64) *float64 { return &v }

func TestPopulation(t *testing.T) {
	s := newService(t)

	res, err := s.Population(context.Background(), "1990", "2000", "Hartford")
	require.NoError(t, err)

	under5, ok := res.AgeGroupData.Changes.Get("00 - 04")
	require.True(t, ok)
	assert.Equal(t, -5, under5.TotalChangeAbsolute)
	assert.InDelta(t, -27.78, under5.TotalChangePercent, 0.01)
	assert.Equal(t, "darkred", under5.TotalColor)

	require.Len(t, res.AgeGroupData.Sentences, 2)
	assert.Equal(t, "The male population aged 20 - 24 population increased by 4 people (200.0%).", res.AgeGroupData.Sentences[0])
	assert.Equal(t, "The male population aged 00 - 04 population decreased by 5 people (50.0%).", res.AgeGroupData.Sentences[1],
		"male is flattened before total, so it wins the tie")

	multi, ok := res.RaceGroupData.Changes.Get("multiracial")
	require.True(t, ok)
	assert.Equal(t, 4, multi.ChangeAbsolute)
	assert.Equal(t, 4.0, multi.ChangePercent, "zero baseline reports the second year count")

	// 20 people in 1990, 19 in 2000.
	assert.Equal(t, -1, res.TotalCityChange.Change)
	assert.InDelta(t, -5.0, res.TotalCityChange.Percent, 1e-9)
	assert.Equal(t, "darkred", res.TotalCityChange.Color)
}

func TestPopulation_JSONShape(t *testing.T) {
	s := newService(t)

	res, err := s.Population(context.Background(), "1990", "2000", "Hartford")
	require.NoError(t, err)

	raw, err := json.Marshal(res)
	require.NoError(t, err)

	var decoded map[string]map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.ElementsMatch(t, []string{"year1", "year2", "changes", "sentences"}, keys(decoded["age_group_data"]))
	assert.ElementsMatch(t, []string{"year1", "year2", "changes", "sentences"}, keys(decoded["race_group_data"]))
	assert.ElementsMatch(t, []string{"change", "percent", "color"}, keys(decoded["total_city_change"]))

	var year1 map[string]map[string]int
	require.NoError(t, json.Unmarshal(decoded["age_group_data"]["year1"], &year1))
	assert.Equal(t, map[string]int{"male": 10, "female": 8, "total": 18}, year1["00 - 04"])
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestPopulation_Validation(t *testing.T) {
	s := newService(t)

	_, err := s.Population(context.Background(), "2000", "1990", "Hartford")
	require.Error(t, err)
	assert.True(t, apperr.IsValidation(err))
	assert.Equal(t, "year1 (2000) must be before year2 (1990)", err.Error())
}

func TestHousing_WithoutPopulationChange(t *testing.T) {
	s := newService(t)

	res, err := s.Housing(context.Background(), HousingRequest{Year1: "1990", Year2: "2000", City: "Hartford"})
	require.NoError(t, err)

	assert.NotNil(t, res.Sentences)
	assert.Empty(t, res.Sentences)
	require.Len(t, res.GeoJSON.Features, 2)
	assert.Equal(t, -10.0, res.GeoJSON.Features[0].Properties[geospatial.PropZ])
	assert.Nil(t, res.GeoJSON.Features[1].Properties[geospatial.PropZ])

	raw, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"sentences":[]`)
}

func TestHousing_WithPopulationChange(t *testing.T) {
	s := newService(t)

	res, err := s.Housing(context.Background(), HousingRequest{
		Year1:              "1990",
		Year2:              "2000",
		City:               "Hartford",
		CityChangeAbsolute: float(50),
		CityChangePercent:  float(5),
	})
	require.NoError(t, err)

	require.Len(t, res.Sentences, 1)
	assert.Contains(t, res.Sentences[0], "decreased by 10")
	assert.Contains(t, res.Sentences[0], "+50")
}

func TestHousing_PartialPopulationChange(t *testing.T) {
	s := newService(t)

	res, err := s.Housing(context.Background(), HousingRequest{
		Year1:              "1990",
		Year2:              "2000",
		City:               "Hartford",
		CityChangeAbsolute: float(50),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Sentences)
}

func TestHousing_MissingBoundaries(t *testing.T) {
	ds := datasettest.Build(t,
		datasettest.BlockGroup("9", "3", "500100", "1", "Hartford").WithYear("1990").WithYear("2000"),
	)
	merger := geospatial.NewMerger(geospatial.MergeOptions{Dir: t.TempDir(), Pattern: geotest.Pattern})
	s := New(ds, validate.New(ds, []string{"1990", "2000"}), merger)

	_, err := s.Housing(context.Background(), HousingRequest{Year1: "1990", Year2: "2000", City: "Hartford"})
	require.Error(t, err)
	assert.True(t, apperr.IsIntegrity(err))
}

func TestCitiesAndYears(t *testing.T) {
	s := newService(t)
	assert.Equal(t, []string{"Avon", "Hartford"}, s.Cities())
	assert.Equal(t, []string{"1990", "2000", "2010", "2020"}, s.Years())
}
