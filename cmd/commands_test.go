package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/dataset/datasettest"
	"github.com/sells-group/missing-middle/internal/geospatial/geotest"
)

// setupConfig writes a SQLite dataset and boundary files under a temp dir
// and points cfg at them.
func setupConfig(t *testing.T) {
	t.Helper()
	dir := t.TempDir()

	geotest.WriteCounty(t, dir, "09003", true,
		geotest.BlockGroup{State: "09", County: "003", Tract: "500100", BG: "1", X: 0, Y: 0},
	)

	ds := datasettest.Build(t,
		datasettest.BlockGroup("9", "3", "500100", "1", "Hartford").WithYear("1990").WithYear("2000").
			Set("male_under_5_1990", 10).
			Set("female_under_5_1990", 8).
			Set("male_under_5_2000", 5).
			Set("female_under_5_2000", 8).
			Set("housing_units_1990", 100).
			Set("housing_units_2000", 90),
	)
	dbPath := filepath.Join(dir, "nhgis.db")
	require.NoError(t, dataset.ExportSQLite(context.Background(), ds, dbPath, dataset.Options{}))

	cfg = &config.Config{
		Data: config.DataConfig{
			Dir:              dir,
			CSVFile:          dbPath,
			SQLiteTable:      "block_groups",
			ShapefileDir:     dir,
			ShapefilePattern: geotest.Pattern,
			ValidYears:       []string{"1990", "2000", "2010", "2020"},
			CityColumn:       "TOWN",
		},
		Geo: config.GeoConfig{LoadConcurrency: 1},
	}
}

func TestPopulationCommand(t *testing.T) {
	setupConfig(t)
	queryYear1, queryYear2, queryCity = "1990", "2000", "Hartford"

	var out bytes.Buffer
	populationCmd.SetOut(&out)
	populationCmd.SetContext(context.Background())
	defer populationCmd.SetOut(nil)

	require.NoError(t, populationCmd.RunE(populationCmd, nil))

	var res map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	assert.Contains(t, res, "age_group_data")
	assert.JSONEq(t, `{"change":-5,"percent":-27.77777777777778,"color":"darkred"}`, string(res["total_city_change"]))
}

func TestPopulationCommand_ValidationError(t *testing.T) {
	setupConfig(t)
	queryYear1, queryYear2, queryCity = "2000", "1990", "Hartford"
	populationCmd.SetContext(context.Background())

	err := populationCmd.RunE(populationCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "year1 (2000) must be before year2 (1990)")
}

func TestHousingCommand(t *testing.T) {
	setupConfig(t)
	queryYear1, queryYear2, queryCity = "1990", "2000", "Hartford"

	var out bytes.Buffer
	housingCmd.SetOut(&out)
	housingCmd.SetContext(context.Background())
	defer housingCmd.SetOut(nil)

	require.NoError(t, housingCmd.RunE(housingCmd, nil))

	var res struct {
		GeoJSON struct {
			Features []struct {
				Properties map[string]any `json:"properties"`
			} `json:"features"`
		} `json:"geojson"`
		Sentences []string `json:"sentences"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &res))
	require.Len(t, res.GeoJSON.Features, 1)
	assert.Equal(t, -10.0, res.GeoJSON.Features[0].Properties["z"])
	assert.Empty(t, res.Sentences)
}

func TestWriteCities(t *testing.T) {
	cities := []string{"Avon", "Hartford"}
	years := []string{"1990", "2000"}

	var text bytes.Buffer
	require.NoError(t, writeCities(&text, "text", cities, years))
	assert.Equal(t, "Avon\nHartford\n", text.String())

	var js bytes.Buffer
	require.NoError(t, writeCities(&js, "json", cities, years))
	assert.JSONEq(t, `{"cities":["Avon","Hartford"],"years":["1990","2000"]}`, js.String())

	var ym bytes.Buffer
	require.NoError(t, writeCities(&ym, "YAML", cities, years))
	var decoded cityListing
	require.NoError(t, yaml.Unmarshal(ym.Bytes(), &decoded))
	assert.Equal(t, cityListing{Cities: cities, Years: years}, decoded)

	assert.Error(t, writeCities(&text, "xml", cities, years))
}

func TestImportCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "nhgis.csv")
	csv := "STATEA,COUNTYA,TRACTA,BLCK_GRPA,TOWN,housing_units_1990\n" +
		"9,3,500100,1,Hartford,100\n" +
		"9,3,500200,1,Avon,\n"
	require.NoError(t, os.WriteFile(src, []byte(csv), 0o644))

	cfg = &config.Config{Data: config.DataConfig{Dir: dir, CSVFile: src, SQLiteTable: "block_groups", CityColumn: "TOWN"}}
	importSource, importOutput = "", ""
	importCmd.SetContext(context.Background())

	require.NoError(t, importCmd.RunE(importCmd, nil))

	ds, err := dataset.LoadSQLite(context.Background(), filepath.Join(dir, "nhgis.db"), dataset.Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, []string{"Avon", "Hartford"}, ds.Cities())

	col, err := ds.Column("housing_units_1990")
	require.NoError(t, err)
	_, ok := col.Float(1)
	assert.False(t, ok, "empty cells stay null")
}

func TestImportCommand_SameFile(t *testing.T) {
	dir := t.TempDir()
	cfg = &config.Config{Data: config.DataConfig{Dir: dir, CSVFile: filepath.Join(dir, "nhgis.db")}}
	importSource, importOutput = "", ""
	importCmd.SetContext(context.Background())

	err := importCmd.RunE(importCmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "source and output are the same file")
}
