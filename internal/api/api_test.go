package api

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/missing-middle/internal/dataset/datasettest"
	"github.com/sells-group/missing-middle/internal/geospatial"
	"github.com/sells-group/missing-middle/internal/geospatial/geotest"
	"github.com/sells-group/missing-middle/internal/query"
	"github.com/sells-group/missing-middle/internal/validate"
)

func newRouter(t *testing.T, opts Options) http.Handler {
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
			Set("housing_units_1990", 100).
			Set("housing_units_2000", 90).
			Set("pop_white_2010", 1),
		// A city with no first-year population cannot report a percent change.
		datasettest.BlockGroup("9", "3", "500200", "1", "Ghost Town").WithYear("1990").WithYear("2000"),
	)

	cache := geospatial.NewBoundaryCache(4, time.Hour)
	merger := geospatial.NewMerger(geospatial.MergeOptions{Dir: dir, Pattern: geotest.Pattern, Cache: cache})
	svc := query.New(ds, validate.New(ds, []string{"1990", "2000", "2010", "2020"}), merger)

	if opts.AllowedOrigins == nil {
		opts.AllowedOrigins = []string{"*"}
	}
	return NewRouter(svc, opts)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Contains(t, body, "boundary_cache")
}

func TestPopulation(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/population", `{"year1":"1990","year2":"2000","city":"Hartford"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	body := decode(t, w)
	assert.Contains(t, body, "age_group_data")
	assert.Contains(t, body, "race_group_data")

	total := body["total_city_change"].(map[string]any)
	assert.Equal(t, -5.0, total["change"])
	assert.Equal(t, "darkred", total["color"])

	// Age bands keep their canonical order on the wire.
	assert.Less(t, strings.Index(w.Body.String(), `"00 - 04"`), strings.Index(w.Body.String(), `"05 - 09"`))
}

func TestPopulation_BadBodies(t *testing.T) {
	h := newRouter(t, Options{})

	for name, body := range map[string]string{
		"empty":        "",
		"empty object": "{}",
		"not json":     "year1=1990",
		"array":        `["1990"]`,
		"wrong type":   `{"year1":1990,"year2":"2000","city":"Hartford"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/population", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "Request body must be JSON", decode(t, w)["error"])
		})
	}
}

func TestPopulation_ValidationError(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/population", `{"year1":"1990","year2":"2000","city":"Springfield"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid city: 'Springfield'. City not found in dataset", decode(t, w)["error"])
}

func TestPopulation_InternalError(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/population", `{"year1":"1990","year2":"2000","city":"Ghost Town"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestHousing(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/housing",
		`{"year1":"1990","year2":"2000","city":"Hartford","city_change_absolute":50,"city_change_percent":5}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	geo := body["geojson"].(map[string]any)
	assert.Equal(t, "FeatureCollection", geo["type"])
	assert.Len(t, geo["features"], 2)

	sentences := body["sentences"].([]any)
	require.Len(t, sentences, 1)
	assert.Contains(t, sentences[0], "decreased by 10")
}

func TestHousing_NoSentencesWithoutPopulationChange(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/housing", `{"year1":"1990","year2":"2000","city":"Hartford"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode(t, w)["sentences"])
}

func TestHousing_NaNCell(t *testing.T) {
	dir := t.TempDir()
	geotest.WriteCounty(t, dir, "09003", true,
		geotest.BlockGroup{State: "09", County: "003", Tract: "500100", BG: "1", X: 0, Y: 0},
	)
	row := datasettest.BlockGroup("9", "3", "500100", "1", "Hartford").WithYear("1990").WithYear("2000").
		Set("male_under_5_1990", 3).
		Set("housing_units_2000", 90)
	row["housing_units_1990"] = "nan"
	ds := datasettest.Build(t, row)

	merger := geospatial.NewMerger(geospatial.MergeOptions{Dir: dir, Pattern: geotest.Pattern})
	h := NewRouter(query.New(ds, validate.New(ds, []string{"1990", "2000"}), merger), Options{AllowedOrigins: []string{"*"}})

	w := do(t, h, http.MethodPost, "/api/housing", `{"year1":"1990","year2":"2000","city":"Hartford"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	features := decode(t, w)["geojson"].(map[string]any)["features"].([]any)
	require.Len(t, features, 1)
	props := features[0].(map[string]any)["properties"].(map[string]any)
	assert.Nil(t, props["housing_units_1990"])
	assert.Nil(t, props[geospatial.PropZ])
}

func TestWriteJSON_EncodeFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]any{"value": math.NaN()})

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decode(t, w)["error"])
}

func TestHousing_YearWithoutData(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodPost, "/api/housing", `{"year1":"1990","year2":"2020","city":"Hartford"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No data available for year2: 2020", decode(t, w)["error"])
}

func TestHousing_IntegrityError(t *testing.T) {
	h := newRouter(t, Options{})

	// 2010 has a race column, so it validates, but no housing column.
	w := do(t, h, http.MethodPost, "/api/housing", `{"year1":"1990","year2":"2010","city":"Hartford"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Data integrity error", decode(t, w)["error"])
}

func TestCitiesAndYears(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodGet, "/api/cities", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Ghost Town", "Hartford"}, decode(t, w)["cities"])

	w = do(t, h, http.MethodGet, "/api/years", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"1990", "2000", "2010", "2020"}, decode(t, w)["years"])
}

func TestRequestID(t *testing.T) {
	h := newRouter(t, Options{})

	w := do(t, h, http.MethodGet, "/health", "")
	_, err := uuid.Parse(w.Header().Get(RequestIDHeader))
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	h := newRouter(t, Options{AllowedOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/population", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimit(t *testing.T) {
	h := newRouter(t, Options{RateLimitRPS: 0.001, RateLimitBurst: 1})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/years", "").Code)

	w := do(t, h, http.MethodGet, "/api/years", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "Too many requests", decode(t, w)["error"])

	// Health checks are not rate limited.
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", "").Code)
}
