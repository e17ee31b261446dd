// Package query assembles the population and housing responses from the
// dataset, the validator and the geospatial merger.
package query

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/aggregate"
	"github.com/sells-group/missing-middle/internal/analysis"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/geospatial"
	"github.com/sells-group/missing-middle/internal/insight"
	"github.com/sells-group/missing-middle/internal/validate"
)

// Service answers queries against one immutable dataset.
type Service struct {
	ds        *dataset.Dataset
	validator *validate.Validator
	merger    *geospatial.Merger
}

// New creates a Service.
func New(ds *dataset.Dataset, validator *validate.Validator, merger *geospatial.Merger) *Service {
	return &Service{ds: ds, validator: validator, merger: merger}
}

// AgeGroupData is the age pyramid section of a population result.
type AgeGroupData struct {
	Year1     *aggregate.AgeCounts `json:"year1"`
	Year2     *aggregate.AgeCounts `json:"year2"`
	Changes   *analysis.AgeChanges `json:"changes"`
	Sentences []string             `json:"sentences"`
}

// RaceGroupData is the race section of a population result.
type RaceGroupData struct {
	Year1     *aggregate.RaceCounts `json:"year1"`
	Year2     *aggregate.RaceCounts `json:"year2"`
	Changes   *analysis.RaceChanges `json:"changes"`
	Sentences []string              `json:"sentences"`
}

// PopulationResult is the response to a population query.
type PopulationResult struct {
	AgeGroupData    AgeGroupData        `json:"age_group_data"`
	RaceGroupData   RaceGroupData       `json:"race_group_data"`
	TotalCityChange analysis.CityChange `json:"total_city_change"`
}

// HousingRequest carries the housing query parameters. The population change
// figures are optional; the housing sentence is rendered only when both are
// set.
type HousingRequest struct {
	Year1              string   `json:"year1"`
	Year2              string   `json:"year2"`
	City               string   `json:"city"`
	CityChangeAbsolute *float64 `json:"city_change_absolute,omitempty"`
	CityChangePercent  *float64 `json:"city_change_percent,omitempty"`
}

// HousingResult is the response to a housing query.
type HousingResult struct {
	GeoJSON   *geojson.FeatureCollection `json:"geojson"`
	Sentences []string                   `json:"sentences"`
}

// Cities returns the sorted city list.
func (s *Service) Cities() []string {
	return s.ds.Cities()
}

// CacheStats reports boundary cache statistics; ok is false when caching is
// disabled.
func (s *Service) CacheStats() (geospatial.CacheStats, bool) {
	return s.merger.CacheStats()
}

// Years returns the supported years.
func (s *Service) Years() []string {
	return s.validator.Years()
}

// Population computes the age and race pyramids of city for both years, their
// changes, the headline sentences and the city-wide change.
func (s *Service) Population(ctx context.Context, year1, year2, city string) (*PopulationResult, error) {
	if err := s.validator.Request(year1, year2, city); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "query: population")
	}

	start := time.Now()

	age1, err := aggregate.AgeGroupCounts(s.ds, year1, city)
	if err != nil {
		return nil, eris.Wrap(err, "query: age counts year1")
	}
	race1, err := aggregate.RaceGroupCounts(s.ds, year1, city)
	if err != nil {
		return nil, eris.Wrap(err, "query: race counts year1")
	}
	age2, err := aggregate.AgeGroupCounts(s.ds, year2, city)
	if err != nil {
		return nil, eris.Wrap(err, "query: age counts year2")
	}
	race2, err := aggregate.RaceGroupCounts(s.ds, year2, city)
	if err != nil {
		return nil, eris.Wrap(err, "query: race counts year2")
	}

	ageChanges, err := analysis.AgeGroupChanges(age1, age2)
	if err != nil {
		return nil, eris.Wrap(err, "query: age changes")
	}
	raceChanges, err := analysis.RaceGroupChanges(race1, race2)
	if err != nil {
		return nil, eris.Wrap(err, "query: race changes")
	}

	topAge, err := analysis.TopAgeGroupChanges(ageChanges)
	if err != nil {
		return nil, eris.Wrap(err, "query: top age changes")
	}
	topRace, err := analysis.TopRaceGroupChanges(raceChanges)
	if err != nil {
		return nil, eris.Wrap(err, "query: top race changes")
	}

	total, err := analysis.TotalCityChange(ageChanges, age1)
	if err != nil {
		return nil, eris.Wrap(err, "query: total city change")
	}

	zap.L().Debug("population computed",
		zap.String("city", city),
		zap.String("year1", year1),
		zap.String("year2", year2),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &PopulationResult{
		AgeGroupData: AgeGroupData{
			Year1:     age1,
			Year2:     age2,
			Changes:   ageChanges,
			Sentences: insight.DemographicSentences(topAge),
		},
		RaceGroupData: RaceGroupData{
			Year1:     race1,
			Year2:     race2,
			Changes:   raceChanges,
			Sentences: insight.DemographicSentences(topRace),
		},
		TotalCityChange: total,
	}, nil
}

// Housing merges the dataset onto block group boundaries and, when the
// population change is supplied, relates it to the city's housing change.
func (s *Service) Housing(ctx context.Context, req HousingRequest) (*HousingResult, error) {
	if err := s.validator.Request(req.Year1, req.Year2, req.City); err != nil {
		return nil, err
	}

	fc, err := s.merger.Merge(ctx, s.ds, req.Year1, req.Year2, req.City)
	if err != nil {
		return nil, eris.Wrap(err, "query: merge geography")
	}

	sentences := []string{}
	if req.CityChangeAbsolute != nil && req.CityChangePercent != nil {
		housing, err := aggregate.CityHousingTotals(s.ds, req.Year1, req.Year2, req.City)
		if err != nil {
			return nil, eris.Wrap(err, "query: city housing totals")
		}
		sentences = insight.HousingDemographicSentences(req.City, housing, insight.PopulationChange{
			Change:  int(*req.CityChangeAbsolute),
			Percent: *req.CityChangePercent,
		})
	}

	return &HousingResult{GeoJSON: fc, Sentences: sentences}, nil
}
