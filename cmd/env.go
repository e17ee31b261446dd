package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/config"
	"github.com/sells-group/missing-middle/internal/dataset"
	"github.com/sells-group/missing-middle/internal/geospatial"
	"github.com/sells-group/missing-middle/internal/query"
	"github.com/sells-group/missing-middle/internal/validate"
)

func datasetOptions(c *config.Config) dataset.Options {
	return dataset.Options{
		CityColumn:  c.Data.CityColumn,
		SQLiteTable: c.Data.SQLiteTable,
	}
}

// initService loads the dataset named by the config and wires the query
// service around it.
func initService(ctx context.Context, c *config.Config) (*query.Service, error) {
	ds, err := dataset.LoadFile(ctx, c.Data.CSVFile, datasetOptions(c))
	if err != nil {
		return nil, eris.Wrap(err, "load dataset")
	}

	cache := geospatial.NewBoundaryCache(c.Geo.CacheEntries, time.Duration(c.Geo.CacheTTLMinutes)*time.Minute)
	merger := geospatial.NewMerger(geospatial.MergeOptions{
		Dir:         c.Data.ShapefileDir,
		Pattern:     c.Data.ShapefilePattern,
		Cache:       cache,
		Concurrency: c.Geo.LoadConcurrency,
	})

	return query.New(ds, validate.New(ds, c.Data.ValidYears), merger), nil
}
