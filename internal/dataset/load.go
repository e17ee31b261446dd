package dataset

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// LoadFile reads the dataset at path, choosing the reader by extension:
// .csv, .xlsx, or .db/.sqlite/.sqlite3.
func LoadFile(ctx context.Context, path string, opts Options) (*Dataset, error) {
	start := time.Now()

	var (
		ds  *Dataset
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		ds, err = LoadCSV(path, opts)
	case ".xlsx":
		ds, err = LoadXLSX(path, opts)
	case ".db", ".sqlite", ".sqlite3":
		ds, err = LoadSQLite(ctx, path, opts)
	default:
		return nil, eris.Errorf("dataset: unsupported file type %q", ext)
	}
	if err != nil {
		return nil, err
	}

	zap.L().Info("dataset loaded",
		zap.String("component", "dataset"),
		zap.String("path", path),
		zap.Int("rows", ds.Len()),
		zap.Int("columns", len(ds.columns)),
		zap.Int("cities", len(ds.Cities())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return ds, nil
}
