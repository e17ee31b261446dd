package main

import (
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/missing-middle/internal/dataset"
)

var (
	importSource string
	importOutput string
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Convert the CSV or XLSX dataset into a SQLite table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		start := time.Now()

		source := importSource
		if source == "" {
			source = cfg.Data.CSVFile
		}
		output := importOutput
		if output == "" {
			output = filepath.Join(cfg.Data.Dir, "nhgis.db")
		}
		if filepath.Clean(source) == filepath.Clean(output) {
			return eris.New("import: source and output are the same file")
		}

		opts := datasetOptions(cfg)
		ds, err := dataset.LoadFile(ctx, source, opts)
		if err != nil {
			return eris.Wrap(err, "import: load source")
		}

		if err := dataset.ExportSQLite(ctx, ds, output, opts); err != nil {
			return eris.Wrap(err, "import: write sqlite")
		}

		zap.L().Info("import complete",
			zap.String("source", source),
			zap.String("output", output),
			zap.String("table", cfg.Data.SQLiteTable),
			zap.Int("rows", ds.Len()),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "dataset to convert (default data.csv_file)")
	importCmd.Flags().StringVar(&importOutput, "output", "", "SQLite file to write (default <data.dir>/nhgis.db)")
	rootCmd.AddCommand(importCmd)
}
