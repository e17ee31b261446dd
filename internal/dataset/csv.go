package dataset

import (
	"encoding/csv"
	"io"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// LoadCSV reads a headered CSV file.
func LoadCSV(path string, opts Options) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: open %s", path)
	}
	defer func() { _ = f.Close() }()

	return ReadCSV(f, opts)
}

// ReadCSV parses a headered CSV stream. A leading UTF-8 byte order mark, as
// written by spreadsheet exports, is dropped.
func ReadCSV(r io.Reader, opts Options) (*Dataset, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("dataset: csv is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read csv header")
	}

	var records [][]string
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "dataset: read csv row")
		}
		records = append(records, rec)
	}

	return New(header, records, opts)
}
