// Package dataset holds the wide block group table that every query reads.
// A Dataset is built once at start-up and never mutated; derived datasets
// (for example one carrying a GEOID column) are new values sharing the
// original columns.
package dataset

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/missing-middle/internal/apperr"
)

// Geographic code columns in NHGIS block group extracts.
const (
	StateColumn      = "STATEA"
	CountyColumn     = "COUNTYA"
	TractColumn      = "TRACTA"
	BlockGroupColumn = "BLCK_GRPA"
	GEOIDColumn      = "GEOID"

	// DefaultCityColumn names the column holding the city/town of a row.
	DefaultCityColumn = "TOWN"
)

// Options configures how raw tables become a Dataset.
type Options struct {
	CityColumn  string // default DefaultCityColumn
	SQLiteTable string // table read by LoadSQLite; default "block_groups"
}

func (o Options) cityColumn() string {
	if o.CityColumn == "" {
		return DefaultCityColumn
	}
	return o.CityColumn
}

// Column is one named column. Every cell keeps its trimmed text; columns in
// which every non-empty cell parses as a finite number also carry float
// values, with NaN standing in for empty cells. A literal "NaN" cell is null,
// as in pandas exports; an infinite value makes the column text.
type Column struct {
	Name string
	text []string
	num  []float64
}

func newColumn(name string, text []string) *Column {
	c := &Column{Name: name, text: text}

	num := make([]float64, len(text))
	for i, s := range text {
		if s == "" {
			num[i] = math.NaN()
			continue
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) {
			return c
		}
		num[i] = f
	}
	c.num = num
	return c
}

// Numeric reports whether the column parsed as numbers.
func (c *Column) Numeric() bool {
	return c.num != nil
}

// Text returns the raw cell text of row i.
func (c *Column) Text(i int) string {
	return c.text[i]
}

// Float returns the numeric value of row i. ok is false for empty cells and
// for non-numeric columns.
func (c *Column) Float(i int) (v float64, ok bool) {
	if c.num == nil || math.IsNaN(c.num[i]) {
		return 0, false
	}
	return c.num[i], true
}

// Value returns row i as a JSON-ready value: nil for empty cells, float64 for
// numeric columns, string otherwise.
func (c *Column) Value(i int) any {
	if c.text[i] == "" {
		return nil
	}
	if c.num != nil {
		if math.IsNaN(c.num[i]) {
			return nil
		}
		return c.num[i]
	}
	return c.text[i]
}

// Dataset is an immutable, column-oriented block group table.
type Dataset struct {
	columns []*Column
	byName  map[string]int
	rows    int
	cityCol string
}

// New builds a Dataset from a header and its records. Every record must have
// exactly len(header) fields.
func New(header []string, records [][]string, opts Options) (*Dataset, error) {
	if len(header) == 0 {
		return nil, apperr.NewIntegrityError(eris.New("dataset: empty header"))
	}

	byName := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if _, dup := byName[h]; dup {
			return nil, apperr.NewIntegrityError(eris.Errorf("dataset: duplicate column %q", h))
		}
		byName[h] = i
	}

	cells := make([][]string, len(header))
	for i := range cells {
		cells[i] = make([]string, len(records))
	}
	for r, rec := range records {
		if len(rec) != len(header) {
			return nil, apperr.NewIntegrityError(eris.Errorf(
				"dataset: row %d has %d fields, header has %d", r+1, len(rec), len(header)))
		}
		for c, v := range rec {
			cells[c][r] = strings.TrimSpace(v)
		}
	}

	ds := &Dataset{
		columns: make([]*Column, len(header)),
		byName:  byName,
		rows:    len(records),
		cityCol: opts.cityColumn(),
	}
	for i, h := range header {
		ds.columns[i] = newColumn(strings.TrimSpace(h), cells[i])
	}

	if _, ok := ds.byName[ds.cityCol]; !ok {
		return nil, apperr.NewIntegrityError(eris.Errorf("dataset: city column %q not found", ds.cityCol))
	}

	return ds, nil
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return d.rows
}

// CityColumn returns the name of the column that identifies a row's city.
func (d *Dataset) CityColumn() string {
	return d.cityCol
}

// Columns returns the column names in table order.
func (d *Dataset) Columns() []string {
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column named name exists.
func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// Column returns the named column or an integrity error when it is absent.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.byName[name]
	if !ok {
		return nil, apperr.NewIntegrityError(eris.Errorf("dataset: column %s not found", name))
	}
	return d.columns[i], nil
}

// HasYear reports whether any column carries data for year.
func (d *Dataset) HasYear(year string) bool {
	suffix := "_" + year
	for _, c := range d.columns {
		if strings.HasSuffix(c.Name, suffix) {
			return true
		}
	}
	return false
}

// CityRows returns the indexes of the rows whose city equals city.
func (d *Dataset) CityRows(city string) []int {
	col := d.columns[d.byName[d.cityCol]]
	var rows []int
	for i := 0; i < d.rows; i++ {
		if col.text[i] == city {
			rows = append(rows, i)
		}
	}
	return rows
}

// Cities returns the distinct non-empty city names, sorted.
func (d *Dataset) Cities() []string {
	col := d.columns[d.byName[d.cityCol]]
	seen := make(map[string]struct{})
	var cities []string
	for _, c := range col.text {
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cities = append(cities, c)
	}
	sort.Strings(cities)
	return cities
}

// Sum adds the named numeric column over rows, skipping empty cells.
func (d *Dataset) Sum(name string, rows []int) (float64, error) {
	col, err := d.Column(name)
	if err != nil {
		return 0, err
	}
	if !col.Numeric() {
		return 0, apperr.NewIntegrityError(eris.Errorf("dataset: column %s is not numeric", name))
	}

	var total float64
	for _, r := range rows {
		if v, ok := col.Float(r); ok {
			total += v
		}
	}
	return total, nil
}

// WithColumn returns a copy of d with a text column added, or replaced when a
// column of that name already exists. d itself is left untouched.
func (d *Dataset) WithColumn(name string, values []string) (*Dataset, error) {
	if len(values) != d.rows {
		return nil, eris.Errorf("dataset: column %s has %d values, dataset has %d rows", name, len(values), d.rows)
	}

	out := &Dataset{
		columns: make([]*Column, len(d.columns), len(d.columns)+1),
		byName:  make(map[string]int, len(d.byName)+1),
		rows:    d.rows,
		cityCol: d.cityCol,
	}
	copy(out.columns, d.columns)
	for k, v := range d.byName {
		out.byName[k] = v
	}

	text := make([]string, len(values))
	copy(text, values)
	col := &Column{Name: name, text: text}

	if i, ok := out.byName[name]; ok {
		out.columns[i] = col
	} else {
		out.byName[name] = len(out.columns)
		out.columns = append(out.columns, col)
	}
	return out, nil
}
