package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

const defaultSQLiteTable = "block_groups"

func (o Options) sqliteTable() string {
	if o.SQLiteTable == "" {
		return defaultSQLiteTable
	}
	return o.SQLiteTable
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// LoadSQLite reads every row of the configured table of a SQLite database.
func LoadSQLite(ctx context.Context, path string, opts Options) (*Dataset, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open sqlite")
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+quoteIdent(opts.sqliteTable()))
	if err != nil {
		return nil, eris.Wrapf(err, "dataset: query table %s", opts.sqliteTable())
	}
	defer func() { _ = rows.Close() }()

	header, err := rows.Columns()
	if err != nil {
		return nil, eris.Wrap(err, "dataset: read sqlite columns")
	}

	var records [][]string
	values := make([]any, len(header))
	ptrs := make([]any, len(header))
	for i := range values {
		ptrs[i] = &values[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, eris.Wrap(err, "dataset: scan sqlite row")
		}
		rec := make([]string, len(values))
		for i, v := range values {
			rec[i] = sqlValueString(v)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "dataset: iterate sqlite rows")
	}

	return New(header, records, opts)
}

func sqlValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case []byte:
		return string(t)
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// codeColumns keep their zero padding in SQLite even though they parse as
// numbers.
var codeColumns = map[string]bool{
	StateColumn:      true,
	CountyColumn:     true,
	TractColumn:      true,
	BlockGroupColumn: true,
	GEOIDColumn:      true,
}

// ExportSQLite writes ds into table opts.SQLiteTable of the database at path,
// replacing any existing table of that name. Numeric columns are stored as
// REAL and everything else, geographic codes included, as TEXT. Empty cells
// become NULL.
func ExportSQLite(ctx context.Context, ds *Dataset, path string, opts Options) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "dataset: open sqlite")
	}
	defer func() { _ = db.Close() }()

	table := quoteIdent(opts.sqliteTable())
	defs := make([]string, len(ds.columns))
	names := make([]string, len(ds.columns))
	marks := make([]string, len(ds.columns))
	isReal := make([]bool, len(ds.columns))
	for i, c := range ds.columns {
		typ := "TEXT"
		if c.Numeric() && !codeColumns[c.Name] {
			typ = "REAL"
			isReal[i] = true
		}
		names[i] = quoteIdent(c.Name)
		defs[i] = names[i] + " " + typ
		marks[i] = "?"
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "dataset: begin export")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return eris.Wrap(err, "dataset: drop table")
	}
	if _, err := tx.ExecContext(ctx, "CREATE TABLE "+table+" ("+strings.Join(defs, ", ")+")"); err != nil {
		return eris.Wrap(err, "dataset: create table")
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" ("+strings.Join(names, ", ")+") VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return eris.Wrap(err, "dataset: prepare insert")
	}
	defer func() { _ = stmt.Close() }()

	args := make([]any, len(ds.columns))
	for r := 0; r < ds.rows; r++ {
		for i, c := range ds.columns {
			switch {
			case c.text[r] == "":
				args[i] = nil
			case isReal[i]:
				if v, ok := c.Float(r); ok {
					args[i] = v
				} else {
					args[i] = nil
				}
			default:
				args[i] = c.text[r]
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return eris.Wrapf(err, "dataset: insert row %d", r+1)
		}
	}

	return eris.Wrap(tx.Commit(), "dataset: commit export")
}
