package dataset

import (
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// LoadXLSX reads the first sheet of a workbook whose first row is the header.
// Short rows are padded with empty cells.
func LoadXLSX(path string, opts Options) (*Dataset, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "dataset: open xlsx")
	}
	if len(f.Sheets) == 0 {
		return nil, eris.New("dataset: xlsx has no sheets")
	}

	sheet := f.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, eris.New("dataset: xlsx sheet is empty")
	}

	header := rowToStrings(sheet.Rows[0], 0)
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}

	records := make([][]string, 0, len(sheet.Rows)-1)
	for _, row := range sheet.Rows[1:] {
		cells := rowToStrings(row, len(header))
		if isBlank(cells) {
			continue
		}
		records = append(records, cells[:len(header)])
	}

	return New(header, records, opts)
}

func rowToStrings(row *xlsx.Row, width int) []string {
	if row == nil {
		return make([]string, width)
	}
	n := len(row.Cells)
	if width > n {
		n = width
	}
	cells := make([]string, n)
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
