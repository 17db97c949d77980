// Package reconcile ingests uploaded A/R ledger extracts and reconciles
// them against persisted contract state.
package reconcile

import (
	"fmt"
	"io"
	"strings"

	e "github.com/autohive/arledger/internal/ledger/errors"
	"github.com/xuri/excelize/v2"
)

// RequiredColumns are the header cells a ledger extract must carry,
// matched case- and text-exact. A missing column fails the whole upload
// before any mutation.
var RequiredColumns = []string{"Company Name", "Contract #", "A/R Amt", "Date In", "Paid"}

// Row is one normalized ledger record. Missing cells are empty strings,
// never absent, so downstream comparisons stay simple.
type Row struct {
	CompanyName    string
	ContractNumber string
	AmountDue      string
	DateIn         string
	Paid           string
}

// ParseWorkbook reads the first sheet of an .xlsx ledger into rows. The
// first sheet row is the header; everything below it is data.
func ParseWorkbook(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	raw, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	if len(raw) == 0 {
		return nil, &e.SchemaError{Column: RequiredColumns[0]}
	}

	index := make(map[string]int, len(raw[0]))
	for i, name := range raw[0] {
		index[name] = i
	}
	columns := make(map[string]int, len(RequiredColumns))
	for _, name := range RequiredColumns {
		i, ok := index[name]
		if !ok {
			return nil, &e.SchemaError{Column: name}
		}
		columns[name] = i
	}

	rows := make([]Row, 0, len(raw)-1)
	for _, cells := range raw[1:] {
		rows = append(rows, Row{
			CompanyName:    cell(cells, columns["Company Name"]),
			ContractNumber: cell(cells, columns["Contract #"]),
			AmountDue:      cell(cells, columns["A/R Amt"]),
			DateIn:         cell(cells, columns["Date In"]),
			Paid:           cell(cells, columns["Paid"]),
		})
	}
	return rows, nil
}

// cell normalizes a cell lookup: out-of-range and whitespace-only cells
// both become the empty-string sentinel.
func cell(cells []string, i int) string {
	if i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}
