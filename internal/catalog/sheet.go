package catalog

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"catalogdeck/internal"
	"catalogdeck/internal/config"
	"catalogdeck/internal/util"
)

// MissingColumnsError reports required headers absent from a sheet. It is fatal for a run.
type MissingColumnsError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s is missing columns: %s", e.Source, strings.Join(e.Columns, ", "))
}

// LoadTable reads the first sheet of an xlsx file. Row 1 is the header row; headers are
// normalized with util.Normalize.
func LoadTable(path string) (*internal.Table, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return ReadTable(bytes.NewReader(blob), filepath.Base(path))
}

func ReadTable(r io.Reader, name string) (*internal.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%s has no sheets", name)
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", name, err)
	}

	table := &internal.Table{Name: name}
	if len(rows) == 0 {
		return table, nil
	}

	colIdx := map[string]int{}
	for i, header := range rows[0] {
		norm := util.Normalize(header)
		if norm == "" {
			continue
		}
		if _, dup := colIdx[norm]; dup {
			continue
		}
		colIdx[norm] = i
		table.Columns = append(table.Columns, norm)
	}

	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		rec := internal.Record{}
		for _, col := range table.Columns {
			idx := colIdx[col]
			if idx < len(row) {
				rec[col] = row[idx]
			} else {
				rec[col] = ""
			}
		}
		table.Records = append(table.Records, rec)
	}

	return table, nil
}

// Require returns a *MissingColumnsError when any required column is absent.
func Require(table *internal.Table, required []string) error {
	missing := table.Missing(required)
	if len(missing) == 0 {
		return nil
	}
	return &MissingColumnsError{Source: table.Name, Columns: missing}
}

func LoadCatalog(path string, profile config.Profile) (*internal.Table, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	if err := Require(table, profile.RequiredCatalogColumns()); err != nil {
		return nil, err
	}
	return table, nil
}

func LoadStock(path string) (*internal.Table, error) {
	table, err := LoadTable(path)
	if err != nil {
		return nil, err
	}
	if err := Require(table, internal.StockColumns); err != nil {
		return nil, err
	}
	return table, nil
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if !util.IsBlank(c) {
			return false
		}
	}
	return true
}
