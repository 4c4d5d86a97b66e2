package catalog

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"catalogdeck/internal"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestReadTableNormalizesHeaders(t *testing.T) {
	blob := mkXLSX([][]any{
		{"{{Product code}} ", "Product Key", "VariantName"},
		{"03194", "K1", "Black - Frame - Small"},
		{"", "", ""},
		{"03094", "K2"},
	})
	table, err := ReadTable(bytes.NewReader(blob), "mapping.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"{{productcode}}", "productkey", "variantname"}
	if len(table.Columns) != len(want) {
		t.Fatalf("columns=%v", table.Columns)
	}
	for i := range want {
		if table.Columns[i] != want[i] {
			t.Fatalf("columns=%v", table.Columns)
		}
	}
	if len(table.Records) != 2 {
		t.Fatalf("records=%d", len(table.Records))
	}
	if got := table.Records[1].Get("variantname"); got != "" {
		t.Fatalf("short row should pad with blanks, got %q", got)
	}
	if got := table.Records[0].Get("{{productcode}}"); got != "03194" {
		t.Fatalf("code=%q", got)
	}
}

func TestRequireReportsMissingColumns(t *testing.T) {
	blob := mkXLSX([][]any{{"productkey", "variantname"}, {"K1", "Oak"}})
	table, err := ReadTable(bytes.NewReader(blob), "stock.xlsx")
	if err != nil {
		t.Fatal(err)
	}
	err = Require(table, internal.StockColumns)
	var missing *MissingColumnsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingColumnsError, got %v", err)
	}
	if len(missing.Columns) != 2 || missing.Columns[0] != "rts" || missing.Columns[1] != "mto" {
		t.Fatalf("missing=%v", missing.Columns)
	}
}
