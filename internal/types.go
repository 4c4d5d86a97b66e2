package internal

import "fmt"

// Record is one spreadsheet row keyed by normalized column name. Values are the raw
// cell text as it appears in the sheet.
type Record map[string]string

// Get returns the cell for a normalized column, or "" when the column is absent.
func (r Record) Get(column string) string {
	return r[column]
}

// Stock sheet columns, normalized.
const (
	StockKeyColumn     = "productkey"
	StockVariantColumn = "variantname"
	StockRTSColumn     = "rts"
	StockMTOColumn     = "mto"
)

var StockColumns = []string{StockKeyColumn, StockVariantColumn, StockRTSColumn, StockMTOColumn}

type Table struct {
	Name    string
	Columns []string
	Records []Record
}

func (t *Table) HasColumn(column string) bool {
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Missing lists the required columns the table does not carry, in the order given.
func (t *Table) Missing(required []string) []string {
	out := []string{}
	for _, req := range required {
		if !t.HasColumn(req) {
			out = append(out, req)
		}
	}
	return out
}

type MatchReason string

const (
	ReasonExact  MatchReason = "EXACT"
	ReasonPrefix MatchReason = "PREFIX"
	ReasonNone   MatchReason = "NONE"
)

type MatchResult struct {
	Row      Record
	RowIndex int
	Reason   MatchReason
}

type ItemSource string

const (
	SourceText  ItemSource = "text"
	SourceXLSX  ItemSource = "xlsx"
	SourcePDF   ItemSource = "pdf"
	SourceHTML  ItemSource = "html"
	SourceEmail ItemSource = "email"
)

type ItemCode struct {
	LineNo int
	Source ItemSource
	Code   string
}

// Warning is a recoverable failure scoped to one item or one field of an item.
type Warning struct {
	Item    string
	Field   string
	Message string
}

func (w Warning) String() string {
	if w.Field == "" {
		return fmt.Sprintf("%s: %s", w.Item, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Item, w.Field, w.Message)
}
