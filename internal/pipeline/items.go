package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/jhillyerd/enmime"
	pdf "github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"catalogdeck/internal"
	"catalogdeck/internal/util"
)

// Lines in mail bodies that never carry an item number.
var ignorePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^--+$`),
	regexp.MustCompile(`(?i)^(thanks|thank you|regards|best regards|kind regards|med venlig hilsen|mvh)\b`),
	regexp.MustCompile(`(?i)^(tel|phone|mobile)[:\s]`),
	regexp.MustCompile(`(?i)^e-?mail[:\s]`),
	regexp.MustCompile(`(?i)^(from|to|cc|sent|subject|date):`),
	regexp.MustCompile(`(?i)^http`),
	regexp.MustCompile(`^>`),
}

var (
	codePattern  = regexp.MustCompile(`^[\p{L}\p{N}][\p{L}\p{N} ./_-]{0,39}$`)
	digitPattern = regexp.MustCompile(`\d`)
	spacePattern = regexp.MustCompile(`\s+`)
)

var itemHeaders = []string{"itemno", "item", "varenummer", "varenr", "productcode", "code", "sku"}

// LoadItems reads item codes from path. The extension picks the adapter; anything unknown
// is read as text with one code per line. "-" reads text from stdin.
func LoadItems(path string, stdin io.Reader) ([]internal.ItemCode, error) {
	if path == "-" {
		blob, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return ParseItemsText(string(blob)), nil
	}

	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read items %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return parseItemsXLSX(blob)
	case ".pdf":
		return parseItemsPDF(blob)
	case ".html", ".htm":
		return parseItemsHTML(string(blob)), nil
	case ".eml":
		return parseItemsEmail(blob)
	default:
		return ParseItemsText(string(blob)), nil
	}
}

// ParseItemsText keeps every non-blank line, trimmed, in input order. Duplicates are kept:
// each one becomes its own slide.
func ParseItemsText(text string) []internal.ItemCode {
	lines := util.SplitLines(text)
	out := make([]internal.ItemCode, 0, len(lines))
	for i, line := range lines {
		out = append(out, internal.ItemCode{LineNo: i + 1, Source: internal.SourceText, Code: line})
	}
	return out
}

func parseItemsXLSX(content []byte) ([]internal.ItemCode, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open items workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read items sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col, start := 0, 0
	if idx := findHeaderIndex(util.NormalizeAll(rows[0]), itemHeaders); idx >= 0 {
		col, start = idx, 1
	}

	out := []internal.ItemCode{}
	for i, row := range rows[start:] {
		code := pickCell(row, col)
		if code == "" {
			continue
		}
		out = append(out, internal.ItemCode{LineNo: start + i + 1, Source: internal.SourceXLSX, Code: code})
	}
	return out, nil
}

func parseItemsPDF(content []byte) ([]internal.ItemCode, error) {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open items pdf: %w", err)
	}

	out := []internal.ItemCode{}
	lineNo := 0
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range util.SplitLines(text) {
			lineNo++
			if !looksLikeCode(line) {
				continue
			}
			out = append(out, internal.ItemCode{LineNo: lineNo, Source: internal.SourcePDF, Code: normalizeSpaces(line)})
		}
	}
	return out, nil
}

// parseItemsHTML takes the item column of every table row, or the text lines when the page
// has no table.
func parseItemsHTML(html string) []internal.ItemCode {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	out := []internal.ItemCode{}
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		rows := table.Find("tr")
		if rows.Length() == 0 {
			return
		}

		headers := []string{}
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			headers = append(headers, util.Normalize(cell.Text()))
		})
		col, start := 0, 0
		if idx := findHeaderIndex(headers, itemHeaders); idx >= 0 {
			col, start = idx, 1
		}

		rows.Slice(start, rows.Length()).Each(func(i int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, normalizeSpaces(cell.Text()))
			})
			code := pickCell(cells, col)
			if code == "" {
				return
			}
			out = append(out, internal.ItemCode{LineNo: start + i + 1, Source: internal.SourceHTML, Code: code})
		})
	})
	if len(out) > 0 {
		return out
	}

	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p,div,li,h1,h2,h3,h4,h5,h6").AppendHtml("\n")
	for i, line := range util.SplitLines(doc.Text()) {
		if looksLikeCode(line) {
			out = append(out, internal.ItemCode{LineNo: i + 1, Source: internal.SourceHTML, Code: normalizeSpaces(line)})
		}
	}
	return out
}

// parseItemsEmail reads the plain body (or the HTML body when there is none) and any
// spreadsheet or PDF attachments. Codes seen twice across those sources are kept once.
func parseItemsEmail(raw []byte) ([]internal.ItemCode, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("read email: %w", err)
	}

	items := []internal.ItemCode{}
	if strings.TrimSpace(env.Text) != "" {
		for i, line := range util.SplitLines(env.Text) {
			if looksLikeCode(line) {
				items = append(items, internal.ItemCode{LineNo: i + 1, Source: internal.SourceEmail, Code: normalizeSpaces(line)})
			}
		}
	} else if env.HTML != "" {
		for _, item := range parseItemsHTML(env.HTML) {
			item.Source = internal.SourceEmail
			items = append(items, item)
		}
	}

	for _, att := range env.Attachments {
		lower := strings.ToLower(strings.TrimSpace(att.FileName))
		var extra []internal.ItemCode
		switch {
		case strings.HasSuffix(lower, ".xlsx"), strings.HasSuffix(lower, ".xlsm"):
			extra, err = parseItemsXLSX(att.Content)
		case strings.HasSuffix(lower, ".pdf"):
			extra, err = parseItemsPDF(att.Content)
		default:
			continue
		}
		if err != nil {
			continue
		}
		items = append(items, extra...)
	}

	return dedupeItems(items), nil
}

func looksLikeCode(line string) bool {
	line = normalizeSpaces(line)
	if line == "" || isLikelyNoise(line) {
		return false
	}
	return codePattern.MatchString(line) && digitPattern.MatchString(line)
}

func normalizeSpaces(input string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(input, " "))
}

func isLikelyNoise(line string) bool {
	for _, re := range ignorePatterns {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

func dedupeItems(items []internal.ItemCode) []internal.ItemCode {
	seen := map[string]struct{}{}
	out := make([]internal.ItemCode, 0, len(items))
	for _, item := range items {
		key := util.Normalize(item.Code)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, item)
	}
	return out
}

func findHeaderIndex(headers []string, probes []string) int {
	for _, probe := range probes {
		for i, h := range headers {
			if h == probe {
				return i
			}
		}
	}
	return -1
}

func pickCell(cells []string, idx int) string {
	if idx >= 0 && idx < len(cells) {
		return strings.TrimSpace(cells[idx])
	}
	return ""
}
