package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// artifact is one output file of a run, rendered in memory before anything touches disk.
type artifact struct {
	name string
	path string
	data []byte
}

// missingItemsBlob renders one unmatched code per line.
func missingItemsBlob(items []string) []byte {
	return []byte(strings.Join(items, "\n") + "\n")
}

// reportBlob renders one row per input item: how it matched and what availability text it got.
func reportBlob(outcomes []ItemOutcome) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headers := []string{
		"input_line_no", "source", "item", "match_reason", "catalog_row",
		"matched_code", "rts", "mto", "warnings",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, o := range outcomes {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, o.Item.LineNo)
		set(2, string(o.Item.Source))
		set(3, o.Item.Code)
		set(4, string(o.Match.Reason))
		if o.Found {
			// header row is 1, so data row i sits at sheet row i+2
			set(5, o.Match.RowIndex+2)
		} else {
			set(5, "")
		}
		set(6, o.MatchedCode)
		set(7, o.RTS)
		set(8, o.MTO)
		set(9, joinWarnings(o))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinWarnings(o ItemOutcome) string {
	parts := make([]string, 0, len(o.Warnings))
	for _, w := range o.Warnings {
		parts = append(parts, w.String())
	}
	return strings.Join(parts, "\n")
}

// writeArtifacts stages every artifact as a temp file next to its target and only renames
// them into place once all of them are written. A failure removes whatever was staged or
// already renamed, so a run leaves either all its outputs or none.
func writeArtifacts(arts []artifact) error {
	staged := make([]string, len(arts))
	cleanup := func() {
		for _, tmp := range staged {
			if tmp != "" {
				_ = os.Remove(tmp)
			}
		}
	}

	for i, a := range arts {
		tmp, err := stage(a)
		if err != nil {
			cleanup()
			return fmt.Errorf("%s: %w", a.name, err)
		}
		staged[i] = tmp
	}

	for i, a := range arts {
		if err := os.Rename(staged[i], a.path); err != nil {
			cleanup()
			var errs []error
			for _, done := range arts[:i] {
				errs = append(errs, os.Remove(done.path))
			}
			if rollback := errors.Join(errs...); rollback != nil {
				return fmt.Errorf("%s: save %s: %w (rollback: %v)", a.name, a.path, err, rollback)
			}
			return fmt.Errorf("%s: save %s: %w", a.name, a.path, err)
		}
		staged[i] = ""
	}
	return nil
}

func stage(a artifact) (string, error) {
	if err := ensureDir(a.path); err != nil {
		return "", err
	}
	tmp, err := os.CreateTemp(filepath.Dir(a.path), ".catalogdeck-*"+filepath.Ext(a.path))
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", a.path, err)
	}
	name := tmp.Name()
	_ = tmp.Chmod(0o644)
	if _, err := tmp.Write(a.data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", a.path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("write %s: %w", a.path, err)
	}
	return name, nil
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
