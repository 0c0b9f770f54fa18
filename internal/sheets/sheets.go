// Package sheets splits a workbook into one file per sheet.
package sheets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoSheets = errors.New("workbook has no sheets")

const dirSuffix = "_시트분할"

type Result struct {
	Dir   string   `json:"dir"`
	Files []string `json:"files"`
}

// OutputDirName is the folder the split files go into: the workbook's base
// name without its extension plus a fixed suffix.
func OutputDirName(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base)) + dirSuffix
}

// Split replaces <root>/<OutputDirName> with one workbook per sheet of f.
func Split(f *excelize.File, fileName, root string) (Result, error) {
	names := f.GetSheetList()
	if len(names) == 0 {
		return Result{}, ErrNoSheets
	}

	dir := filepath.Join(root, OutputDirName(fileName))
	if err := os.RemoveAll(dir); err != nil {
		return Result{}, fmt.Errorf("clear %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Result{}, fmt.Errorf("create %s: %w", dir, err)
	}

	res := Result{Dir: dir}
	for _, name := range names {
		out := filepath.Join(dir, safeFileName(name)+".xlsx")
		if err := copySheet(f, name, out); err != nil {
			return res, fmt.Errorf("sheet %q: %w", name, err)
		}
		res.Files = append(res.Files, out)
	}
	return res, nil
}

func copySheet(src *excelize.File, sheet, path string) error {
	rows, err := src.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return err
	}

	dst := excelize.NewFile()
	defer dst.Close()
	if err := dst.SetSheetName(dst.GetSheetName(0), sheet); err != nil {
		return err
	}

	// styles maps source style ids to the ids recreated in dst.
	styles := map[int]int{}
	for r, row := range rows {
		for c, v := range row {
			if v == "" {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			typ, err := src.GetCellType(sheet, cell)
			if err != nil {
				return err
			}
			if err := dst.SetCellValue(sheet, cell, typed(typ, v)); err != nil {
				return err
			}
			if err := copyStyle(src, dst, sheet, cell, styles); err != nil {
				return err
			}
		}
	}
	return dst.SaveAs(path)
}

// copyStyle carries the cell's style, number format included, so dates and
// currencies keep their display instead of showing raw serials.
func copyStyle(src, dst *excelize.File, sheet, cell string, styles map[int]int) error {
	id, err := src.GetCellStyle(sheet, cell)
	if err != nil || id == 0 {
		return err
	}
	newID, ok := styles[id]
	if !ok {
		style, err := src.GetStyle(id)
		if err != nil {
			return fmt.Errorf("style %d: %w", id, err)
		}
		if newID, err = dst.NewStyle(style); err != nil {
			return fmt.Errorf("style %d: %w", id, err)
		}
		styles[id] = newID
	}
	return dst.SetCellStyle(sheet, cell, cell, newID)
}

// typed restores numbers and booleans from their raw cell text.
func typed(typ excelize.CellType, raw string) any {
	switch typ {
	case excelize.CellTypeBool:
		return raw == "1" || strings.EqualFold(raw, "true")
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return n
		}
	}
	return raw
}

// safeFileName drops path separators so a sheet name cannot escape dir.
func safeFileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', 0:
			return '_'
		}
		return r
	}, name)
}
