package exporter

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Sheet is one exported worksheet.
type Sheet struct {
	Name   string
	Header []string
	Rows   [][]interface{}
}

// Workbook builds an Excel workbook from the given sheets. The first
// sheet replaces the default one. Headers are written in bold.
func Workbook(sheets ...Sheet) (*excelize.File, error) {
	if len(sheets) == 0 {
		return nil, errors.New("workbook needs at least one sheet")
	}

	f := excelize.NewFile()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}

	for i, sheet := range sheets {
		name := sheet.Name

		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				return nil, errors.Wrap(err, "renaming sheet")
			}
		} else {
			if _, err := f.NewSheet(name); err != nil {
				return nil, errors.Wrapf(err, "adding sheet %s", name)
			}
		}

		if err := writeRow(f, name, 1, toCells(sheet.Header)); err != nil {
			return nil, err
		}

		endCol, err := excelize.ColumnNumberToName(max(len(sheet.Header), 1))
		if err != nil {
			return nil, errors.Wrap(err, "resolving header range")
		}
		if err := f.SetCellStyle(name, "A1", endCol+"1", bold); err != nil {
			return nil, errors.Wrap(err, "styling header")
		}

		for r, row := range sheet.Rows {
			if err := writeRow(f, name, r+2, row); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

// Write renders the sheets and streams the workbook to w.
func Write(w io.Writer, sheets ...Sheet) error {
	f, err := Workbook(sheets...)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "writing workbook")
	}

	return nil
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	ref, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return errors.Wrap(err, "resolving cell")
	}

	if err := f.SetSheetRow(sheet, ref, &cells); err != nil {
		return errors.Wrapf(err, "writing row %d", row)
	}

	return nil
}

func toCells(header []string) []interface{} {
	cells := make([]interface{}, len(header))
	for i, h := range header {
		cells[i] = h
	}

	return cells
}
