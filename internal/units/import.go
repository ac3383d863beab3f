package units

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// ImportResult summarizes an Excel unit import.
type ImportResult struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped []string `json:"skipped"`
}

// importRow is one parsed sheet row.
type importRow struct {
	code        string
	name        string
	description string
	parentCode  string
}

// ImportExcel reads a unit hierarchy from the first sheet of an Excel
// workbook. The expected columns are Code, Name, Description and
// ParentCode. Rows are upserted by code; parents are resolved in a
// second pass so child rows may precede their parent.
func (s *Service) ImportExcel(r io.Reader) (*ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "opening workbook")
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, errors.Wrap(err, "reading sheet")
	}

	if len(rows) == 0 || !validHeader(rows[0]) {
		return nil, ErrImportBadHeader
	}

	result := &ImportResult{Skipped: []string{}}

	var parsed []importRow

	for _, row := range rows[1:] {
		pr := parseRow(row)
		if pr.code == "" || pr.name == "" {
			if len(row) > 0 {
				result.Skipped = append(result.Skipped, strings.Join(row, " "))
			}
			continue
		}

		parsed = append(parsed, pr)
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// First pass: upsert every unit without its parent link.
		for _, pr := range parsed {
			var unit models.Unit

			err := tx.Where("code = ?", pr.code).First(&unit).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				unit = models.Unit{Code: pr.code, Name: pr.name, Description: pr.description}
				if err := tx.Create(&unit).Error; err != nil {
					return errors.Wrapf(err, "creating unit %s", pr.code)
				}

				result.Created++
			case err != nil:
				return errors.Wrapf(err, "looking up unit %s", pr.code)
			default:
				unit.Name = pr.name
				unit.Description = pr.description
				if err := tx.Save(&unit).Error; err != nil {
					return errors.Wrapf(err, "updating unit %s", pr.code)
				}

				result.Updated++
			}
		}

		// Second pass: resolve parent codes.
		for _, pr := range parsed {
			if pr.parentCode == "" {
				continue
			}

			var parent models.Unit
			if err := tx.Where("code = ?", pr.parentCode).First(&parent).Error; err != nil {
				return errors.Wrapf(ErrParentNotFound, "unit %s: parent %s", pr.code, pr.parentCode)
			}

			err := tx.Model(&models.Unit{}).
				Where("code = ?", pr.code).
				Update("parent_id", parent.ID).Error
			if err != nil {
				return errors.Wrapf(err, "linking unit %s", pr.code)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func validHeader(header []string) bool {
	want := []string{"code", "name", "description", "parentcode"}

	if len(header) < len(want) {
		return false
	}

	for i, col := range want {
		if strings.ToLower(strings.TrimSpace(header[i])) != col {
			return false
		}
	}

	return true
}

func parseRow(row []string) importRow {
	get := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}

		return ""
	}

	return importRow{
		code:        get(0),
		name:        get(1),
		description: get(2),
		parentCode:  get(3),
	}
}
