package units

import "github.com/pkg/errors"

var (
	// ErrUnitNotFound is returned when a unit cannot be found.
	ErrUnitNotFound = errors.New("unit not found")

	// ErrUnitExists is returned when a unit code is already taken.
	ErrUnitExists = errors.New("unit code already exists")

	// ErrUnitHasChildren is returned when deleting a unit that still has
	// child units.
	ErrUnitHasChildren = errors.New("unit has child units")

	// ErrParentNotFound is returned when the referenced parent unit does
	// not exist.
	ErrParentNotFound = errors.New("parent unit not found")

	// ErrImportBadHeader is returned when an import sheet is missing the
	// expected columns.
	ErrImportBadHeader = errors.New("import sheet has an unexpected header")
)
