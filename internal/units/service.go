package units

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/emolog/emolog/internal/db/models"
)

// Service manages the unit hierarchy.
type Service struct {
	db *gorm.DB
}

// NewService creates a new unit service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput is the payload for creating or updating a unit.
type CreateInput struct {
	Code        string `json:"code" validate:"required,max=50"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=1024"`
	Status      string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE"`
	ParentID    *uint  `json:"parentId"`
}

// Create adds a new unit. The code must be unique and the parent, when
// given, must exist.
func (s *Service) Create(in CreateInput) (*models.Unit, error) {
	var count int64
	if err := s.db.Model(&models.Unit{}).Where("code = ?", in.Code).Count(&count).Error; err != nil {
		return nil, errors.Wrap(err, "checking unit code")
	}
	if count > 0 {
		return nil, ErrUnitExists
	}

	if in.ParentID != nil {
		if _, err := s.Get(*in.ParentID); err != nil {
			return nil, ErrParentNotFound
		}
	}

	unit := models.Unit{
		Code:        in.Code,
		Name:        in.Name,
		Description: in.Description,
		ParentID:    in.ParentID,
	}
	if in.Status != "" {
		unit.Status = in.Status
	}

	if err := s.db.Create(&unit).Error; err != nil {
		return nil, errors.Wrap(err, "creating unit")
	}

	return &unit, nil
}

// Get returns a unit by ID.
func (s *Service) Get(id uint) (*models.Unit, error) {
	var unit models.Unit

	err := s.db.First(&unit, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnitNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "getting unit")
	}

	return &unit, nil
}

// List returns all units ordered by code.
func (s *Service) List() ([]models.Unit, error) {
	var units []models.Unit

	if err := s.db.Order("code").Find(&units).Error; err != nil {
		return nil, errors.Wrap(err, "listing units")
	}

	return units, nil
}

// Update changes a unit in place. Moving a unit under itself is refused.
func (s *Service) Update(id uint, in CreateInput) (*models.Unit, error) {
	unit, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if in.Code != unit.Code {
		var count int64
		if err := s.db.Model(&models.Unit{}).Where("code = ? AND id <> ?", in.Code, id).Count(&count).Error; err != nil {
			return nil, errors.Wrap(err, "checking unit code")
		}
		if count > 0 {
			return nil, ErrUnitExists
		}
	}

	if in.ParentID != nil {
		if *in.ParentID == id {
			return nil, errors.New("unit cannot be its own parent")
		}
		if _, err := s.Get(*in.ParentID); err != nil {
			return nil, ErrParentNotFound
		}
	}

	unit.Code = in.Code
	unit.Name = in.Name
	unit.Description = in.Description
	unit.ParentID = in.ParentID
	if in.Status != "" {
		unit.Status = in.Status
	}

	if err := s.db.Save(unit).Error; err != nil {
		return nil, errors.Wrap(err, "updating unit")
	}

	return unit, nil
}

// Delete removes a unit. Units with children cannot be deleted; move or
// delete the children first.
func (s *Service) Delete(id uint) error {
	if _, err := s.Get(id); err != nil {
		return err
	}

	var children int64
	if err := s.db.Model(&models.Unit{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
		return errors.Wrap(err, "counting child units")
	}
	if children > 0 {
		return ErrUnitHasChildren
	}

	if err := s.db.Delete(&models.Unit{}, id).Error; err != nil {
		return errors.Wrap(err, "deleting unit")
	}

	return nil
}

// DirectChildren returns the IDs of the direct child units of a unit.
func (s *Service) DirectChildren(id uint) ([]uint, error) {
	var ids []uint

	err := s.db.Model(&models.Unit{}).
		Where("parent_id = ?", id).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing child units")
	}

	return ids, nil
}
