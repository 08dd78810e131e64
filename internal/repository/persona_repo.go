package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type personaRepository struct {
	db *gorm.DB
}

func NewPersonaRepository(db *gorm.DB) PersonaRepository {
	return &personaRepository{db: db}
}

func (r *personaRepository) Create(p *model.Persona) error {
	return r.db.Create(p).Error
}

func (r *personaRepository) ListByOwner(ownerID uint) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.Where("owner_id = ?", ownerID).
		Order("is_default DESC, created_at ASC").
		Find(&personas).Error
	return personas, err
}

func (r *personaRepository) Get(ownerID, id uint) (*model.Persona, error) {
	var persona model.Persona
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&persona).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &persona, nil
}

// GetByRole resolves the team member holding a role slug. When several
// personas share a role the oldest one wins.
func (r *personaRepository) GetByRole(ownerID uint, role string) (*model.Persona, error) {
	var persona model.Persona
	err := r.db.Where("owner_id = ? AND role = ? AND archived = ?", ownerID, role, false).
		Order("id ASC").
		First(&persona).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &persona, nil
}

func (r *personaRepository) GetLead(ownerID uint) (*model.Persona, error) {
	var persona model.Persona
	err := r.db.Where("owner_id = ? AND is_lead = ?", ownerID, true).
		Order("id ASC").
		First(&persona).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &persona, nil
}

func (r *personaRepository) ListByTemplate(templateID uint) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.Where("role_template_id = ?", templateID).Find(&personas).Error
	return personas, err
}

func (r *personaRepository) Save(p *model.Persona) error {
	return r.db.Save(p).Error
}

func (r *personaRepository) Delete(ownerID, id uint) error {
	return r.db.Where("owner_id = ?", ownerID).Delete(&model.Persona{}, id).Error
}
