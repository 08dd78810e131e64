package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type roleTemplateRepository struct {
	db *gorm.DB
}

func NewRoleTemplateRepository(db *gorm.DB) RoleTemplateRepository {
	return &roleTemplateRepository{db: db}
}

func (r *roleTemplateRepository) Create(t *model.RoleTemplate) error {
	return r.db.Create(t).Error
}

func (r *roleTemplateRepository) List() ([]model.RoleTemplate, error) {
	var templates []model.RoleTemplate
	err := r.db.Order("name ASC").Find(&templates).Error
	return templates, err
}

func (r *roleTemplateRepository) Get(id uint) (*model.RoleTemplate, error) {
	var template model.RoleTemplate
	err := r.db.First(&template, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (r *roleTemplateRepository) GetBySlug(slug string) (*model.RoleTemplate, error) {
	var template model.RoleTemplate
	err := r.db.Where("slug = ?", slug).First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &template, nil
}

func (r *roleTemplateRepository) Save(t *model.RoleTemplate) error {
	return r.db.Save(t).Error
}

func (r *roleTemplateRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&model.RoleTemplate{}).Count(&count).Error
	return count, err
}
