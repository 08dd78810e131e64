package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(p *model.Project) error {
	return r.db.Create(p).Error
}

func (r *projectRepository) ListByOwner(ownerID uint) ([]model.Project, error) {
	var projects []model.Project
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&projects).Error
	return projects, err
}

func (r *projectRepository) Get(ownerID, id uint) (*model.Project, error) {
	var project model.Project
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&project).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) Save(p *model.Project) error {
	return r.db.Save(p).Error
}

func (r *projectRepository) Delete(ownerID, id uint) error {
	if err := r.db.Where("project_id = ?", id).Delete(&model.ProjectPersona{}).Error; err != nil {
		return err
	}
	return r.db.Where("owner_id = ?", ownerID).Delete(&model.Project{}, id).Error
}

func (r *projectRepository) AssignPersona(projectID, personaID uint) error {
	return r.db.Create(&model.ProjectPersona{ProjectID: projectID, PersonaID: personaID}).Error
}

func (r *projectRepository) UnassignPersona(projectID, personaID uint) error {
	return r.db.Where("project_id = ? AND persona_id = ?", projectID, personaID).
		Delete(&model.ProjectPersona{}).Error
}

func (r *projectRepository) IsAssigned(projectID, personaID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.ProjectPersona{}).
		Where("project_id = ? AND persona_id = ?", projectID, personaID).
		Count(&count).Error
	return count > 0, err
}

func (r *projectRepository) ListAssignedPersonas(projectID uint) ([]model.Persona, error) {
	var personas []model.Persona
	err := r.db.
		Joins("JOIN project_personas ON project_personas.persona_id = personas.id").
		Where("project_personas.project_id = ?", projectID).
		Order("project_personas.created_at ASC").
		Find(&personas).Error
	return personas, err
}
