package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type fileRepository struct {
	db *gorm.DB
}

func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(f *model.UploadedFile) error {
	return r.db.Create(f).Error
}

func (r *fileRepository) Get(ownerID, id uint) (*model.UploadedFile, error) {
	var file model.UploadedFile
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&file).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &file, nil
}

// ListByPersona returns files attached to a direct conversation, oldest
// first. Context assembly injects them in this order.
func (r *fileRepository) ListByPersona(ownerID, personaID uint) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.db.Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	return files, err
}

func (r *fileRepository) ListByProject(ownerID, projectID uint) ([]model.UploadedFile, error) {
	var files []model.UploadedFile
	err := r.db.Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Order("created_at ASC, id ASC").
		Find(&files).Error
	return files, err
}

func (r *fileRepository) CountByPersona(ownerID, personaID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.UploadedFile{}).
		Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Count(&count).Error
	return count, err
}

func (r *fileRepository) CountByProject(ownerID, projectID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.UploadedFile{}).
		Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Count(&count).Error
	return count, err
}

func (r *fileRepository) Delete(ownerID, id uint) error {
	return r.db.Where("owner_id = ?", ownerID).Delete(&model.UploadedFile{}, id).Error
}

func (r *fileRepository) DeleteByPersona(ownerID, personaID uint) error {
	return r.db.Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Delete(&model.UploadedFile{}).Error
}

func (r *fileRepository) DeleteByProject(ownerID, projectID uint) error {
	return r.db.Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Delete(&model.UploadedFile{}).Error
}
