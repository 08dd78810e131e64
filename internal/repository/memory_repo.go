package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type memoryRepository struct {
	db *gorm.DB
}

func NewMemoryRepository(db *gorm.DB) MemoryRepository {
	return &memoryRepository{db: db}
}

func (r *memoryRepository) Create(m *model.Memory) error {
	return r.db.Create(m).Error
}

func (r *memoryRepository) Get(ownerID, id uint) (*model.Memory, error) {
	var memory model.Memory
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&memory).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &memory, nil
}

func (r *memoryRepository) ListByOwner(ownerID uint) ([]model.Memory, error) {
	var memories []model.Memory
	err := r.db.Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&memories).Error
	return memories, err
}

// ListShared returns memories bound to neither a persona nor a project, in
// insertion order. Context assembly relies on the ascending order here.
func (r *memoryRepository) ListShared(ownerID uint) ([]model.Memory, error) {
	var memories []model.Memory
	err := r.db.Where("owner_id = ? AND persona_id IS NULL AND project_id IS NULL", ownerID).
		Order("created_at ASC, id ASC").
		Find(&memories).Error
	return memories, err
}

func (r *memoryRepository) ListByPersona(ownerID, personaID uint) ([]model.Memory, error) {
	var memories []model.Memory
	err := r.db.Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Order("created_at ASC, id ASC").
		Find(&memories).Error
	return memories, err
}

func (r *memoryRepository) ListByProject(ownerID, projectID uint) ([]model.Memory, error) {
	var memories []model.Memory
	err := r.db.Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Order("created_at ASC, id ASC").
		Find(&memories).Error
	return memories, err
}

func (r *memoryRepository) Save(m *model.Memory) error {
	return r.db.Save(m).Error
}

func (r *memoryRepository) Delete(ownerID, id uint) error {
	return r.db.Where("owner_id = ?", ownerID).Delete(&model.Memory{}, id).Error
}
