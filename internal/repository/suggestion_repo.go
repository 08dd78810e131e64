package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type memorySuggestionRepository struct {
	db *gorm.DB
}

func NewMemorySuggestionRepository(db *gorm.DB) MemorySuggestionRepository {
	return &memorySuggestionRepository{db: db}
}

func (r *memorySuggestionRepository) Create(s *model.MemorySuggestion) error {
	return r.db.Create(s).Error
}

func (r *memorySuggestionRepository) Get(ownerID, id uint) (*model.MemorySuggestion, error) {
	var suggestion model.MemorySuggestion
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&suggestion).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &suggestion, nil
}

// List returns suggestions newest first, optionally filtered by status.
func (r *memorySuggestionRepository) List(ownerID uint, status string) ([]model.MemorySuggestion, error) {
	query := r.db.Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var suggestions []model.MemorySuggestion
	err := query.Order("created_at DESC, id DESC").Find(&suggestions).Error
	return suggestions, err
}

func (r *memorySuggestionRepository) CountPending(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.MemorySuggestion{}).
		Where("owner_id = ? AND status = ?", ownerID, model.SuggestionStatusPending).
		Count(&count).Error
	return count, err
}

func (r *memorySuggestionRepository) Save(s *model.MemorySuggestion) error {
	return r.db.Save(s).Error
}
