package repository

import (
	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type requestMessageRepository struct {
	db *gorm.DB
}

func NewRequestMessageRepository(db *gorm.DB) RequestMessageRepository {
	return &requestMessageRepository{db: db}
}

func (r *requestMessageRepository) Create(m *model.RequestMessage) error {
	return r.db.Create(m).Error
}

// ListByRequest returns the full processing trail in the order it was
// written, internal deliberation included.
func (r *requestMessageRepository) ListByRequest(requestID uint) ([]model.RequestMessage, error) {
	var messages []model.RequestMessage
	err := r.db.Where("request_id = ?", requestID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *requestMessageRepository) ListInternalByRequest(requestID uint) ([]model.RequestMessage, error) {
	var messages []model.RequestMessage
	err := r.db.Where("request_id = ? AND is_internal = ?", requestID, true).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}
