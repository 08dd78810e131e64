package repository

import (
	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(m *model.Message) error {
	return r.db.Create(m).Error
}

// ListByPersona returns the direct-conversation history with a persona in
// chronological order. Project-channel turns never match here because their
// persona_id is NULL.
func (r *messageRepository) ListByPersona(ownerID, personaID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) ListByProject(ownerID, projectID uint) ([]model.Message, error) {
	var messages []model.Message
	err := r.db.Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	return messages, err
}

func (r *messageRepository) DeleteByPersona(ownerID, personaID uint) error {
	return r.db.Where("owner_id = ? AND persona_id = ?", ownerID, personaID).
		Delete(&model.Message{}).Error
}

func (r *messageRepository) DeleteByProject(ownerID, projectID uint) error {
	return r.db.Where("owner_id = ? AND project_id = ?", ownerID, projectID).
		Delete(&model.Message{}).Error
}
