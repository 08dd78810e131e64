package repository

import (
	"errors"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type deliverableRepository struct {
	db *gorm.DB
}

func NewDeliverableRepository(db *gorm.DB) DeliverableRepository {
	return &deliverableRepository{db: db}
}

func (r *deliverableRepository) Create(d *model.Deliverable) error {
	return r.db.Create(d).Error
}

func (r *deliverableRepository) Get(ownerID, id uint) (*model.Deliverable, error) {
	var deliverable model.Deliverable
	err := r.db.Where("id = ? AND owner_id = ?", id, ownerID).First(&deliverable).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deliverable, nil
}

func (r *deliverableRepository) GetLatestByRequest(requestID uint) (*model.Deliverable, error) {
	var deliverable model.Deliverable
	err := r.db.Where("request_id = ?", requestID).
		Order("version DESC, id DESC").
		First(&deliverable).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &deliverable, nil
}

func (r *deliverableRepository) ListByRequest(requestID uint) ([]model.Deliverable, error) {
	var deliverables []model.Deliverable
	err := r.db.Where("request_id = ?", requestID).
		Order("version ASC, id ASC").
		Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepository) List(ownerID uint, deliverableType string, limit, offset int) ([]model.Deliverable, error) {
	query := r.db.Where("owner_id = ?", ownerID)
	if deliverableType != "" {
		query = query.Where("deliverable_type = ?", deliverableType)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var deliverables []model.Deliverable
	err := query.Order("created_at DESC, id DESC").Find(&deliverables).Error
	return deliverables, err
}

func (r *deliverableRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Deliverable{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}
