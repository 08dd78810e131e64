package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(req *model.Request) error {
	return r.db.Create(req).Error
}

func (r *requestRepository) Get(id uint) (*model.Request, error) {
	var request model.Request
	err := r.db.First(&request, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) GetByRequestID(ownerID uint, requestID string) (*model.Request, error) {
	var request model.Request
	err := r.db.Where("request_id = ? AND owner_id = ?", requestID, ownerID).First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) List(ownerID uint, status string, limit, offset int) ([]model.Request, error) {
	query := r.db.Where("owner_id = ?", ownerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var requests []model.Request
	err := query.Order("created_at DESC, id DESC").Find(&requests).Error
	return requests, err
}

func (r *requestRepository) ListActive(ownerID uint, limit int) ([]model.Request, error) {
	query := r.db.Where("owner_id = ? AND status IN ?", ownerID, []string{"pending", "processing"})
	if limit > 0 {
		query = query.Limit(limit)
	}
	var requests []model.Request
	err := query.Order("created_at DESC, id DESC").Find(&requests).Error
	return requests, err
}

func (r *requestRepository) Save(req *model.Request) error {
	return r.db.Save(req).Error
}

// TransitionStatus performs a guarded status update: the row is written only
// when it still carries the expected from status. RowsAffected tells the
// caller whether it won the race; 0 means another worker moved the request
// first and this attempt must be abandoned.
func (r *requestRepository) TransitionStatus(id uint, from, to string, extra map[string]interface{}) (int64, error) {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	result := r.db.Model(&model.Request{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// CleanupStuckRequests force-fails processing requests whose worker died
// without transitioning them, e.g. after a crash mid-workflow. Runs at
// startup before the orchestrator accepts new work.
func (r *requestRepository) CleanupStuckRequests(timeout time.Duration) (int64, error) {
	cutoff := time.Now().Add(-timeout)
	now := time.Now()
	result := r.db.Model(&model.Request{}).
		Where("status = ? AND started_at < ?", "processing", cutoff).
		Updates(map[string]interface{}{
			"status":       "failed",
			"error_msg":    fmt.Sprintf("request timed out after %v and was marked as failed", timeout),
			"completed_at": &now,
		})
	return result.RowsAffected, result.Error
}

func (r *requestRepository) CountByOwner(ownerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&model.Request{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *requestRepository) CountByStatus(ownerID uint, status string) (int64, error) {
	var count int64
	err := r.db.Model(&model.Request{}).
		Where("owner_id = ? AND status = ?", ownerID, status).
		Count(&count).Error
	return count, err
}
