package repository

import (
	"context"
	"errors"
	"time"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

// ErrAPIKeyNotFound is returned when an owner has no usable key for a provider.
var ErrAPIKeyNotFound = errors.New("api key not found")

// APIKeyRepository stores per-owner provider credentials. Chat and request
// processing resolve keys through GetBestByProvider; the rest is settings CRUD.
type APIKeyRepository interface {
	Create(ctx context.Context, apiKey *model.APIKey) error
	Update(ctx context.Context, apiKey *model.APIKey) error
	Delete(ctx context.Context, ownerID, id uint) error
	GetByID(ctx context.Context, ownerID, id uint) (*model.APIKey, error)
	List(ctx context.Context, ownerID uint) ([]*model.APIKey, error)
	ListByProvider(ctx context.Context, ownerID uint, provider string) ([]*model.APIKey, error)

	// GetBestByProvider returns the available key with the lowest priority
	// value, or ErrAPIKeyNotFound when none is usable.
	GetBestByProvider(ctx context.Context, ownerID uint, provider string) (*model.APIKey, error)
	HasAnyKey(ctx context.Context, ownerID uint) (bool, error)

	UpdateStatus(ctx context.Context, id uint, status string) error
	IncrementStats(ctx context.Context, id uint, requestCount, errorCount int) error
	UpdateLastUsedAt(ctx context.Context, id uint) error
	SetRateLimitReset(ctx context.Context, id uint, resetTime time.Time) error
}

type apiKeyRepository struct {
	db *gorm.DB
}

func NewAPIKeyRepository(db *gorm.DB) APIKeyRepository {
	return &apiKeyRepository{db: db}
}

func (r *apiKeyRepository) Create(ctx context.Context, apiKey *model.APIKey) error {
	return r.db.WithContext(ctx).Create(apiKey).Error
}

func (r *apiKeyRepository) Update(ctx context.Context, apiKey *model.APIKey) error {
	return r.db.WithContext(ctx).Save(apiKey).Error
}

func (r *apiKeyRepository) Delete(ctx context.Context, ownerID, id uint) error {
	return r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&model.APIKey{}, id).Error
}

func (r *apiKeyRepository) GetByID(ctx context.Context, ownerID, id uint) (*model.APIKey, error) {
	var apiKey model.APIKey
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		First(&apiKey).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, err
	}
	return &apiKey, nil
}

func (r *apiKeyRepository) List(ctx context.Context, ownerID uint) ([]*model.APIKey, error) {
	var apiKeys []*model.APIKey
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("priority ASC, id ASC").
		Find(&apiKeys).Error
	return apiKeys, err
}

func (r *apiKeyRepository) ListByProvider(ctx context.Context, ownerID uint, provider string) ([]*model.APIKey, error) {
	var apiKeys []*model.APIKey
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider = ?", ownerID, provider).
		Order("priority ASC, id ASC").
		Find(&apiKeys).Error
	return apiKeys, err
}

// GetBestByProvider walks enabled keys in priority order and skips keys still
// inside a rate-limit cooldown.
func (r *apiKeyRepository) GetBestByProvider(ctx context.Context, ownerID uint, provider string) (*model.APIKey, error) {
	var apiKeys []*model.APIKey
	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND provider = ? AND status = ?", ownerID, provider, "enabled").
		Order("priority ASC, id ASC").
		Find(&apiKeys).Error
	if err != nil {
		return nil, err
	}
	for _, key := range apiKeys {
		if key.IsAvailable() {
			return key, nil
		}
	}
	return nil, ErrAPIKeyNotFound
}

func (r *apiKeyRepository) HasAnyKey(ctx context.Context, ownerID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("owner_id = ? AND status = ?", ownerID, "enabled").
		Count(&count).Error
	return count > 0, err
}

func (r *apiKeyRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *apiKeyRepository) IncrementStats(ctx context.Context, id uint, requestCount, errorCount int) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", requestCount),
			"error_count":   gorm.Expr("error_count + ?", errorCount),
		}).Error
}

func (r *apiKeyRepository) UpdateLastUsedAt(ctx context.Context, id uint) error {
	now := time.Now()
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Update("last_used_at", &now).Error
}

func (r *apiKeyRepository) SetRateLimitReset(ctx context.Context, id uint, resetTime time.Time) error {
	return r.db.WithContext(ctx).
		Model(&model.APIKey{}).
		Where("id = ?", id).
		Update("rate_limit_reset_at", &resetTime).Error
}
