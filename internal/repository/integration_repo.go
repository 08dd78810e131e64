package repository

import (
	"errors"
	"time"

	"github.com/quietdesk/backend/internal/model"
	"gorm.io/gorm"
)

type integrationRepository struct {
	db *gorm.DB
}

func NewIntegrationRepository(db *gorm.DB) IntegrationRepository {
	return &integrationRepository{db: db}
}

func (r *integrationRepository) GetByProvider(ownerID uint, provider string) (*model.Integration, error) {
	var integration model.Integration
	err := r.db.Where("owner_id = ? AND provider = ?", ownerID, provider).First(&integration).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &integration, nil
}

// SetStatus upserts the integration row for an owner/provider pair.
func (r *integrationRepository) SetStatus(ownerID uint, provider, status string) (*model.Integration, error) {
	integration, err := r.GetByProvider(ownerID, provider)
	if errors.Is(err, ErrNotFound) {
		integration = &model.Integration{
			OwnerID:  ownerID,
			Provider: provider,
		}
	} else if err != nil {
		return nil, err
	}

	integration.Status = status
	if status == model.IntegrationStatusConnected {
		now := time.Now()
		integration.ConnectedAt = &now
	} else {
		integration.ConnectedAt = nil
	}
	if err := r.db.Save(integration).Error; err != nil {
		return nil, err
	}
	return integration, nil
}

// IsConnected treats a missing row as disconnected.
func (r *integrationRepository) IsConnected(ownerID uint, provider string) (bool, error) {
	integration, err := r.GetByProvider(ownerID, provider)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return integration.IsConnected(), nil
}
