package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

var (
	ErrAPIKeyNotFound   = errors.New("api key not found")
	ErrInvalidProvider  = errors.New("provider must be openai or anthropic")
	ErrInvalidKeyStatus = errors.New("status must be enabled or disabled")
)

// APIKeyDTO is the credential wire shape. The key itself is always masked.
type APIKeyDTO struct {
	ID           uint   `json:"id"`
	Provider     string `json:"provider"`
	BaseURL      string `json:"base_url,omitempty"`
	MaskedKey    string `json:"masked_key"`
	Priority     int    `json:"priority"`
	Status       string `json:"status"`
	RequestCount int    `json:"request_count"`
	ErrorCount   int    `json:"error_count"`
	LastUsedAt   string `json:"last_used_at,omitempty"`
	CreatedAt    string `json:"created_at"`
}

type CreateAPIKeyRequest struct {
	Provider string `json:"provider" binding:"required"`
	APIKey   string `json:"api_key" binding:"required"`
	BaseURL  string `json:"base_url"`
	Priority int    `json:"priority"`
}

// APIKeyService manages stored provider credentials for settings. Resolution
// for completions happens in the llm client, not here.
type APIKeyService interface {
	Create(ctx context.Context, ownerID uint, req CreateAPIKeyRequest) (*APIKeyDTO, error)
	List(ctx context.Context, ownerID uint) ([]*APIKeyDTO, error)
	Delete(ctx context.Context, ownerID, id uint) error
	UpdateStatus(ctx context.Context, ownerID, id uint, status string) (*APIKeyDTO, error)
}

type apiKeyService struct {
	apiKeyRepo repository.APIKeyRepository
}

func NewAPIKeyService(apiKeyRepo repository.APIKeyRepository) APIKeyService {
	return &apiKeyService{apiKeyRepo: apiKeyRepo}
}

func (s *apiKeyService) Create(ctx context.Context, ownerID uint, req CreateAPIKeyRequest) (*APIKeyDTO, error) {
	if req.Provider != model.ProviderOpenAI && req.Provider != model.ProviderAnthropic {
		return nil, ErrInvalidProvider
	}

	apiKey := &model.APIKey{
		OwnerID:  ownerID,
		Provider: req.Provider,
		APIKey:   req.APIKey,
		BaseURL:  req.BaseURL,
		Priority: req.Priority,
		Status:   "enabled",
	}
	if err := s.apiKeyRepo.Create(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("failed to create api key: %w", err)
	}

	klog.V(6).Infof("api key created: ownerID=%d, provider=%s, keyID=%d", ownerID, req.Provider, apiKey.ID)
	return toAPIKeyDTO(apiKey), nil
}

func (s *apiKeyService) List(ctx context.Context, ownerID uint) ([]*APIKeyDTO, error) {
	apiKeys, err := s.apiKeyRepo.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list api keys: %w", err)
	}

	result := make([]*APIKeyDTO, len(apiKeys))
	for i, key := range apiKeys {
		result[i] = toAPIKeyDTO(key)
	}
	return result, nil
}

func (s *apiKeyService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.apiKeyRepo.GetByID(ctx, ownerID, id); err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return ErrAPIKeyNotFound
		}
		return fmt.Errorf("failed to get api key: %w", err)
	}
	if err := s.apiKeyRepo.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete api key: %w", err)
	}
	return nil
}

func (s *apiKeyService) UpdateStatus(ctx context.Context, ownerID, id uint, status string) (*APIKeyDTO, error) {
	if status != "enabled" && status != "disabled" {
		return nil, ErrInvalidKeyStatus
	}

	apiKey, err := s.apiKeyRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrAPIKeyNotFound) {
			return nil, ErrAPIKeyNotFound
		}
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}

	if err := s.apiKeyRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update api key status: %w", err)
	}
	apiKey.Status = status
	return toAPIKeyDTO(apiKey), nil
}

func toAPIKeyDTO(k *model.APIKey) *APIKeyDTO {
	dto := &APIKeyDTO{
		ID:           k.ID,
		Provider:     k.Provider,
		BaseURL:      k.BaseURL,
		MaskedKey:    k.MaskAPIKey(),
		Priority:     k.Priority,
		Status:       k.Status,
		RequestCount: k.RequestCount,
		ErrorCount:   k.ErrorCount,
		CreatedAt:    k.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if k.LastUsedAt != nil {
		dto.LastUsedAt = k.LastUsedAt.Format("2006-01-02T15:04:05Z")
	}
	return dto
}
