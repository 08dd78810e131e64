package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/toolcap"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

var ErrUnknownIntegration = errors.New("unknown integration provider")

// IntegrationDTO reports the connection state of one external tool.
type IntegrationDTO struct {
	Provider    string `json:"provider"`
	Status      string `json:"status"`
	Connected   bool   `json:"connected"`
	ConnectedAt string `json:"connected_at,omitempty"`
}

// IntegrationService tracks per-owner tool connections. A connected
// integration makes the tool's capability section available to chat context.
type IntegrationService interface {
	Status(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error)
	Connect(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error)
	Disconnect(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error)
}

type integrationService struct {
	integrationRepo repository.IntegrationRepository
}

func NewIntegrationService(integrationRepo repository.IntegrationRepository) IntegrationService {
	return &integrationService{integrationRepo: integrationRepo}
}

func (s *integrationService) Status(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error) {
	if err := checkProvider(provider); err != nil {
		return nil, err
	}

	integration, err := s.integrationRepo.GetByProvider(ownerID, provider)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &IntegrationDTO{
				Provider: provider,
				Status:   model.IntegrationStatusDisconnected,
			}, nil
		}
		return nil, fmt.Errorf("failed to get integration: %w", err)
	}
	return toIntegrationDTO(integration), nil
}

func (s *integrationService) Connect(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error) {
	if err := checkProvider(provider); err != nil {
		return nil, err
	}

	integration, err := s.integrationRepo.SetStatus(ownerID, provider, model.IntegrationStatusConnected)
	if err != nil {
		return nil, fmt.Errorf("failed to connect integration: %w", err)
	}

	klog.V(6).Infof("integration connected: ownerID=%d, provider=%s", ownerID, provider)
	return toIntegrationDTO(integration), nil
}

func (s *integrationService) Disconnect(ctx context.Context, ownerID uint, provider string) (*IntegrationDTO, error) {
	if err := checkProvider(provider); err != nil {
		return nil, err
	}

	integration, err := s.integrationRepo.SetStatus(ownerID, provider, model.IntegrationStatusDisconnected)
	if err != nil {
		return nil, fmt.Errorf("failed to disconnect integration: %w", err)
	}

	klog.V(6).Infof("integration disconnected: ownerID=%d, provider=%s", ownerID, provider)
	return toIntegrationDTO(integration), nil
}

// checkProvider accepts only providers with a registered tool capability.
func checkProvider(provider string) error {
	if _, ok := toolcap.ForProvider(provider); !ok {
		return ErrUnknownIntegration
	}
	return nil
}

func toIntegrationDTO(i *model.Integration) *IntegrationDTO {
	dto := &IntegrationDTO{
		Provider:  i.Provider,
		Status:    i.Status,
		Connected: i.IsConnected(),
	}
	if i.ConnectedAt != nil {
		dto.ConnectedAt = i.ConnectedAt.Format("2006-01-02T15:04:05Z")
	}
	return dto
}
