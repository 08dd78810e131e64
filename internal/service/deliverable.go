package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
)

var ErrDeliverableNotFound = errors.New("deliverable not found")

// DeliverableDTO is the deliverable wire shape. Content is the synthesized
// markdown verbatim.
type DeliverableDTO struct {
	ID              uint   `json:"id"`
	RequestID       uint   `json:"request_id"`
	Title           string `json:"title"`
	Content         string `json:"content,omitempty"`
	DeliverableType string `json:"deliverable_type"`
	Version         int    `json:"version"`
	IsDraft         bool   `json:"is_draft"`
	CreatedAt       string `json:"created_at"`
}

// DeliverableService reads synthesized outputs. Deliverables are created by
// the request workflow only and never edited.
type DeliverableService interface {
	Get(ctx context.Context, ownerID, id uint) (*DeliverableDTO, error)
	GetLatestForRequest(ctx context.Context, ownerID uint, requestUUID string) (*DeliverableDTO, error)
	List(ctx context.Context, ownerID uint, deliverableType string, limit, offset int) ([]*DeliverableDTO, error)
}

type deliverableService struct {
	deliverableRepo repository.DeliverableRepository
	requestRepo     repository.RequestRepository
}

func NewDeliverableService(
	deliverableRepo repository.DeliverableRepository,
	requestRepo repository.RequestRepository,
) DeliverableService {
	return &deliverableService{
		deliverableRepo: deliverableRepo,
		requestRepo:     requestRepo,
	}
}

func (s *deliverableService) Get(ctx context.Context, ownerID, id uint) (*DeliverableDTO, error) {
	deliverable, err := s.deliverableRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("failed to get deliverable: %w", err)
	}
	return toDeliverableDTO(deliverable, true), nil
}

func (s *deliverableService) GetLatestForRequest(ctx context.Context, ownerID uint, requestUUID string) (*DeliverableDTO, error) {
	request, err := s.requestRepo.GetByRequestID(ownerID, requestUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	deliverable, err := s.deliverableRepo.GetLatestByRequest(request.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDeliverableNotFound
		}
		return nil, fmt.Errorf("failed to get deliverable: %w", err)
	}
	return toDeliverableDTO(deliverable, true), nil
}

func (s *deliverableService) List(ctx context.Context, ownerID uint, deliverableType string, limit, offset int) ([]*DeliverableDTO, error) {
	deliverables, err := s.deliverableRepo.List(ownerID, deliverableType, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}

	result := make([]*DeliverableDTO, len(deliverables))
	for i := range deliverables {
		result[i] = toDeliverableDTO(&deliverables[i], false)
	}
	return result, nil
}

func toDeliverableDTO(d *model.Deliverable, withContent bool) *DeliverableDTO {
	dto := &DeliverableDTO{
		ID:              d.ID,
		RequestID:       d.RequestID,
		Title:           d.Title,
		DeliverableType: d.DeliverableType,
		Version:         d.Version,
		IsDraft:         d.IsDraft,
		CreatedAt:       d.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if withContent {
		dto.Content = d.Content
	}
	return dto
}
