package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

var ErrSuggestionNotFound = errors.New("suggestion not found")

// SuggestionResolvedError rejects approve/reject on a suggestion that already
// left the pending state. Resolved suggestions are immutable.
type SuggestionResolvedError struct {
	Status string
}

func (e *SuggestionResolvedError) Error() string {
	return fmt.Sprintf("suggestion already %s", e.Status)
}

// SuggestionDTO is the memory suggestion wire shape.
type SuggestionDTO struct {
	ID          uint   `json:"id"`
	PersonaID   uint   `json:"persona_id"`
	PersonaName string `json:"persona_name,omitempty"`
	ProjectID   *uint  `json:"project_id"`
	Content     string `json:"content"`
	Category    string `json:"category,omitempty"`
	Status      string `json:"status"`
	ResolvedAt  string `json:"resolved_at,omitempty"`
	CreatedAt   string `json:"created_at"`
}

type CreateSuggestionRequest struct {
	PersonaID uint   `json:"persona_id" binding:"required"`
	ProjectID *uint  `json:"project_id"`
	Content   string `json:"content" binding:"required"`
	Category  string `json:"category" binding:"max=100"`
}

// ApproveResultDTO reports the memory materialized from an approved
// suggestion.
type ApproveResultDTO struct {
	Status       string `json:"status"`
	MemoryID     uint   `json:"memory_id"`
	SuggestionID uint   `json:"suggestion_id"`
	Content      string `json:"content"`
	Category     string `json:"category,omitempty"`
	PersonaID    uint   `json:"suggested_by_persona_id"`
}

// SuggestionService enforces the suggest-then-approve rule: personas propose
// memories, only owner approval writes one.
type SuggestionService interface {
	Create(ctx context.Context, ownerID uint, req CreateSuggestionRequest) (*SuggestionDTO, error)
	List(ctx context.Context, ownerID uint, status string) ([]*SuggestionDTO, error)
	Approve(ctx context.Context, ownerID, id uint) (*ApproveResultDTO, error)
	Reject(ctx context.Context, ownerID, id uint) (*SuggestionDTO, error)
}

type suggestionService struct {
	suggestionRepo repository.MemorySuggestionRepository
	memoryRepo     repository.MemoryRepository
	personaRepo    repository.PersonaRepository
}

func NewSuggestionService(
	suggestionRepo repository.MemorySuggestionRepository,
	memoryRepo repository.MemoryRepository,
	personaRepo repository.PersonaRepository,
) SuggestionService {
	return &suggestionService{
		suggestionRepo: suggestionRepo,
		memoryRepo:     memoryRepo,
		personaRepo:    personaRepo,
	}
}

func (s *suggestionService) Create(ctx context.Context, ownerID uint, req CreateSuggestionRequest) (*SuggestionDTO, error) {
	persona, err := s.personaRepo.Get(ownerID, req.PersonaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}

	suggestion := &model.MemorySuggestion{
		OwnerID:   ownerID,
		PersonaID: req.PersonaID,
		ProjectID: req.ProjectID,
		Content:   req.Content,
		Category:  req.Category,
		Status:    model.SuggestionStatusPending,
	}
	if err := s.suggestionRepo.Create(suggestion); err != nil {
		return nil, fmt.Errorf("failed to create suggestion: %w", err)
	}

	dto := toSuggestionDTO(suggestion)
	dto.PersonaName = persona.Name
	return dto, nil
}

func (s *suggestionService) List(ctx context.Context, ownerID uint, status string) ([]*SuggestionDTO, error) {
	suggestions, err := s.suggestionRepo.List(ownerID, status)
	if err != nil {
		return nil, fmt.Errorf("failed to list suggestions: %w", err)
	}

	personas, err := s.personaRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	names := make(map[uint]string, len(personas))
	for i := range personas {
		names[personas[i].ID] = personas[i].Name
	}

	result := make([]*SuggestionDTO, len(suggestions))
	for i := range suggestions {
		dto := toSuggestionDTO(&suggestions[i])
		dto.PersonaName = names[suggestions[i].PersonaID]
		result[i] = dto
	}
	return result, nil
}

// Approve materializes the suggestion as a memory. The memory keeps the
// suggesting persona as provenance and inherits the project scope.
func (s *suggestionService) Approve(ctx context.Context, ownerID, id uint) (*ApproveResultDTO, error) {
	suggestion, err := s.getPending(ownerID, id)
	if err != nil {
		return nil, err
	}

	memory := &model.Memory{
		OwnerID:   ownerID,
		PersonaID: &suggestion.PersonaID,
		ProjectID: suggestion.ProjectID,
		Content:   suggestion.Content,
		Category:  suggestion.Category,
	}
	if err := s.memoryRepo.Create(memory); err != nil {
		return nil, fmt.Errorf("failed to create memory from suggestion: %w", err)
	}

	now := time.Now()
	suggestion.Status = model.SuggestionStatusApproved
	suggestion.ResolvedAt = &now
	if err := s.suggestionRepo.Save(suggestion); err != nil {
		return nil, fmt.Errorf("failed to resolve suggestion: %w", err)
	}

	klog.V(6).Infof("suggestion approved: suggestionID=%d, memoryID=%d, personaID=%d",
		suggestion.ID, memory.ID, suggestion.PersonaID)
	return &ApproveResultDTO{
		Status:       model.SuggestionStatusApproved,
		MemoryID:     memory.ID,
		SuggestionID: suggestion.ID,
		Content:      memory.Content,
		Category:     memory.Category,
		PersonaID:    suggestion.PersonaID,
	}, nil
}

func (s *suggestionService) Reject(ctx context.Context, ownerID, id uint) (*SuggestionDTO, error) {
	suggestion, err := s.getPending(ownerID, id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	suggestion.Status = model.SuggestionStatusRejected
	suggestion.ResolvedAt = &now
	if err := s.suggestionRepo.Save(suggestion); err != nil {
		return nil, fmt.Errorf("failed to resolve suggestion: %w", err)
	}
	return toSuggestionDTO(suggestion), nil
}

func (s *suggestionService) getPending(ownerID, id uint) (*model.MemorySuggestion, error) {
	suggestion, err := s.suggestionRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSuggestionNotFound
		}
		return nil, fmt.Errorf("failed to get suggestion: %w", err)
	}
	if suggestion.IsResolved() {
		return nil, &SuggestionResolvedError{Status: suggestion.Status}
	}
	return suggestion, nil
}

func toSuggestionDTO(s *model.MemorySuggestion) *SuggestionDTO {
	dto := &SuggestionDTO{
		ID:        s.ID,
		PersonaID: s.PersonaID,
		ProjectID: s.ProjectID,
		Content:   s.Content,
		Category:  s.Category,
		Status:    s.Status,
		CreatedAt: s.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if s.ResolvedAt != nil {
		dto.ResolvedAt = s.ResolvedAt.Format("2006-01-02T15:04:05Z")
	}
	return dto
}
