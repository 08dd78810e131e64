package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
)

var (
	ErrMemoryNotFound = errors.New("memory not found")
	ErrMemoryScope    = errors.New("memory can be scoped to a persona or a project, not both")
)

// MemoryDTO is the memory wire shape. PersonaName is resolved for display
// when the memory is persona-scoped.
type MemoryDTO struct {
	ID          uint   `json:"id"`
	Content     string `json:"content"`
	Category    string `json:"category,omitempty"`
	PersonaID   *uint  `json:"persona_id"`
	PersonaName string `json:"persona_name,omitempty"`
	ProjectID   *uint  `json:"project_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type CreateMemoryRequest struct {
	Content   string `json:"content" binding:"required"`
	Category  string `json:"category" binding:"max=100"`
	PersonaID *uint  `json:"persona_id"`
	ProjectID *uint  `json:"project_id"`
}

type UpdateMemoryRequest struct {
	Content string `json:"content" binding:"required"`
}

// MemoryListFilter selects which scope to list. Zero value lists shared
// memories only; All overrides the scope fields.
type MemoryListFilter struct {
	PersonaID *uint
	ProjectID *uint
	All       bool
}

// MemoryService manages owner-curated facts injected into chat context.
type MemoryService interface {
	Create(ctx context.Context, ownerID uint, req CreateMemoryRequest) (*MemoryDTO, error)
	List(ctx context.Context, ownerID uint, filter MemoryListFilter) ([]*MemoryDTO, error)
	Update(ctx context.Context, ownerID, id uint, req UpdateMemoryRequest) (*MemoryDTO, error)
	Delete(ctx context.Context, ownerID, id uint) error
}

type memoryService struct {
	memoryRepo  repository.MemoryRepository
	personaRepo repository.PersonaRepository
	projectRepo repository.ProjectRepository
}

func NewMemoryService(
	memoryRepo repository.MemoryRepository,
	personaRepo repository.PersonaRepository,
	projectRepo repository.ProjectRepository,
) MemoryService {
	return &memoryService{
		memoryRepo:  memoryRepo,
		personaRepo: personaRepo,
		projectRepo: projectRepo,
	}
}

// Create stores a memory in the requested scope after verifying the scope row
// belongs to the owner. Neither scope set means the memory is shared.
func (s *memoryService) Create(ctx context.Context, ownerID uint, req CreateMemoryRequest) (*MemoryDTO, error) {
	if req.PersonaID != nil && req.ProjectID != nil {
		return nil, ErrMemoryScope
	}

	personaName := ""
	if req.PersonaID != nil {
		persona, err := s.personaRepo.Get(ownerID, *req.PersonaID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrPersonaNotFound
			}
			return nil, fmt.Errorf("failed to get persona: %w", err)
		}
		personaName = persona.Name
	}
	if req.ProjectID != nil {
		if _, err := s.projectRepo.Get(ownerID, *req.ProjectID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
	}

	memory := &model.Memory{
		OwnerID:   ownerID,
		PersonaID: req.PersonaID,
		ProjectID: req.ProjectID,
		Content:   req.Content,
		Category:  req.Category,
	}
	if err := s.memoryRepo.Create(memory); err != nil {
		return nil, fmt.Errorf("failed to create memory: %w", err)
	}

	dto := toMemoryDTO(memory)
	dto.PersonaName = personaName
	return dto, nil
}

func (s *memoryService) List(ctx context.Context, ownerID uint, filter MemoryListFilter) ([]*MemoryDTO, error) {
	var (
		memories []model.Memory
		err      error
	)
	switch {
	case filter.All:
		memories, err = s.memoryRepo.ListByOwner(ownerID)
	case filter.PersonaID != nil:
		memories, err = s.memoryRepo.ListByPersona(ownerID, *filter.PersonaID)
	case filter.ProjectID != nil:
		memories, err = s.memoryRepo.ListByProject(ownerID, *filter.ProjectID)
	default:
		memories, err = s.memoryRepo.ListShared(ownerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list memories: %w", err)
	}

	personaNames, err := s.personaNames(ownerID, memories)
	if err != nil {
		return nil, err
	}

	result := make([]*MemoryDTO, len(memories))
	for i := range memories {
		dto := toMemoryDTO(&memories[i])
		if memories[i].PersonaID != nil {
			dto.PersonaName = personaNames[*memories[i].PersonaID]
		}
		result[i] = dto
	}
	return result, nil
}

func (s *memoryService) Update(ctx context.Context, ownerID, id uint, req UpdateMemoryRequest) (*MemoryDTO, error) {
	memory, err := s.getMemory(ownerID, id)
	if err != nil {
		return nil, err
	}

	memory.Content = req.Content
	if err := s.memoryRepo.Save(memory); err != nil {
		return nil, fmt.Errorf("failed to update memory: %w", err)
	}
	return toMemoryDTO(memory), nil
}

func (s *memoryService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.getMemory(ownerID, id); err != nil {
		return err
	}
	if err := s.memoryRepo.Delete(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete memory: %w", err)
	}
	return nil
}

func (s *memoryService) getMemory(ownerID, id uint) (*model.Memory, error) {
	memory, err := s.memoryRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrMemoryNotFound
		}
		return nil, fmt.Errorf("failed to get memory: %w", err)
	}
	return memory, nil
}

// personaNames resolves display names for the persona-scoped entries of a
// listing in one pass over the owner's roster.
func (s *memoryService) personaNames(ownerID uint, memories []model.Memory) (map[uint]string, error) {
	needed := false
	for i := range memories {
		if memories[i].PersonaID != nil {
			needed = true
			break
		}
	}
	if !needed {
		return nil, nil
	}

	personas, err := s.personaRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}
	names := make(map[uint]string, len(personas))
	for i := range personas {
		names[personas[i].ID] = personas[i].Name
	}
	return names, nil
}

func toMemoryDTO(m *model.Memory) *MemoryDTO {
	return &MemoryDTO{
		ID:        m.ID,
		Content:   m.Content,
		Category:  m.Category,
		PersonaID: m.PersonaID,
		ProjectID: m.ProjectID,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt: m.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
