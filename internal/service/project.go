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
	ErrProjectNotFound = errors.New("project not found")
	ErrAlreadyAssigned = errors.New("persona already assigned to project")
	ErrNotAssigned     = errors.New("persona not assigned to project")
)

type ProjectDTO struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Instructions string `json:"instructions"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

type CreateProjectRequest struct {
	Name         string `json:"name" binding:"required,min=1,max=255"`
	Instructions string `json:"instructions"`
}

type UpdateProjectRequest struct {
	Name         *string `json:"name"`
	Instructions *string `json:"instructions"`
}

// ProjectService manages project channels and their persona assignments.
type ProjectService interface {
	Create(ctx context.Context, ownerID uint, req CreateProjectRequest) (*ProjectDTO, error)
	List(ctx context.Context, ownerID uint) ([]*ProjectDTO, error)
	Get(ctx context.Context, ownerID, id uint) (*ProjectDTO, error)
	Update(ctx context.Context, ownerID, id uint, req UpdateProjectRequest) (*ProjectDTO, error)
	Delete(ctx context.Context, ownerID, id uint) error

	AssignPersona(ctx context.Context, ownerID, projectID, personaID uint) error
	UnassignPersona(ctx context.Context, ownerID, projectID, personaID uint) error
	ListPersonas(ctx context.Context, ownerID, projectID uint) ([]*PersonaDTO, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
	personaRepo repository.PersonaRepository
	messageRepo repository.MessageRepository
	fileRepo    repository.FileRepository
}

func NewProjectService(
	projectRepo repository.ProjectRepository,
	personaRepo repository.PersonaRepository,
	messageRepo repository.MessageRepository,
	fileRepo repository.FileRepository,
) ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		personaRepo: personaRepo,
		messageRepo: messageRepo,
		fileRepo:    fileRepo,
	}
}

func (s *projectService) Create(ctx context.Context, ownerID uint, req CreateProjectRequest) (*ProjectDTO, error) {
	project := &model.Project{
		OwnerID:      ownerID,
		Name:         req.Name,
		Instructions: req.Instructions,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return toProjectDTO(project), nil
}

func (s *projectService) List(ctx context.Context, ownerID uint) ([]*ProjectDTO, error) {
	projects, err := s.projectRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	result := make([]*ProjectDTO, len(projects))
	for i := range projects {
		result[i] = toProjectDTO(&projects[i])
	}
	return result, nil
}

func (s *projectService) Get(ctx context.Context, ownerID, id uint) (*ProjectDTO, error) {
	project, err := s.getProject(ownerID, id)
	if err != nil {
		return nil, err
	}
	return toProjectDTO(project), nil
}

func (s *projectService) Update(ctx context.Context, ownerID, id uint, req UpdateProjectRequest) (*ProjectDTO, error) {
	project, err := s.getProject(ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		project.Name = *req.Name
	}
	if req.Instructions != nil {
		project.Instructions = *req.Instructions
	}

	if err := s.projectRepo.Save(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return toProjectDTO(project), nil
}

// Delete removes a project together with its channel history, files, and
// persona assignments.
func (s *projectService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.getProject(ownerID, id); err != nil {
		return err
	}

	if err := s.messageRepo.DeleteByProject(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete project messages: %w", err)
	}
	if err := s.fileRepo.DeleteByProject(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete project files: %w", err)
	}
	if err := s.projectRepo.Delete(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	klog.V(6).Infof("project deleted: ownerID=%d, projectID=%d", ownerID, id)
	return nil
}

func (s *projectService) AssignPersona(ctx context.Context, ownerID, projectID, personaID uint) error {
	if _, err := s.getProject(ownerID, projectID); err != nil {
		return err
	}
	if _, err := s.personaRepo.Get(ownerID, personaID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPersonaNotFound
		}
		return fmt.Errorf("failed to get persona: %w", err)
	}

	assigned, err := s.projectRepo.IsAssigned(projectID, personaID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if assigned {
		return ErrAlreadyAssigned
	}

	if err := s.projectRepo.AssignPersona(projectID, personaID); err != nil {
		return fmt.Errorf("failed to assign persona: %w", err)
	}
	return nil
}

func (s *projectService) UnassignPersona(ctx context.Context, ownerID, projectID, personaID uint) error {
	if _, err := s.getProject(ownerID, projectID); err != nil {
		return err
	}

	assigned, err := s.projectRepo.IsAssigned(projectID, personaID)
	if err != nil {
		return fmt.Errorf("failed to check assignment: %w", err)
	}
	if !assigned {
		return ErrNotAssigned
	}

	if err := s.projectRepo.UnassignPersona(projectID, personaID); err != nil {
		return fmt.Errorf("failed to unassign persona: %w", err)
	}
	return nil
}

func (s *projectService) ListPersonas(ctx context.Context, ownerID, projectID uint) ([]*PersonaDTO, error) {
	if _, err := s.getProject(ownerID, projectID); err != nil {
		return nil, err
	}

	personas, err := s.projectRepo.ListAssignedPersonas(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list assigned personas: %w", err)
	}

	result := make([]*PersonaDTO, len(personas))
	for i := range personas {
		result[i] = toPersonaDTO(&personas[i])
	}
	return result, nil
}

func (s *projectService) getProject(ownerID, id uint) (*model.Project, error) {
	project, err := s.projectRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return project, nil
}

func toProjectDTO(p *model.Project) *ProjectDTO {
	return &ProjectDTO{
		ID:           p.ID,
		Name:         p.Name,
		Instructions: p.Instructions,
		CreatedAt:    p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
