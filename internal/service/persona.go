package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
	"github.com/quietdesk/backend/internal/service/promptbuilder"
	"k8s.io/klog/v2"
)

var (
	ErrPersonaNotFound    = errors.New("persona not found")
	ErrDefaultPersona     = errors.New("default persona cannot be deleted")
	ErrNoTemplateLineage  = errors.New("persona is not based on a template")
	ErrTemplateGone       = errors.New("template no longer exists")
	ErrInvalidPersonaData = errors.New("invalid persona data")
)

// DefaultPersonaDeleteReason is shown when deletion of the default lead is
// refused.
const DefaultPersonaDeleteReason = "The default Project Manager cannot be deleted. You can customize it or create additional roles."

// PersonaDTO is the persona wire shape.
type PersonaDTO struct {
	ID               uint   `json:"id"`
	Name             string `json:"name"`
	Role             string `json:"role"`
	Title            string `json:"title"`
	Instructions     string `json:"instructions"`
	UserInstructions string `json:"user_instructions"`
	Model            string `json:"model"`
	RoleTemplateID   *uint  `json:"role_template_id"`
	TemplateVersion  int    `json:"template_version"`
	IsDefault        bool   `json:"is_default"`
	IsLead           bool   `json:"is_lead"`
	Starred          bool   `json:"starred"`
	Archived         bool   `json:"archived"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

type CreatePersonaRequest struct {
	Name             string `json:"name" binding:"required,min=1,max=255"`
	Role             string `json:"role" binding:"max=100"`
	Title            string `json:"title" binding:"max=255"`
	Instructions     string `json:"instructions"`
	UserInstructions string `json:"user_instructions"`
	Model            string `json:"model" binding:"max=255"`
}

// UpdatePersonaRequest carries partial updates; nil fields are left untouched.
type UpdatePersonaRequest struct {
	Name             *string `json:"name"`
	Title            *string `json:"title"`
	Instructions     *string `json:"instructions"`
	UserInstructions *string `json:"user_instructions"`
	Model            *string `json:"model"`
	Starred          *bool   `json:"starred"`
	Archived         *bool   `json:"archived"`
}

type ClonePersonaRequest struct {
	NewName string `json:"new_name"`
}

type ResetToTemplateRequest struct {
	PreserveUserInstructions *bool `json:"preserve_user_instructions"`
}

// CanDeleteDTO reports whether a persona may be deleted and why not.
type CanDeleteDTO struct {
	CanDelete bool   `json:"can_delete"`
	Reason    string `json:"reason,omitempty"`
	IsDefault bool   `json:"is_default"`
}

// ComposedInstructionsDTO previews the effective instructions the composer
// would produce, together with template lineage state.
type ComposedInstructionsDTO struct {
	PersonaID              uint     `json:"persona_id"`
	PersonaName            string   `json:"persona_name"`
	ComposedInstructions   string   `json:"composed_instructions"`
	Sources                []string `json:"sources"`
	HasTemplate            bool     `json:"has_template"`
	TemplateName           string   `json:"template_name,omitempty"`
	TemplateVersion        int      `json:"template_version"`
	CurrentTemplateVersion int      `json:"current_template_version,omitempty"`
	UpdateAvailable        bool     `json:"update_available"`
}

// PersonaService manages an owner's AI employees.
type PersonaService interface {
	EnsureDefaultTeam(ctx context.Context, ownerID uint) error
	Create(ctx context.Context, ownerID uint, req CreatePersonaRequest) (*PersonaDTO, error)
	List(ctx context.Context, ownerID uint, includeArchived bool) ([]*PersonaDTO, error)
	Get(ctx context.Context, ownerID, id uint) (*PersonaDTO, error)
	Update(ctx context.Context, ownerID, id uint, req UpdatePersonaRequest) (*PersonaDTO, error)
	Delete(ctx context.Context, ownerID, id uint) error
	CanDelete(ctx context.Context, ownerID, id uint) (*CanDeleteDTO, error)
	Clone(ctx context.Context, ownerID, id uint, req ClonePersonaRequest) (*PersonaDTO, error)
	ResetToTemplate(ctx context.Context, ownerID, id uint, req ResetToTemplateRequest) (*PersonaDTO, error)
	ComposedInstructions(ctx context.Context, ownerID, id uint) (*ComposedInstructionsDTO, error)
}

type personaService struct {
	personaRepo  repository.PersonaRepository
	templateRepo repository.RoleTemplateRepository
	messageRepo  repository.MessageRepository
	fileRepo     repository.FileRepository
	builder      *promptbuilder.Builder

	// seededOwners short-circuits the roster existence check after the first
	// request of an owner in this process.
	seededOwners sync.Map
}

func NewPersonaService(
	personaRepo repository.PersonaRepository,
	templateRepo repository.RoleTemplateRepository,
	messageRepo repository.MessageRepository,
	fileRepo repository.FileRepository,
	builder *promptbuilder.Builder,
) PersonaService {
	return &personaService{
		personaRepo:  personaRepo,
		templateRepo: templateRepo,
		messageRepo:  messageRepo,
		fileRepo:     fileRepo,
		builder:      builder,
	}
}

// EnsureDefaultTeam seeds the QuietDesk roster for an owner that has no
// personas yet. Owners that already have any persona are left alone, so a
// fully deleted custom roster is never resurrected.
func (s *personaService) EnsureDefaultTeam(ctx context.Context, ownerID uint) error {
	if _, ok := s.seededOwners.Load(ownerID); ok {
		return nil
	}

	existing, err := s.personaRepo.ListByOwner(ownerID)
	if err != nil {
		return fmt.Errorf("failed to list personas: %w", err)
	}
	if len(existing) > 0 {
		s.seededOwners.Store(ownerID, true)
		return nil
	}

	for _, seed := range quietdeskTeam {
		persona := &model.Persona{
			OwnerID:      ownerID,
			Name:         seed.Name,
			Role:         seed.Role,
			Title:        seed.Title,
			Instructions: seed.Instructions,
			Model:        seed.Model,
			IsDefault:    seed.IsLead,
			IsLead:       seed.IsLead,
		}
		if template, err := s.templateRepo.GetBySlug(seed.Role); err == nil {
			persona.RoleTemplateID = &template.ID
			persona.TemplateVersion = template.Version
		}
		if err := s.personaRepo.Create(persona); err != nil {
			return fmt.Errorf("failed to seed persona %s: %w", seed.Name, err)
		}
	}

	s.seededOwners.Store(ownerID, true)
	klog.Infof("default team seeded: ownerID=%d, personas=%d", ownerID, len(quietdeskTeam))
	return nil
}

func (s *personaService) Create(ctx context.Context, ownerID uint, req CreatePersonaRequest) (*PersonaDTO, error) {
	persona := &model.Persona{
		OwnerID:          ownerID,
		Name:             req.Name,
		Role:             req.Role,
		Title:            req.Title,
		Instructions:     req.Instructions,
		UserInstructions: req.UserInstructions,
		Model:            req.Model,
	}
	if persona.Model == "" {
		persona.Model = "gpt-4"
	}

	if err := s.personaRepo.Create(persona); err != nil {
		return nil, fmt.Errorf("failed to create persona: %w", err)
	}
	return toPersonaDTO(persona), nil
}

func (s *personaService) List(ctx context.Context, ownerID uint, includeArchived bool) ([]*PersonaDTO, error) {
	personas, err := s.personaRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list personas: %w", err)
	}

	result := make([]*PersonaDTO, 0, len(personas))
	for i := range personas {
		if personas[i].Archived && !includeArchived {
			continue
		}
		result = append(result, toPersonaDTO(&personas[i]))
	}
	return result, nil
}

func (s *personaService) Get(ctx context.Context, ownerID, id uint) (*PersonaDTO, error) {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}
	return toPersonaDTO(persona), nil
}

func (s *personaService) Update(ctx context.Context, ownerID, id uint, req UpdatePersonaRequest) (*PersonaDTO, error) {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		persona.Name = *req.Name
	}
	if req.Title != nil {
		persona.Title = *req.Title
	}
	if req.Instructions != nil {
		persona.Instructions = *req.Instructions
	}
	if req.UserInstructions != nil {
		persona.UserInstructions = *req.UserInstructions
	}
	if req.Model != nil {
		persona.Model = *req.Model
	}
	if req.Starred != nil {
		persona.Starred = *req.Starred
	}
	if req.Archived != nil {
		persona.Archived = *req.Archived
	}

	if err := s.personaRepo.Save(persona); err != nil {
		return nil, fmt.Errorf("failed to update persona: %w", err)
	}
	return toPersonaDTO(persona), nil
}

// Delete removes a persona together with its direct conversation history and
// uploaded files. The default lead is protected.
func (s *personaService) Delete(ctx context.Context, ownerID, id uint) error {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return err
	}

	if persona.IsDefault {
		return ErrDefaultPersona
	}

	if err := s.messageRepo.DeleteByPersona(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete persona messages: %w", err)
	}
	if err := s.fileRepo.DeleteByPersona(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete persona files: %w", err)
	}
	if err := s.personaRepo.Delete(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete persona: %w", err)
	}

	klog.V(6).Infof("persona deleted: ownerID=%d, personaID=%d", ownerID, id)
	return nil
}

func (s *personaService) CanDelete(ctx context.Context, ownerID, id uint) (*CanDeleteDTO, error) {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}

	dto := &CanDeleteDTO{
		CanDelete: !persona.IsDefault,
		IsDefault: persona.IsDefault,
	}
	if persona.IsDefault {
		dto.Reason = DefaultPersonaDeleteReason
	}
	return dto, nil
}

// Clone copies a persona, template lineage included. Clones are never the
// default and start unstarred and unarchived.
func (s *personaService) Clone(ctx context.Context, ownerID, id uint, req ClonePersonaRequest) (*PersonaDTO, error) {
	original, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}

	name := req.NewName
	if name == "" {
		name = fmt.Sprintf("%s (Copy)", original.Name)
	}

	clone := &model.Persona{
		OwnerID:          ownerID,
		Name:             name,
		Role:             original.Role,
		Title:            original.Title,
		Instructions:     original.Instructions,
		UserInstructions: original.UserInstructions,
		Model:            original.Model,
		RoleTemplateID:   original.RoleTemplateID,
		TemplateVersion:  original.TemplateVersion,
	}

	if err := s.personaRepo.Create(clone); err != nil {
		return nil, fmt.Errorf("failed to clone persona: %w", err)
	}
	return toPersonaDTO(clone), nil
}

// ResetToTemplate overwrites the persona's base instructions with the current
// template content and re-captures the template version. User customizations
// survive unless the caller opts out.
func (s *personaService) ResetToTemplate(ctx context.Context, ownerID, id uint, req ResetToTemplateRequest) (*PersonaDTO, error) {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}

	if persona.RoleTemplateID == nil {
		return nil, ErrNoTemplateLineage
	}

	template, err := s.templateRepo.Get(*persona.RoleTemplateID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateGone
		}
		return nil, fmt.Errorf("failed to get role template: %w", err)
	}

	persona.Instructions = template.Instructions
	persona.TemplateVersion = template.Version
	if template.RecommendedModel != "" {
		persona.Model = template.RecommendedModel
	}

	preserve := true
	if req.PreserveUserInstructions != nil {
		preserve = *req.PreserveUserInstructions
	}
	if !preserve {
		persona.UserInstructions = ""
	}

	if err := s.personaRepo.Save(persona); err != nil {
		return nil, fmt.Errorf("failed to reset persona: %w", err)
	}

	klog.V(6).Infof("persona reset to template: personaID=%d, templateID=%d, version=%d",
		persona.ID, template.ID, template.Version)
	return toPersonaDTO(persona), nil
}

// ComposedInstructions previews the composed instruction text without
// variable substitution or context sections.
func (s *personaService) ComposedInstructions(ctx context.Context, ownerID, id uint) (*ComposedInstructionsDTO, error) {
	persona, err := s.getPersona(ownerID, id)
	if err != nil {
		return nil, err
	}

	comp, err := s.builder.ComposeForPersona(persona)
	if err != nil {
		return nil, fmt.Errorf("failed to compose instructions: %w", err)
	}

	return &ComposedInstructionsDTO{
		PersonaID:              persona.ID,
		PersonaName:            persona.Name,
		ComposedInstructions:   comp.Text,
		Sources:                comp.Sources,
		HasTemplate:            comp.HasTemplate,
		TemplateName:           comp.TemplateName,
		TemplateVersion:        comp.CapturedVersion,
		CurrentTemplateVersion: comp.CurrentVersion,
		UpdateAvailable:        comp.UpdateAvailable,
	}, nil
}

func (s *personaService) getPersona(ownerID, id uint) (*model.Persona, error) {
	persona, err := s.personaRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPersonaNotFound
		}
		return nil, fmt.Errorf("failed to get persona: %w", err)
	}
	return persona, nil
}

func toPersonaDTO(p *model.Persona) *PersonaDTO {
	return &PersonaDTO{
		ID:               p.ID,
		Name:             p.Name,
		Role:             p.Role,
		Title:            p.DisplayTitle(),
		Instructions:     p.Instructions,
		UserInstructions: p.UserInstructions,
		Model:            p.Model,
		RoleTemplateID:   p.RoleTemplateID,
		TemplateVersion:  p.TemplateVersion,
		IsDefault:        p.IsDefault,
		IsLead:           p.IsLead,
		Starred:          p.Starred,
		Archived:         p.Archived,
		CreatedAt:        p.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:        p.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
