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
	ErrTemplateNotFound  = errors.New("role template not found")
	ErrTemplateSlugTaken = errors.New("role template slug already exists")
)

// RoleTemplateDTO is the template wire shape. Boundary and integration
// columns are decoded from their JSON storage form.
type RoleTemplateDTO struct {
	ID                      uint     `json:"id"`
	Slug                    string   `json:"slug"`
	Name                    string   `json:"name"`
	Description             string   `json:"description"`
	Purpose                 string   `json:"purpose"`
	BoundariesDoes          []string `json:"boundaries_does"`
	BoundariesDoesNot       []string `json:"boundaries_does_not"`
	Instructions            string   `json:"instructions"`
	RecommendedIntegrations []string `json:"recommended_integrations"`
	RecommendedModel        string   `json:"recommended_model"`
	IsDefault               bool     `json:"is_default"`
	IsSystem                bool     `json:"is_system"`
	Version                 int      `json:"version"`
	CreatedAt               string   `json:"created_at"`
	UpdatedAt               string   `json:"updated_at"`
}

// UpdateTemplateRequest carries partial template edits. Changing the
// instruction content bumps the template version.
type UpdateTemplateRequest struct {
	Name              *string  `json:"name"`
	Description       *string  `json:"description"`
	Purpose           *string  `json:"purpose"`
	Instructions      *string  `json:"instructions"`
	BoundariesDoes    []string `json:"boundaries_does"`
	BoundariesDoesNot []string `json:"boundaries_does_not"`
	RecommendedModel  *string  `json:"recommended_model"`
}

// AdoptTemplateRequest creates a persona from a template, optionally
// overriding the name and adding user customizations.
type AdoptTemplateRequest struct {
	Name             string `json:"name"`
	UserInstructions string `json:"user_instructions"`
}

// CloneTemplateRequest copies a template under a new slug.
type CloneTemplateRequest struct {
	Slug string `json:"slug" binding:"required,min=1,max=100"`
	Name string `json:"name"`
}

// RoleTemplateService manages the role template library and template
// adoption.
type RoleTemplateService interface {
	List(ctx context.Context) ([]*RoleTemplateDTO, error)
	Get(ctx context.Context, id uint) (*RoleTemplateDTO, error)
	GetBySlug(ctx context.Context, slug string) (*RoleTemplateDTO, error)
	Update(ctx context.Context, id uint, req UpdateTemplateRequest) (*RoleTemplateDTO, error)
	Adopt(ctx context.Context, ownerID, templateID uint, req AdoptTemplateRequest) (*PersonaDTO, error)
	Clone(ctx context.Context, id uint, req CloneTemplateRequest) (*RoleTemplateDTO, error)
}

type roleTemplateService struct {
	templateRepo repository.RoleTemplateRepository
	personaRepo  repository.PersonaRepository
}

func NewRoleTemplateService(
	templateRepo repository.RoleTemplateRepository,
	personaRepo repository.PersonaRepository,
) RoleTemplateService {
	return &roleTemplateService{
		templateRepo: templateRepo,
		personaRepo:  personaRepo,
	}
}

func (s *roleTemplateService) List(ctx context.Context) ([]*RoleTemplateDTO, error) {
	templates, err := s.templateRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list role templates: %w", err)
	}

	result := make([]*RoleTemplateDTO, len(templates))
	for i := range templates {
		result[i] = toRoleTemplateDTO(&templates[i])
	}
	return result, nil
}

func (s *roleTemplateService) Get(ctx context.Context, id uint) (*RoleTemplateDTO, error) {
	template, err := s.getTemplate(id)
	if err != nil {
		return nil, err
	}
	return toRoleTemplateDTO(template), nil
}

func (s *roleTemplateService) GetBySlug(ctx context.Context, slug string) (*RoleTemplateDTO, error) {
	template, err := s.templateRepo.GetBySlug(slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get role template: %w", err)
	}
	return toRoleTemplateDTO(template), nil
}

// Update edits template content. An instruction change bumps Version so
// personas adopted from the template can see an update is available.
func (s *roleTemplateService) Update(ctx context.Context, id uint, req UpdateTemplateRequest) (*RoleTemplateDTO, error) {
	template, err := s.getTemplate(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.Purpose != nil {
		template.Purpose = *req.Purpose
	}
	if req.BoundariesDoes != nil {
		template.BoundariesDoes = jsonList(req.BoundariesDoes)
	}
	if req.BoundariesDoesNot != nil {
		template.BoundariesDoesNot = jsonList(req.BoundariesDoesNot)
	}
	if req.RecommendedModel != nil {
		template.RecommendedModel = *req.RecommendedModel
	}
	if req.Instructions != nil && *req.Instructions != template.Instructions {
		template.Instructions = *req.Instructions
		template.Version++
		klog.V(6).Infof("role template instructions changed: templateID=%d, version=%d", template.ID, template.Version)
	}

	if err := s.templateRepo.Save(template); err != nil {
		return nil, fmt.Errorf("failed to update role template: %w", err)
	}
	return toRoleTemplateDTO(template), nil
}

// Adopt creates a persona from a template. The persona captures the template
// version current at adoption and takes the recommended model.
func (s *roleTemplateService) Adopt(ctx context.Context, ownerID, templateID uint, req AdoptTemplateRequest) (*PersonaDTO, error) {
	template, err := s.getTemplate(templateID)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = template.Name
	}
	modelName := template.RecommendedModel
	if modelName == "" {
		modelName = "gpt-4"
	}

	persona := &model.Persona{
		OwnerID:          ownerID,
		Name:             name,
		Role:             template.Slug,
		Title:            template.Name,
		Instructions:     template.Instructions,
		UserInstructions: req.UserInstructions,
		Model:            modelName,
		RoleTemplateID:   &template.ID,
		TemplateVersion:  template.Version,
	}

	if err := s.personaRepo.Create(persona); err != nil {
		return nil, fmt.Errorf("failed to create persona from template: %w", err)
	}

	klog.V(6).Infof("template adopted: templateID=%d, slug=%s, personaID=%d, version=%d",
		template.ID, template.Slug, persona.ID, template.Version)
	return toPersonaDTO(persona), nil
}

// Clone copies a template under a new slug. Clones are owner-editable, never
// system rows, and restart at version 1.
func (s *roleTemplateService) Clone(ctx context.Context, id uint, req CloneTemplateRequest) (*RoleTemplateDTO, error) {
	if existing, err := s.templateRepo.GetBySlug(req.Slug); err == nil && existing != nil {
		return nil, ErrTemplateSlugTaken
	}

	source, err := s.getTemplate(id)
	if err != nil {
		return nil, err
	}

	name := req.Name
	if name == "" {
		name = source.Name + " (Copy)"
	}

	clone := &model.RoleTemplate{
		Slug:                    req.Slug,
		Name:                    name,
		Description:             source.Description,
		Purpose:                 source.Purpose,
		Instructions:            source.Instructions,
		BoundariesDoes:          source.BoundariesDoes,
		BoundariesDoesNot:       source.BoundariesDoesNot,
		RecommendedIntegrations: source.RecommendedIntegrations,
		RecommendedModel:        source.RecommendedModel,
		IsSystem:                false,
		Version:                 1,
	}

	if err := s.templateRepo.Create(clone); err != nil {
		return nil, fmt.Errorf("failed to clone role template: %w", err)
	}
	return toRoleTemplateDTO(clone), nil
}

func (s *roleTemplateService) getTemplate(id uint) (*model.RoleTemplate, error) {
	template, err := s.templateRepo.Get(id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get role template: %w", err)
	}
	return template, nil
}

func toRoleTemplateDTO(t *model.RoleTemplate) *RoleTemplateDTO {
	recommendedModel := t.RecommendedModel
	if recommendedModel == "" {
		recommendedModel = "gpt-4"
	}
	return &RoleTemplateDTO{
		ID:                      t.ID,
		Slug:                    t.Slug,
		Name:                    t.Name,
		Description:             t.Description,
		Purpose:                 t.Purpose,
		BoundariesDoes:          model.ParseList(t.BoundariesDoes),
		BoundariesDoesNot:       model.ParseList(t.BoundariesDoesNot),
		Instructions:            t.Instructions,
		RecommendedIntegrations: model.ParseList(t.RecommendedIntegrations),
		RecommendedModel:        recommendedModel,
		IsDefault:               t.IsDefault,
		IsSystem:                t.IsSystem,
		Version:                 t.Version,
		CreatedAt:               t.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:               t.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
