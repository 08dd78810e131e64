package promptbuilder

import (
	"fmt"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/toolcap"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

// Builder wires the composition pipeline to storage: it resolves template
// lineage, collects visible memories and files, checks integration gating,
// and produces the system prompt for one conversational turn.
type Builder struct {
	templateRepo    repository.RoleTemplateRepository
	memoryRepo      repository.MemoryRepository
	fileRepo        repository.FileRepository
	integrationRepo repository.IntegrationRepository
}

func NewBuilder(
	templateRepo repository.RoleTemplateRepository,
	memoryRepo repository.MemoryRepository,
	fileRepo repository.FileRepository,
	integrationRepo repository.IntegrationRepository,
) *Builder {
	return &Builder{
		templateRepo:    templateRepo,
		memoryRepo:      memoryRepo,
		fileRepo:        fileRepo,
		integrationRepo: integrationRepo,
	}
}

// ComposeForPersona resolves the persona's template, when linked, and layers
// the instruction sources.
func (b *Builder) ComposeForPersona(persona *model.Persona) (Composition, error) {
	var template *model.RoleTemplate
	if persona.RoleTemplateID != nil {
		t, err := b.templateRepo.Get(*persona.RoleTemplateID)
		if err != nil && err != repository.ErrNotFound {
			return Composition{}, fmt.Errorf("resolve role template: %w", err)
		}
		template = t
	}
	return ComposeInstructions(persona, template), nil
}

// BuildSystemPrompt runs compose -> substitute -> assemble for one turn.
// project is nil for direct conversations.
func (b *Builder) BuildSystemPrompt(persona *model.Persona, project *model.Project, vars Variables) (string, error) {
	comp, err := b.ComposeForPersona(persona)
	if err != nil {
		return "", err
	}

	if vars.AssistantName == "" {
		vars.AssistantName = persona.Name
	}
	if project != nil && vars.ProjectName == "" {
		vars.ProjectName = project.Name
	}

	base := Substitute(comp.Text, vars)

	projectInstructions := ""
	if project != nil && project.Instructions != "" {
		projectInstructions = Substitute(project.Instructions, vars)
	}

	memories, err := b.visibleMemories(persona, project)
	if err != nil {
		return "", err
	}

	files, err := b.contextFiles(persona, project)
	if err != nil {
		return "", err
	}

	toolSections, err := b.toolSections(persona.OwnerID)
	if err != nil {
		return "", err
	}

	prompt := AssembleContext(ContextInput{
		Base:                base,
		ProjectInstructions: projectInstructions,
		Memories:            memories,
		Files:               files,
		ProjectScope:        project != nil,
		ToolSections:        toolSections,
	})

	klog.V(6).Infof("system prompt assembled: personaID=%d, memories=%d, files=%d, tools=%d, length=%d",
		persona.ID, len(memories), len(files), len(toolSections), len(prompt))
	return prompt, nil
}

// visibleMemories returns memory contents in scope order: shared first, then
// persona-scoped, then project-scoped.
func (b *Builder) visibleMemories(persona *model.Persona, project *model.Project) ([]string, error) {
	shared, err := b.memoryRepo.ListShared(persona.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("list shared memories: %w", err)
	}
	personaScoped, err := b.memoryRepo.ListByPersona(persona.OwnerID, persona.ID)
	if err != nil {
		return nil, fmt.Errorf("list persona memories: %w", err)
	}

	var projectScoped []model.Memory
	if project != nil {
		projectScoped, err = b.memoryRepo.ListByProject(persona.OwnerID, project.ID)
		if err != nil {
			return nil, fmt.Errorf("list project memories: %w", err)
		}
	}

	contents := make([]string, 0, len(shared)+len(personaScoped)+len(projectScoped))
	for _, m := range shared {
		contents = append(contents, m.Content)
	}
	for _, m := range personaScoped {
		contents = append(contents, m.Content)
	}
	for _, m := range projectScoped {
		contents = append(contents, m.Content)
	}
	return contents, nil
}

func (b *Builder) contextFiles(persona *model.Persona, project *model.Project) ([]model.UploadedFile, error) {
	if project != nil {
		files, err := b.fileRepo.ListByProject(persona.OwnerID, project.ID)
		if err != nil {
			return nil, fmt.Errorf("list project files: %w", err)
		}
		return files, nil
	}
	files, err := b.fileRepo.ListByPersona(persona.OwnerID, persona.ID)
	if err != nil {
		return nil, fmt.Errorf("list uploaded files: %w", err)
	}
	return files, nil
}

// toolSections returns capability boilerplate for every connected
// integration, in registration order.
func (b *Builder) toolSections(ownerID uint) ([]string, error) {
	var sections []string
	for _, capability := range toolcap.All() {
		connected, err := b.integrationRepo.IsConnected(ownerID, capability.Provider)
		if err != nil {
			return nil, fmt.Errorf("integration status %s: %w", capability.Provider, err)
		}
		if connected {
			sections = append(sections, capability.Section)
		}
	}
	return sections, nil
}
