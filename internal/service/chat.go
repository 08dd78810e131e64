package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/llm"
	"github.com/quietdesk/backend/internal/repository"
	"github.com/quietdesk/backend/internal/service/compactor"
	"github.com/quietdesk/backend/internal/service/promptbuilder"
	"k8s.io/klog/v2"
)

// ChatRequest is one conversational turn. ProjectID set means the message is
// sent in a project channel; otherwise it is a direct conversation with the
// persona.
type ChatRequest struct {
	PersonaID uint   `json:"persona_id" binding:"required"`
	ProjectID *uint  `json:"project_id"`
	Message   string `json:"message" binding:"required"`
	Stream    bool   `json:"stream"`
	UserName  string `json:"user_name"`
}

// ChatService runs persona conversations: system prompt assembly, history
// compaction, provider completion, and turn persistence. The user turn is
// stored once the credential check passes; the assistant turn is stored only
// on success (for streams, by the caller after full consumption).
type ChatService interface {
	Complete(ctx context.Context, ownerID uint, req ChatRequest) (*MessageDTO, error)
	Stream(ctx context.Context, ownerID uint, req ChatRequest) (*schema.StreamReader[*schema.Message], error)
	SaveAssistantReply(ctx context.Context, ownerID uint, req ChatRequest, content string) (*MessageDTO, error)
}

type chatService struct {
	personaRepo repository.PersonaRepository
	projectRepo repository.ProjectRepository
	messageRepo repository.MessageRepository
	builder     *promptbuilder.Builder
	llmClient   CompletionClient
	compactor   *compactor.Compactor
}

func NewChatService(
	personaRepo repository.PersonaRepository,
	projectRepo repository.ProjectRepository,
	messageRepo repository.MessageRepository,
	builder *promptbuilder.Builder,
	llmClient CompletionClient,
) ChatService {
	return &chatService{
		personaRepo: personaRepo,
		projectRepo: projectRepo,
		messageRepo: messageRepo,
		builder:     builder,
		llmClient:   llmClient,
		compactor:   compactor.NewCompactor(compactor.DefaultConfig()),
	}
}

func (s *chatService) Complete(ctx context.Context, ownerID uint, req ChatRequest) (*MessageDTO, error) {
	persona, messages, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	resp, err := s.llmClient.Generate(ctx, ownerID, persona.Model, messages)
	if err != nil {
		return nil, err
	}

	return s.SaveAssistantReply(ctx, ownerID, req, resp.Content)
}

func (s *chatService) Stream(ctx context.Context, ownerID uint, req ChatRequest) (*schema.StreamReader[*schema.Message], error) {
	persona, messages, err := s.prepare(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}

	return s.llmClient.Stream(ctx, ownerID, persona.Model, messages)
}

// SaveAssistantReply persists the assistant turn of a finished completion.
func (s *chatService) SaveAssistantReply(ctx context.Context, ownerID uint, req ChatRequest, content string) (*MessageDTO, error) {
	message := &model.Message{
		OwnerID: ownerID,
		Role:    "assistant",
		Content: content,
	}
	if req.ProjectID != nil {
		message.ProjectID = req.ProjectID
	} else {
		personaID := req.PersonaID
		message.PersonaID = &personaID
	}

	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("failed to store assistant message: %w", err)
	}
	return toMessageDTO(message), nil
}

// prepare runs the shared pre-completion pipeline: scope validation, system
// prompt assembly, the credential gate, user-turn persistence, and history
// compaction. Returned messages are ready for the provider call.
func (s *chatService) prepare(ctx context.Context, ownerID uint, req ChatRequest) (*model.Persona, []*schema.Message, error) {
	persona, err := s.personaRepo.Get(ownerID, req.PersonaID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, ErrPersonaNotFound
		}
		return nil, nil, fmt.Errorf("failed to get persona: %w", err)
	}

	var project *model.Project
	if req.ProjectID != nil {
		project, err = s.projectRepo.Get(ownerID, *req.ProjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, ErrProjectNotFound
			}
			return nil, nil, fmt.Errorf("failed to get project: %w", err)
		}
	}

	systemPrompt, err := s.builder.BuildSystemPrompt(persona, project, promptbuilder.Variables{
		UserName: req.UserName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build system prompt: %w", err)
	}

	// Credential check comes before any persistence so a missing key leaves
	// no trace of the attempted turn.
	provider := llm.ClassifyModel(persona.Model)
	if _, err := s.llmClient.ResolveCredential(ctx, ownerID, provider); err != nil {
		return nil, nil, err
	}

	history, err := s.history(ownerID, req)
	if err != nil {
		return nil, nil, err
	}

	userTurn := &model.Message{
		OwnerID: ownerID,
		Role:    "user",
		Content: req.Message,
	}
	if req.ProjectID != nil {
		userTurn.ProjectID = req.ProjectID
	} else {
		personaID := req.PersonaID
		userTurn.PersonaID = &personaID
	}
	if err := s.messageRepo.Create(userTurn); err != nil {
		return nil, nil, fmt.Errorf("failed to store user message: %w", err)
	}

	turns := make([]*schema.Message, 0, len(history)+1)
	for i := range history {
		turns = append(turns, &schema.Message{
			Role:    schema.RoleType(history[i].Role),
			Content: history[i].Content,
		})
	}
	turns = append(turns, &schema.Message{Role: schema.User, Content: req.Message})

	budget := compactor.ModelBudget(persona.Model)
	compacted := s.compactor.Compact(turns, budget)

	messages := make([]*schema.Message, 0, len(compacted)+1)
	messages = append(messages, &schema.Message{Role: schema.System, Content: systemPrompt})
	messages = append(messages, compacted...)

	klog.V(6).Infof("chat prepared: personaID=%d, model=%s, history=%d, sent=%d, budget=%d",
		persona.ID, persona.Model, len(turns), len(compacted), budget)
	return persona, messages, nil
}

func (s *chatService) history(ownerID uint, req ChatRequest) ([]model.Message, error) {
	var (
		history []model.Message
		err     error
	)
	if req.ProjectID != nil {
		history, err = s.messageRepo.ListByProject(ownerID, *req.ProjectID)
	} else {
		history, err = s.messageRepo.ListByPersona(ownerID, req.PersonaID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}
