package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/llm"
	"github.com/quietdesk/backend/internal/service/promptbuilder"
)

func newChatHarness(messageRepo *mockMessageRepo, client *fakeCompletionClient) ChatService {
	personaRepo := &mockPersonaRepo{
		GetFunc: func(ownerID, id uint) (*model.Persona, error) {
			return &model.Persona{
				ID:           id,
				OwnerID:      ownerID,
				Name:         "Jordan",
				Role:         "product_manager",
				Model:        "gpt-4-turbo",
				Instructions: "You are Jordan, Product Manager at QuietDesk.",
			}, nil
		},
	}
	projectRepo := &mockProjectRepo{
		GetFunc: func(ownerID, id uint) (*model.Project, error) {
			return &model.Project{ID: id, OwnerID: ownerID, Name: "Atlas", Instructions: "Focus on the Q3 launch."}, nil
		},
	}
	builder := promptbuilder.NewBuilder(&mockRoleTemplateRepo{}, &mockMemoryRepo{}, &mockFileRepo{}, &mockIntegrationRepo{})
	return NewChatService(personaRepo, projectRepo, messageRepo, builder, client)
}

func TestChatCompletePersistsBothTurns(t *testing.T) {
	var created []*model.Message
	messageRepo := &mockMessageRepo{
		ListByPersonaFunc: func(ownerID, personaID uint) ([]model.Message, error) {
			return []model.Message{
				{ID: 1, Role: "user", Content: "earlier question"},
				{ID: 2, Role: "assistant", Content: "earlier answer"},
			}, nil
		},
		CreateFunc: func(msg *model.Message) error {
			msg.ID = uint(len(created) + 10)
			created = append(created, msg)
			return nil
		},
	}
	var sent []*schema.Message
	client := &fakeCompletionClient{
		GenerateFunc: func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error) {
			if modelName != "gpt-4-turbo" {
				t.Errorf("model = %q, want persona model", modelName)
			}
			sent = messages
			return &schema.Message{Role: schema.Assistant, Content: "On it."}, nil
		},
	}
	svc := newChatHarness(messageRepo, client)

	dto, err := svc.Complete(context.Background(), 7, ChatRequest{PersonaID: 5, Message: "What should we ship next?"})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if dto.Role != "assistant" || dto.Content != "On it." {
		t.Errorf("dto = %+v", dto)
	}

	if len(created) != 2 {
		t.Fatalf("persisted %d turns, want user + assistant", len(created))
	}
	if created[0].Role != "user" || created[0].Content != "What should we ship next?" {
		t.Errorf("first stored turn = %+v", created[0])
	}
	if created[0].PersonaID == nil || *created[0].PersonaID != 5 {
		t.Errorf("user turn scope = %v, want persona 5", created[0].PersonaID)
	}
	if created[1].Role != "assistant" || created[1].Content != "On it." {
		t.Errorf("second stored turn = %+v", created[1])
	}

	if len(sent) != 4 {
		t.Fatalf("provider got %d messages, want system + history + user", len(sent))
	}
	if sent[0].Role != schema.System || !strings.Contains(sent[0].Content, "You are Jordan, Product Manager at QuietDesk.") {
		t.Errorf("system message = %+v", sent[0])
	}
	if sent[1].Content != "earlier question" || sent[2].Content != "earlier answer" {
		t.Errorf("history out of order: %q, %q", sent[1].Content, sent[2].Content)
	}
	if sent[3].Role != schema.User || sent[3].Content != "What should we ship next?" {
		t.Errorf("final message = %+v", sent[3])
	}
}

func TestChatMissingCredentialLeavesNoTrace(t *testing.T) {
	messageRepo := &mockMessageRepo{
		CreateFunc: func(msg *model.Message) error {
			t.Fatal("turn persisted despite missing credential")
			return nil
		},
	}
	client := &fakeCompletionClient{
		ResolveCredentialFunc: func(ctx context.Context, ownerID uint, provider llm.Provider) (*llm.Credential, error) {
			return nil, &llm.CredentialNotConfiguredError{Provider: provider}
		},
		GenerateFunc: func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error) {
			t.Fatal("provider called despite missing credential")
			return nil, nil
		},
	}
	svc := newChatHarness(messageRepo, client)

	_, err := svc.Complete(context.Background(), 7, ChatRequest{PersonaID: 5, Message: "hi"})
	var credErr *llm.CredentialNotConfiguredError
	if !errors.As(err, &credErr) {
		t.Fatalf("Complete() error = %v, want CredentialNotConfiguredError", err)
	}
	if credErr.Provider != llm.ProviderOpenAI {
		t.Errorf("provider = %v, want openai for a gpt model", credErr.Provider)
	}
}

func TestChatProjectScopeUsesChannelHistory(t *testing.T) {
	var (
		listedProject uint
		created       []*model.Message
	)
	messageRepo := &mockMessageRepo{
		ListByProjectFunc: func(ownerID, projectID uint) ([]model.Message, error) {
			listedProject = projectID
			return nil, nil
		},
		ListByPersonaFunc: func(ownerID, personaID uint) ([]model.Message, error) {
			t.Fatal("persona history loaded for a project chat")
			return nil, nil
		},
		CreateFunc: func(msg *model.Message) error {
			created = append(created, msg)
			return nil
		},
	}
	var system string
	client := &fakeCompletionClient{
		GenerateFunc: func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error) {
			system = messages[0].Content
			return &schema.Message{Role: schema.Assistant, Content: "ok"}, nil
		},
	}
	svc := newChatHarness(messageRepo, client)

	projectID := uint(3)
	if _, err := svc.Complete(context.Background(), 7, ChatRequest{PersonaID: 5, ProjectID: &projectID, Message: "status?"}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if listedProject != 3 {
		t.Errorf("history loaded for project %d, want 3", listedProject)
	}
	if !strings.Contains(system, "Focus on the Q3 launch.") {
		t.Error("project instructions missing from system prompt")
	}
	if len(created) == 0 || created[0].ProjectID == nil || *created[0].ProjectID != 3 {
		t.Fatalf("user turn not stored in project scope: %+v", created)
	}
	if created[0].PersonaID != nil {
		t.Error("project-scoped turn must not carry a persona scope")
	}
}

func TestChatStreamDefersAssistantPersistence(t *testing.T) {
	var created []*model.Message
	messageRepo := &mockMessageRepo{
		CreateFunc: func(msg *model.Message) error {
			created = append(created, msg)
			return nil
		},
	}
	client := &fakeCompletionClient{
		StreamFunc: func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
			return schema.StreamReaderFromArray([]*schema.Message{
				{Role: schema.Assistant, Content: "chunk one "},
				{Role: schema.Assistant, Content: "chunk two"},
			}), nil
		},
	}
	svc := newChatHarness(messageRepo, client)

	req := ChatRequest{PersonaID: 5, Message: "stream it", Stream: true}
	reader, err := svc.Stream(context.Background(), 7, req)
	if err != nil {
		t.Fatalf("Stream() error = %v", err)
	}
	defer reader.Close()

	// Only the user turn is stored at stream start.
	if len(created) != 1 || created[0].Role != "user" {
		t.Fatalf("stored turns at stream start = %+v", created)
	}

	var full strings.Builder
	for {
		chunk, err := reader.Recv()
		if err != nil {
			break
		}
		full.WriteString(chunk.Content)
	}

	dto, err := svc.SaveAssistantReply(context.Background(), 7, req, full.String())
	if err != nil {
		t.Fatalf("SaveAssistantReply() error = %v", err)
	}
	if dto.Content != "chunk one chunk two" {
		t.Errorf("assistant content = %q", dto.Content)
	}
	if len(created) != 2 || created[1].Role != "assistant" {
		t.Fatalf("assistant turn not stored after consumption: %+v", created)
	}
	if created[1].PersonaID == nil || *created[1].PersonaID != 5 {
		t.Errorf("assistant turn scope = %v, want persona 5", created[1].PersonaID)
	}
}
