package handler

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/service"
	"github.com/quietdesk/backend/internal/service/orchestrator"
)

type mockPersonaService struct {
	EnsureDefaultTeamFunc func(ctx context.Context, ownerID uint) error
	DeleteFunc            func(ctx context.Context, ownerID, id uint) error
	CloneFunc             func(ctx context.Context, ownerID, id uint, req service.ClonePersonaRequest) (*service.PersonaDTO, error)
	GetFunc               func(ctx context.Context, ownerID, id uint) (*service.PersonaDTO, error)
}

func (m *mockPersonaService) EnsureDefaultTeam(ctx context.Context, ownerID uint) error {
	if m.EnsureDefaultTeamFunc != nil {
		return m.EnsureDefaultTeamFunc(ctx, ownerID)
	}
	return nil
}

func (m *mockPersonaService) Create(ctx context.Context, ownerID uint, req service.CreatePersonaRequest) (*service.PersonaDTO, error) {
	return nil, nil
}

func (m *mockPersonaService) List(ctx context.Context, ownerID uint, includeArchived bool) ([]*service.PersonaDTO, error) {
	return nil, nil
}

func (m *mockPersonaService) Get(ctx context.Context, ownerID, id uint) (*service.PersonaDTO, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockPersonaService) Update(ctx context.Context, ownerID, id uint, req service.UpdatePersonaRequest) (*service.PersonaDTO, error) {
	return nil, nil
}

func (m *mockPersonaService) Delete(ctx context.Context, ownerID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, ownerID, id)
	}
	return nil
}

func (m *mockPersonaService) CanDelete(ctx context.Context, ownerID, id uint) (*service.CanDeleteDTO, error) {
	return nil, nil
}

func (m *mockPersonaService) Clone(ctx context.Context, ownerID, id uint, req service.ClonePersonaRequest) (*service.PersonaDTO, error) {
	if m.CloneFunc != nil {
		return m.CloneFunc(ctx, ownerID, id, req)
	}
	return nil, nil
}

func (m *mockPersonaService) ResetToTemplate(ctx context.Context, ownerID, id uint, req service.ResetToTemplateRequest) (*service.PersonaDTO, error) {
	return nil, nil
}

func (m *mockPersonaService) ComposedInstructions(ctx context.Context, ownerID, id uint) (*service.ComposedInstructionsDTO, error) {
	return nil, nil
}

type mockChatService struct {
	CompleteFunc           func(ctx context.Context, ownerID uint, req service.ChatRequest) (*service.MessageDTO, error)
	StreamFunc             func(ctx context.Context, ownerID uint, req service.ChatRequest) (*schema.StreamReader[*schema.Message], error)
	SaveAssistantReplyFunc func(ctx context.Context, ownerID uint, req service.ChatRequest, content string) (*service.MessageDTO, error)
}

func (m *mockChatService) Complete(ctx context.Context, ownerID uint, req service.ChatRequest) (*service.MessageDTO, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, ownerID, req)
	}
	return nil, nil
}

func (m *mockChatService) Stream(ctx context.Context, ownerID uint, req service.ChatRequest) (*schema.StreamReader[*schema.Message], error) {
	if m.StreamFunc != nil {
		return m.StreamFunc(ctx, ownerID, req)
	}
	return nil, nil
}

func (m *mockChatService) SaveAssistantReply(ctx context.Context, ownerID uint, req service.ChatRequest, content string) (*service.MessageDTO, error) {
	if m.SaveAssistantReplyFunc != nil {
		return m.SaveAssistantReplyFunc(ctx, ownerID, req, content)
	}
	return nil, nil
}

type mockFileService struct {
	UploadFunc func(ctx context.Context, ownerID uint, req service.UploadFileRequest) (*service.FileDTO, error)
}

func (m *mockFileService) Upload(ctx context.Context, ownerID uint, req service.UploadFileRequest) (*service.FileDTO, error) {
	if m.UploadFunc != nil {
		return m.UploadFunc(ctx, ownerID, req)
	}
	return nil, nil
}

func (m *mockFileService) List(ctx context.Context, ownerID uint, scope service.MessageScope) ([]*service.FileDTO, error) {
	return nil, nil
}

func (m *mockFileService) Get(ctx context.Context, ownerID, id uint) (*service.FileDTO, error) {
	return nil, nil
}

func (m *mockFileService) Delete(ctx context.Context, ownerID, id uint) error {
	return nil
}

func (m *mockFileService) ClearScope(ctx context.Context, ownerID uint, scope service.MessageScope) error {
	return nil
}

type mockRequestService struct {
	CreateFunc  func(ctx context.Context, ownerID uint, req service.CreateRequestRequest) (*service.RequestDTO, error)
	TriggerFunc func(ctx context.Context, ownerID uint, requestUUID string) (*service.TriggerResultDTO, error)
}

func (m *mockRequestService) Create(ctx context.Context, ownerID uint, req service.CreateRequestRequest) (*service.RequestDTO, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ownerID, req)
	}
	return nil, nil
}

func (m *mockRequestService) List(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*service.RequestDTO, error) {
	return nil, nil
}

func (m *mockRequestService) Get(ctx context.Context, ownerID uint, requestUUID string) (*service.RequestDTO, error) {
	return nil, nil
}

func (m *mockRequestService) Trigger(ctx context.Context, ownerID uint, requestUUID string) (*service.TriggerResultDTO, error) {
	if m.TriggerFunc != nil {
		return m.TriggerFunc(ctx, ownerID, requestUUID)
	}
	return nil, nil
}

func (m *mockRequestService) Progress(ctx context.Context, ownerID uint, requestUUID string) (*service.RequestProgressDTO, error) {
	return nil, nil
}

func (m *mockRequestService) Messages(ctx context.Context, ownerID uint, requestUUID string, internalOnly bool) ([]*service.RequestMessageDTO, error) {
	return nil, nil
}

func (m *mockRequestService) Team(ctx context.Context, ownerID uint) ([]*service.TeamMemberDTO, error) {
	return nil, nil
}

func (m *mockRequestService) Run(ctx context.Context, requestID uint) error {
	return nil
}

func (m *mockRequestService) SetOrchestrator(orch *orchestrator.Orchestrator) {}
