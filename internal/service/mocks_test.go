package service

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/llm"
)

// Shared func-field mocks for the service tests. Every method is nil-safe:
// unset funcs behave like an empty store.

type mockPersonaRepo struct {
	CreateFunc         func(p *model.Persona) error
	ListByOwnerFunc    func(ownerID uint) ([]model.Persona, error)
	GetFunc            func(ownerID, id uint) (*model.Persona, error)
	GetByRoleFunc      func(ownerID uint, role string) (*model.Persona, error)
	GetLeadFunc        func(ownerID uint) (*model.Persona, error)
	ListByTemplateFunc func(templateID uint) ([]model.Persona, error)
	SaveFunc           func(p *model.Persona) error
	DeleteFunc         func(ownerID, id uint) error
}

func (m *mockPersonaRepo) Create(p *model.Persona) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(p)
	}
	return nil
}

func (m *mockPersonaRepo) ListByOwner(ownerID uint) ([]model.Persona, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ownerID)
	}
	return nil, nil
}

func (m *mockPersonaRepo) Get(ownerID, id uint) (*model.Persona, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("persona mock: Get not scripted")
}

func (m *mockPersonaRepo) GetByRole(ownerID uint, role string) (*model.Persona, error) {
	if m.GetByRoleFunc != nil {
		return m.GetByRoleFunc(ownerID, role)
	}
	return nil, errors.New("persona mock: GetByRole not scripted")
}

func (m *mockPersonaRepo) GetLead(ownerID uint) (*model.Persona, error) {
	if m.GetLeadFunc != nil {
		return m.GetLeadFunc(ownerID)
	}
	return nil, errors.New("persona mock: GetLead not scripted")
}

func (m *mockPersonaRepo) ListByTemplate(templateID uint) ([]model.Persona, error) {
	if m.ListByTemplateFunc != nil {
		return m.ListByTemplateFunc(templateID)
	}
	return nil, nil
}

func (m *mockPersonaRepo) Save(p *model.Persona) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(p)
	}
	return nil
}

func (m *mockPersonaRepo) Delete(ownerID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ownerID, id)
	}
	return nil
}

type mockRoleTemplateRepo struct {
	CreateFunc    func(t *model.RoleTemplate) error
	ListFunc      func() ([]model.RoleTemplate, error)
	GetFunc       func(id uint) (*model.RoleTemplate, error)
	GetBySlugFunc func(slug string) (*model.RoleTemplate, error)
	SaveFunc      func(t *model.RoleTemplate) error
	CountFunc     func() (int64, error)
}

func (m *mockRoleTemplateRepo) Create(t *model.RoleTemplate) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(t)
	}
	return nil
}

func (m *mockRoleTemplateRepo) List() ([]model.RoleTemplate, error) {
	if m.ListFunc != nil {
		return m.ListFunc()
	}
	return nil, nil
}

func (m *mockRoleTemplateRepo) Get(id uint) (*model.RoleTemplate, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	return nil, errors.New("template mock: Get not scripted")
}

func (m *mockRoleTemplateRepo) GetBySlug(slug string) (*model.RoleTemplate, error) {
	if m.GetBySlugFunc != nil {
		return m.GetBySlugFunc(slug)
	}
	return nil, errors.New("template mock: GetBySlug not scripted")
}

func (m *mockRoleTemplateRepo) Save(t *model.RoleTemplate) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(t)
	}
	return nil
}

func (m *mockRoleTemplateRepo) Count() (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc()
	}
	return 0, nil
}

type mockProjectRepo struct {
	CreateFunc               func(p *model.Project) error
	ListByOwnerFunc          func(ownerID uint) ([]model.Project, error)
	GetFunc                  func(ownerID, id uint) (*model.Project, error)
	SaveFunc                 func(p *model.Project) error
	DeleteFunc               func(ownerID, id uint) error
	AssignPersonaFunc        func(projectID, personaID uint) error
	UnassignPersonaFunc      func(projectID, personaID uint) error
	IsAssignedFunc           func(projectID, personaID uint) (bool, error)
	ListAssignedPersonasFunc func(projectID uint) ([]model.Persona, error)
}

func (m *mockProjectRepo) Create(p *model.Project) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(p)
	}
	return nil
}

func (m *mockProjectRepo) ListByOwner(ownerID uint) ([]model.Project, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ownerID)
	}
	return nil, nil
}

func (m *mockProjectRepo) Get(ownerID, id uint) (*model.Project, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("project mock: Get not scripted")
}

func (m *mockProjectRepo) Save(p *model.Project) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(p)
	}
	return nil
}

func (m *mockProjectRepo) Delete(ownerID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ownerID, id)
	}
	return nil
}

func (m *mockProjectRepo) AssignPersona(projectID, personaID uint) error {
	if m.AssignPersonaFunc != nil {
		return m.AssignPersonaFunc(projectID, personaID)
	}
	return nil
}

func (m *mockProjectRepo) UnassignPersona(projectID, personaID uint) error {
	if m.UnassignPersonaFunc != nil {
		return m.UnassignPersonaFunc(projectID, personaID)
	}
	return nil
}

func (m *mockProjectRepo) IsAssigned(projectID, personaID uint) (bool, error) {
	if m.IsAssignedFunc != nil {
		return m.IsAssignedFunc(projectID, personaID)
	}
	return false, nil
}

func (m *mockProjectRepo) ListAssignedPersonas(projectID uint) ([]model.Persona, error) {
	if m.ListAssignedPersonasFunc != nil {
		return m.ListAssignedPersonasFunc(projectID)
	}
	return nil, nil
}

type mockMemoryRepo struct {
	CreateFunc        func(mem *model.Memory) error
	GetFunc           func(ownerID, id uint) (*model.Memory, error)
	ListByOwnerFunc   func(ownerID uint) ([]model.Memory, error)
	ListSharedFunc    func(ownerID uint) ([]model.Memory, error)
	ListByPersonaFunc func(ownerID, personaID uint) ([]model.Memory, error)
	ListByProjectFunc func(ownerID, projectID uint) ([]model.Memory, error)
	SaveFunc          func(mem *model.Memory) error
	DeleteFunc        func(ownerID, id uint) error
}

func (m *mockMemoryRepo) Create(mem *model.Memory) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(mem)
	}
	return nil
}

func (m *mockMemoryRepo) Get(ownerID, id uint) (*model.Memory, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("memory mock: Get not scripted")
}

func (m *mockMemoryRepo) ListByOwner(ownerID uint) ([]model.Memory, error) {
	if m.ListByOwnerFunc != nil {
		return m.ListByOwnerFunc(ownerID)
	}
	return nil, nil
}

func (m *mockMemoryRepo) ListShared(ownerID uint) ([]model.Memory, error) {
	if m.ListSharedFunc != nil {
		return m.ListSharedFunc(ownerID)
	}
	return nil, nil
}

func (m *mockMemoryRepo) ListByPersona(ownerID, personaID uint) ([]model.Memory, error) {
	if m.ListByPersonaFunc != nil {
		return m.ListByPersonaFunc(ownerID, personaID)
	}
	return nil, nil
}

func (m *mockMemoryRepo) ListByProject(ownerID, projectID uint) ([]model.Memory, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ownerID, projectID)
	}
	return nil, nil
}

func (m *mockMemoryRepo) Save(mem *model.Memory) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(mem)
	}
	return nil
}

func (m *mockMemoryRepo) Delete(ownerID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ownerID, id)
	}
	return nil
}

type mockSuggestionRepo struct {
	CreateFunc       func(s *model.MemorySuggestion) error
	GetFunc          func(ownerID, id uint) (*model.MemorySuggestion, error)
	ListFunc         func(ownerID uint, status string) ([]model.MemorySuggestion, error)
	CountPendingFunc func(ownerID uint) (int64, error)
	SaveFunc         func(s *model.MemorySuggestion) error
}

func (m *mockSuggestionRepo) Create(s *model.MemorySuggestion) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(s)
	}
	return nil
}

func (m *mockSuggestionRepo) Get(ownerID, id uint) (*model.MemorySuggestion, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("suggestion mock: Get not scripted")
}

func (m *mockSuggestionRepo) List(ownerID uint, status string) ([]model.MemorySuggestion, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ownerID, status)
	}
	return nil, nil
}

func (m *mockSuggestionRepo) CountPending(ownerID uint) (int64, error) {
	if m.CountPendingFunc != nil {
		return m.CountPendingFunc(ownerID)
	}
	return 0, nil
}

func (m *mockSuggestionRepo) Save(s *model.MemorySuggestion) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(s)
	}
	return nil
}

type mockMessageRepo struct {
	CreateFunc          func(msg *model.Message) error
	ListByPersonaFunc   func(ownerID, personaID uint) ([]model.Message, error)
	ListByProjectFunc   func(ownerID, projectID uint) ([]model.Message, error)
	DeleteByPersonaFunc func(ownerID, personaID uint) error
	DeleteByProjectFunc func(ownerID, projectID uint) error
}

func (m *mockMessageRepo) Create(msg *model.Message) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(msg)
	}
	return nil
}

func (m *mockMessageRepo) ListByPersona(ownerID, personaID uint) ([]model.Message, error) {
	if m.ListByPersonaFunc != nil {
		return m.ListByPersonaFunc(ownerID, personaID)
	}
	return nil, nil
}

func (m *mockMessageRepo) ListByProject(ownerID, projectID uint) ([]model.Message, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ownerID, projectID)
	}
	return nil, nil
}

func (m *mockMessageRepo) DeleteByPersona(ownerID, personaID uint) error {
	if m.DeleteByPersonaFunc != nil {
		return m.DeleteByPersonaFunc(ownerID, personaID)
	}
	return nil
}

func (m *mockMessageRepo) DeleteByProject(ownerID, projectID uint) error {
	if m.DeleteByProjectFunc != nil {
		return m.DeleteByProjectFunc(ownerID, projectID)
	}
	return nil
}

type mockFileRepo struct {
	CreateFunc          func(f *model.UploadedFile) error
	GetFunc             func(ownerID, id uint) (*model.UploadedFile, error)
	ListByPersonaFunc   func(ownerID, personaID uint) ([]model.UploadedFile, error)
	ListByProjectFunc   func(ownerID, projectID uint) ([]model.UploadedFile, error)
	CountByPersonaFunc  func(ownerID, personaID uint) (int64, error)
	CountByProjectFunc  func(ownerID, projectID uint) (int64, error)
	DeleteFunc          func(ownerID, id uint) error
	DeleteByPersonaFunc func(ownerID, personaID uint) error
	DeleteByProjectFunc func(ownerID, projectID uint) error
}

func (m *mockFileRepo) Create(f *model.UploadedFile) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(f)
	}
	return nil
}

func (m *mockFileRepo) Get(ownerID, id uint) (*model.UploadedFile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("file mock: Get not scripted")
}

func (m *mockFileRepo) ListByPersona(ownerID, personaID uint) ([]model.UploadedFile, error) {
	if m.ListByPersonaFunc != nil {
		return m.ListByPersonaFunc(ownerID, personaID)
	}
	return nil, nil
}

func (m *mockFileRepo) ListByProject(ownerID, projectID uint) ([]model.UploadedFile, error) {
	if m.ListByProjectFunc != nil {
		return m.ListByProjectFunc(ownerID, projectID)
	}
	return nil, nil
}

func (m *mockFileRepo) CountByPersona(ownerID, personaID uint) (int64, error) {
	if m.CountByPersonaFunc != nil {
		return m.CountByPersonaFunc(ownerID, personaID)
	}
	return 0, nil
}

func (m *mockFileRepo) CountByProject(ownerID, projectID uint) (int64, error) {
	if m.CountByProjectFunc != nil {
		return m.CountByProjectFunc(ownerID, projectID)
	}
	return 0, nil
}

func (m *mockFileRepo) Delete(ownerID, id uint) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ownerID, id)
	}
	return nil
}

func (m *mockFileRepo) DeleteByPersona(ownerID, personaID uint) error {
	if m.DeleteByPersonaFunc != nil {
		return m.DeleteByPersonaFunc(ownerID, personaID)
	}
	return nil
}

func (m *mockFileRepo) DeleteByProject(ownerID, projectID uint) error {
	if m.DeleteByProjectFunc != nil {
		return m.DeleteByProjectFunc(ownerID, projectID)
	}
	return nil
}

type mockRequestRepo struct {
	CreateFunc               func(r *model.Request) error
	GetFunc                  func(id uint) (*model.Request, error)
	GetByRequestIDFunc       func(ownerID uint, requestID string) (*model.Request, error)
	ListFunc                 func(ownerID uint, status string, limit, offset int) ([]model.Request, error)
	ListActiveFunc           func(ownerID uint, limit int) ([]model.Request, error)
	SaveFunc                 func(r *model.Request) error
	TransitionStatusFunc     func(id uint, from, to string, extra map[string]interface{}) (int64, error)
	CleanupStuckRequestsFunc func(timeout time.Duration) (int64, error)
	CountByOwnerFunc         func(ownerID uint) (int64, error)
	CountByStatusFunc        func(ownerID uint, status string) (int64, error)
}

func (m *mockRequestRepo) Create(r *model.Request) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(r)
	}
	return nil
}

func (m *mockRequestRepo) Get(id uint) (*model.Request, error) {
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	return nil, errors.New("request mock: Get not scripted")
}

func (m *mockRequestRepo) GetByRequestID(ownerID uint, requestID string) (*model.Request, error) {
	if m.GetByRequestIDFunc != nil {
		return m.GetByRequestIDFunc(ownerID, requestID)
	}
	return nil, errors.New("request mock: GetByRequestID not scripted")
}

func (m *mockRequestRepo) List(ownerID uint, status string, limit, offset int) ([]model.Request, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ownerID, status, limit, offset)
	}
	return nil, nil
}

func (m *mockRequestRepo) ListActive(ownerID uint, limit int) ([]model.Request, error) {
	if m.ListActiveFunc != nil {
		return m.ListActiveFunc(ownerID, limit)
	}
	return nil, nil
}

func (m *mockRequestRepo) Save(r *model.Request) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(r)
	}
	return nil
}

func (m *mockRequestRepo) TransitionStatus(id uint, from, to string, extra map[string]interface{}) (int64, error) {
	if m.TransitionStatusFunc != nil {
		return m.TransitionStatusFunc(id, from, to, extra)
	}
	return 1, nil
}

func (m *mockRequestRepo) CleanupStuckRequests(timeout time.Duration) (int64, error) {
	if m.CleanupStuckRequestsFunc != nil {
		return m.CleanupStuckRequestsFunc(timeout)
	}
	return 0, nil
}

func (m *mockRequestRepo) CountByOwner(ownerID uint) (int64, error) {
	if m.CountByOwnerFunc != nil {
		return m.CountByOwnerFunc(ownerID)
	}
	return 0, nil
}

func (m *mockRequestRepo) CountByStatus(ownerID uint, status string) (int64, error) {
	if m.CountByStatusFunc != nil {
		return m.CountByStatusFunc(ownerID, status)
	}
	return 0, nil
}

type mockRequestMessageRepo struct {
	CreateFunc                func(msg *model.RequestMessage) error
	ListByRequestFunc         func(requestID uint) ([]model.RequestMessage, error)
	ListInternalByRequestFunc func(requestID uint) ([]model.RequestMessage, error)
}

func (m *mockRequestMessageRepo) Create(msg *model.RequestMessage) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(msg)
	}
	return nil
}

func (m *mockRequestMessageRepo) ListByRequest(requestID uint) ([]model.RequestMessage, error) {
	if m.ListByRequestFunc != nil {
		return m.ListByRequestFunc(requestID)
	}
	return nil, nil
}

func (m *mockRequestMessageRepo) ListInternalByRequest(requestID uint) ([]model.RequestMessage, error) {
	if m.ListInternalByRequestFunc != nil {
		return m.ListInternalByRequestFunc(requestID)
	}
	return nil, nil
}

type mockDeliverableRepo struct {
	CreateFunc             func(d *model.Deliverable) error
	GetFunc                func(ownerID, id uint) (*model.Deliverable, error)
	GetLatestByRequestFunc func(requestID uint) (*model.Deliverable, error)
	ListByRequestFunc      func(requestID uint) ([]model.Deliverable, error)
	ListFunc               func(ownerID uint, deliverableType string, limit, offset int) ([]model.Deliverable, error)
	CountByOwnerFunc       func(ownerID uint) (int64, error)
}

func (m *mockDeliverableRepo) Create(d *model.Deliverable) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(d)
	}
	return nil
}

func (m *mockDeliverableRepo) Get(ownerID, id uint) (*model.Deliverable, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ownerID, id)
	}
	return nil, errors.New("deliverable mock: Get not scripted")
}

func (m *mockDeliverableRepo) GetLatestByRequest(requestID uint) (*model.Deliverable, error) {
	if m.GetLatestByRequestFunc != nil {
		return m.GetLatestByRequestFunc(requestID)
	}
	return nil, errors.New("deliverable mock: GetLatestByRequest not scripted")
}

func (m *mockDeliverableRepo) ListByRequest(requestID uint) ([]model.Deliverable, error) {
	if m.ListByRequestFunc != nil {
		return m.ListByRequestFunc(requestID)
	}
	return nil, nil
}

func (m *mockDeliverableRepo) List(ownerID uint, deliverableType string, limit, offset int) ([]model.Deliverable, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ownerID, deliverableType, limit, offset)
	}
	return nil, nil
}

func (m *mockDeliverableRepo) CountByOwner(ownerID uint) (int64, error) {
	if m.CountByOwnerFunc != nil {
		return m.CountByOwnerFunc(ownerID)
	}
	return 0, nil
}

type mockIntegrationRepo struct {
	GetByProviderFunc func(ownerID uint, provider string) (*model.Integration, error)
	SetStatusFunc     func(ownerID uint, provider, status string) (*model.Integration, error)
	IsConnectedFunc   func(ownerID uint, provider string) (bool, error)
}

func (m *mockIntegrationRepo) GetByProvider(ownerID uint, provider string) (*model.Integration, error) {
	if m.GetByProviderFunc != nil {
		return m.GetByProviderFunc(ownerID, provider)
	}
	return nil, errors.New("integration mock: GetByProvider not scripted")
}

func (m *mockIntegrationRepo) SetStatus(ownerID uint, provider, status string) (*model.Integration, error) {
	if m.SetStatusFunc != nil {
		return m.SetStatusFunc(ownerID, provider, status)
	}
	return nil, errors.New("integration mock: SetStatus not scripted")
}

func (m *mockIntegrationRepo) IsConnected(ownerID uint, provider string) (bool, error) {
	if m.IsConnectedFunc != nil {
		return m.IsConnectedFunc(ownerID, provider)
	}
	return false, nil
}

// fakeCompletionClient scripts provider behavior per test. Defaults: every
// provider has a credential and Generate echoes a fixed reply.
type fakeCompletionClient struct {
	GenerateFunc          func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error)
	StreamFunc            func(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error)
	ResolveCredentialFunc func(ctx context.Context, ownerID uint, provider llm.Provider) (*llm.Credential, error)
	HasCredentialFunc     func(ctx context.Context, ownerID uint, provider llm.Provider) bool
}

func (f *fakeCompletionClient) Generate(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error) {
	if f.GenerateFunc != nil {
		return f.GenerateFunc(ctx, ownerID, modelName, messages)
	}
	return &schema.Message{Role: schema.Assistant, Content: "scripted reply"}, nil
}

func (f *fakeCompletionClient) Stream(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	if f.StreamFunc != nil {
		return f.StreamFunc(ctx, ownerID, modelName, messages)
	}
	return nil, errors.New("completion fake: Stream not scripted")
}

func (f *fakeCompletionClient) ResolveCredential(ctx context.Context, ownerID uint, provider llm.Provider) (*llm.Credential, error) {
	if f.ResolveCredentialFunc != nil {
		return f.ResolveCredentialFunc(ctx, ownerID, provider)
	}
	return &llm.Credential{Provider: provider, APIKey: "test-key"}, nil
}

func (f *fakeCompletionClient) HasCredential(ctx context.Context, ownerID uint, provider llm.Provider) bool {
	if f.HasCredentialFunc != nil {
		return f.HasCredentialFunc(ctx, ownerID, provider)
	}
	return true
}
