package repository

import (
	"errors"
	"time"

	"github.com/quietdesk/backend/internal/model"
)

// ErrNotFound is returned when a row does not exist or is not visible to the
// requesting owner.
var ErrNotFound = errors.New("record not found")

type PersonaRepository interface {
	Create(p *model.Persona) error
	ListByOwner(ownerID uint) ([]model.Persona, error)
	Get(ownerID, id uint) (*model.Persona, error)
	GetByRole(ownerID uint, role string) (*model.Persona, error)
	GetLead(ownerID uint) (*model.Persona, error)
	ListByTemplate(templateID uint) ([]model.Persona, error)
	Save(p *model.Persona) error
	Delete(ownerID, id uint) error
}

type RoleTemplateRepository interface {
	Create(t *model.RoleTemplate) error
	List() ([]model.RoleTemplate, error)
	Get(id uint) (*model.RoleTemplate, error)
	GetBySlug(slug string) (*model.RoleTemplate, error)
	Save(t *model.RoleTemplate) error
	Count() (int64, error)
}

type ProjectRepository interface {
	Create(p *model.Project) error
	ListByOwner(ownerID uint) ([]model.Project, error)
	Get(ownerID, id uint) (*model.Project, error)
	Save(p *model.Project) error
	Delete(ownerID, id uint) error

	AssignPersona(projectID, personaID uint) error
	UnassignPersona(projectID, personaID uint) error
	IsAssigned(projectID, personaID uint) (bool, error)
	ListAssignedPersonas(projectID uint) ([]model.Persona, error)
}

type MemoryRepository interface {
	Create(m *model.Memory) error
	Get(ownerID, id uint) (*model.Memory, error)
	ListByOwner(ownerID uint) ([]model.Memory, error)
	ListShared(ownerID uint) ([]model.Memory, error)
	ListByPersona(ownerID, personaID uint) ([]model.Memory, error)
	ListByProject(ownerID, projectID uint) ([]model.Memory, error)
	Save(m *model.Memory) error
	Delete(ownerID, id uint) error
}

type MemorySuggestionRepository interface {
	Create(s *model.MemorySuggestion) error
	Get(ownerID, id uint) (*model.MemorySuggestion, error)
	List(ownerID uint, status string) ([]model.MemorySuggestion, error)
	CountPending(ownerID uint) (int64, error)
	Save(s *model.MemorySuggestion) error
}

type MessageRepository interface {
	Create(m *model.Message) error
	ListByPersona(ownerID, personaID uint) ([]model.Message, error)
	ListByProject(ownerID, projectID uint) ([]model.Message, error)
	DeleteByPersona(ownerID, personaID uint) error
	DeleteByProject(ownerID, projectID uint) error
}

type FileRepository interface {
	Create(f *model.UploadedFile) error
	Get(ownerID, id uint) (*model.UploadedFile, error)
	ListByPersona(ownerID, personaID uint) ([]model.UploadedFile, error)
	ListByProject(ownerID, projectID uint) ([]model.UploadedFile, error)
	CountByPersona(ownerID, personaID uint) (int64, error)
	CountByProject(ownerID, projectID uint) (int64, error)
	Delete(ownerID, id uint) error
	DeleteByPersona(ownerID, personaID uint) error
	DeleteByProject(ownerID, projectID uint) error
}

type RequestRepository interface {
	Create(r *model.Request) error
	Get(id uint) (*model.Request, error)
	GetByRequestID(ownerID uint, requestID string) (*model.Request, error)
	List(ownerID uint, status string, limit, offset int) ([]model.Request, error)
	ListActive(ownerID uint, limit int) ([]model.Request, error)
	Save(r *model.Request) error
	// TransitionStatus updates status only when the row currently carries the
	// expected from status, together with any extra column writes. Returns the
	// number of rows changed, so callers can detect a lost race.
	TransitionStatus(id uint, from, to string, extra map[string]interface{}) (int64, error)
	CleanupStuckRequests(timeout time.Duration) (int64, error)
	CountByOwner(ownerID uint) (int64, error)
	CountByStatus(ownerID uint, status string) (int64, error)
}

type RequestMessageRepository interface {
	Create(m *model.RequestMessage) error
	ListByRequest(requestID uint) ([]model.RequestMessage, error)
	ListInternalByRequest(requestID uint) ([]model.RequestMessage, error)
}

type DeliverableRepository interface {
	Create(d *model.Deliverable) error
	Get(ownerID, id uint) (*model.Deliverable, error)
	GetLatestByRequest(requestID uint) (*model.Deliverable, error)
	ListByRequest(requestID uint) ([]model.Deliverable, error)
	List(ownerID uint, deliverableType string, limit, offset int) ([]model.Deliverable, error)
	CountByOwner(ownerID uint) (int64, error)
}

type IntegrationRepository interface {
	GetByProvider(ownerID uint, provider string) (*model.Integration, error)
	SetStatus(ownerID uint, provider, status string) (*model.Integration, error)
	IsConnected(ownerID uint, provider string) (bool, error)
}
