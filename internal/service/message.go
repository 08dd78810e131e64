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
	ErrMessageScope   = errors.New("exactly one of persona_id or project_id must be set")
	ErrInvalidMsgRole = errors.New("message role must be user or assistant")
)

type MessageDTO struct {
	ID        uint   `json:"id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	PersonaID *uint  `json:"persona_id"`
	ProjectID *uint  `json:"project_id"`
	CreatedAt string `json:"created_at"`
}

type CreateMessageRequest struct {
	Role      string `json:"role" binding:"required"`
	Content   string `json:"content"`
	PersonaID *uint  `json:"persona_id"`
	ProjectID *uint  `json:"project_id"`
}

// MessageScope selects one conversation: a persona DM or a project channel.
type MessageScope struct {
	PersonaID *uint
	ProjectID *uint
}

func (s MessageScope) valid() bool {
	return (s.PersonaID != nil) != (s.ProjectID != nil)
}

// MessageService stores and lists conversation turns. History is append-only;
// the only mutation is clearing one conversation wholesale.
type MessageService interface {
	List(ctx context.Context, ownerID uint, scope MessageScope) ([]*MessageDTO, error)
	Create(ctx context.Context, ownerID uint, req CreateMessageRequest) (*MessageDTO, error)
	ClearScope(ctx context.Context, ownerID uint, scope MessageScope) error
}

type messageService struct {
	messageRepo repository.MessageRepository
	personaRepo repository.PersonaRepository
	projectRepo repository.ProjectRepository
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	personaRepo repository.PersonaRepository,
	projectRepo repository.ProjectRepository,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		personaRepo: personaRepo,
		projectRepo: projectRepo,
	}
}

func (s *messageService) List(ctx context.Context, ownerID uint, scope MessageScope) ([]*MessageDTO, error) {
	if err := s.checkScope(ownerID, scope); err != nil {
		return nil, err
	}

	var (
		messages []model.Message
		err      error
	)
	if scope.PersonaID != nil {
		messages, err = s.messageRepo.ListByPersona(ownerID, *scope.PersonaID)
	} else {
		messages, err = s.messageRepo.ListByProject(ownerID, *scope.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	result := make([]*MessageDTO, len(messages))
	for i := range messages {
		result[i] = toMessageDTO(&messages[i])
	}
	return result, nil
}

func (s *messageService) Create(ctx context.Context, ownerID uint, req CreateMessageRequest) (*MessageDTO, error) {
	if req.Role != "user" && req.Role != "assistant" {
		return nil, ErrInvalidMsgRole
	}
	scope := MessageScope{PersonaID: req.PersonaID, ProjectID: req.ProjectID}
	if err := s.checkScope(ownerID, scope); err != nil {
		return nil, err
	}

	message := &model.Message{
		OwnerID:   ownerID,
		PersonaID: req.PersonaID,
		ProjectID: req.ProjectID,
		Role:      req.Role,
		Content:   req.Content,
	}
	if err := s.messageRepo.Create(message); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return toMessageDTO(message), nil
}

func (s *messageService) ClearScope(ctx context.Context, ownerID uint, scope MessageScope) error {
	if err := s.checkScope(ownerID, scope); err != nil {
		return err
	}

	var err error
	if scope.PersonaID != nil {
		err = s.messageRepo.DeleteByPersona(ownerID, *scope.PersonaID)
	} else {
		err = s.messageRepo.DeleteByProject(ownerID, *scope.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}

	klog.V(6).Infof("conversation cleared: ownerID=%d, personaID=%v, projectID=%v",
		ownerID, scope.PersonaID, scope.ProjectID)
	return nil
}

// checkScope validates the xor rule and that the scope row belongs to the
// owner.
func (s *messageService) checkScope(ownerID uint, scope MessageScope) error {
	if !scope.valid() {
		return ErrMessageScope
	}
	if scope.PersonaID != nil {
		if _, err := s.personaRepo.Get(ownerID, *scope.PersonaID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrPersonaNotFound
			}
			return fmt.Errorf("failed to get persona: %w", err)
		}
		return nil
	}
	if _, err := s.projectRepo.Get(ownerID, *scope.ProjectID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to get project: %w", err)
	}
	return nil
}

func toMessageDTO(m *model.Message) *MessageDTO {
	return &MessageDTO{
		ID:        m.ID,
		Role:      m.Role,
		Content:   m.Content,
		PersonaID: m.PersonaID,
		ProjectID: m.ProjectID,
		CreatedAt: m.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
