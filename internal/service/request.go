package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/google/uuid"
	"github.com/quietdesk/backend/internal/domain"
	"github.com/quietdesk/backend/internal/eventbus"
	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/pkg/llm"
	"github.com/quietdesk/backend/internal/repository"
	"github.com/quietdesk/backend/internal/service/orchestrator"
	"github.com/quietdesk/backend/internal/service/statemachine"
	"github.com/quietdesk/backend/internal/utils"
	"k8s.io/klog/v2"
)

var (
	ErrRequestNotFound = errors.New("request not found")

	// ErrInvalidRequestType rejects creation with an unknown type. The handler
	// enumerates the valid types in its response.
	ErrInvalidRequestType = errors.New("invalid request type")

	// ErrNoAPIKeys blocks triggering when the owner has no usable key for any
	// provider. Handlers map it to 402.
	ErrNoAPIKeys = errors.New("no api key configured")

	// ErrSynthesizerMissing fails the workflow when the owner has no lead
	// persona. Specialists are optional, the synthesizer is not.
	ErrSynthesizerMissing = errors.New("no project_manager persona configured")

	// ErrSynthesizerKeyMissing fails the workflow when the lead persona has no
	// usable credential. The text is stored on the request verbatim.
	ErrSynthesizerKeyMissing = errors.New("OpenAI API key required for processing")

	ErrOrchestratorUnavailable = errors.New("request orchestrator is not running")
)

// User-facing copy returned by the request endpoints.
const (
	RequestSubmittedMessage = "Request submitted. Quincy and the team will start working on it."
	RequestTriggeredMessage = "Quincy and the team are working on your request"
	NoAPIKeyMessage         = "Please configure an API key in Settings to process requests"
)

// RequestNotPendingError rejects triggering a request that already left
// pending. Completed and failed are absorbing; processing means a worker
// already owns it.
type RequestNotPendingError struct {
	Status string
}

func (e *RequestNotPendingError) Error() string {
	return fmt.Sprintf("request is already %s", e.Status)
}

// RequestDTO is the request wire shape. ID is the numeric primary key;
// RequestID is the public UUID the API routes on.
type RequestDTO struct {
	ID           uint              `json:"id"`
	RequestID    string            `json:"request_id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	RequestType  string            `json:"request_type"`
	ReferenceURL string            `json:"reference_url,omitempty"`
	Status       string            `json:"status"`
	ErrorMsg     string            `json:"error_msg,omitempty"`
	TeamInvolved []string          `json:"team_involved"`
	ProjectID    *uint             `json:"project_id"`
	ProjectName  string            `json:"project_name,omitempty"`
	StartedAt    string            `json:"started_at,omitempty"`
	CompletedAt  string            `json:"completed_at,omitempty"`
	CreatedAt    string            `json:"created_at"`
	Deliverables []*DeliverableDTO `json:"deliverables,omitempty"`
}

type CreateRequestRequest struct {
	Title        string `json:"title" binding:"required,max=255"`
	Description  string `json:"description"`
	RequestType  string `json:"request_type" binding:"required"`
	ReferenceURL string `json:"reference_url"`
	ProjectID    *uint  `json:"project_id"`
}

// TriggerResultDTO acknowledges a trigger. Status is the user-facing phase,
// not the stored row status: the row stays pending until a worker picks the
// job up.
type TriggerResultDTO struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// ProgressStepDTO is one entry of the processing timeline, derived from the
// internal message trail.
type ProgressStepDTO struct {
	TeamMember string `json:"team_member"`
	Role       string `json:"role"`
	Timestamp  string `json:"timestamp"`
}

type RequestProgressDTO struct {
	RequestID     string            `json:"request_id"`
	Status        string            `json:"status"`
	StartedAt     string            `json:"started_at,omitempty"`
	CompletedAt   string            `json:"completed_at,omitempty"`
	TeamInvolved  []string          `json:"team_involved"`
	Progress      []ProgressStepDTO `json:"progress"`
	DeliverableID *uint             `json:"deliverable_id"`
}

type RequestMessageDTO struct {
	ID         uint   `json:"id"`
	Role       string `json:"role"`
	SenderName string `json:"sender_name"`
	TeamRole   string `json:"team_role,omitempty"`
	Content    string `json:"content"`
	IsInternal bool   `json:"is_internal"`
	CreatedAt  string `json:"created_at"`
}

// TeamMemberDTO is the roster view of a persona shown on the dashboard.
type TeamMemberDTO struct {
	ID     uint   `json:"id"`
	Role   string `json:"role"`
	Name   string `json:"name"`
	Title  string `json:"title"`
	IsLead bool   `json:"is_lead"`
}

// RequestService owns the team request lifecycle: intake, triggering, the
// consultation workflow itself, and the progress views derived from it.
// Run is called by the orchestrator's workers, everything else by handlers.
type RequestService interface {
	Create(ctx context.Context, ownerID uint, req CreateRequestRequest) (*RequestDTO, error)
	List(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*RequestDTO, error)
	Get(ctx context.Context, ownerID uint, requestUUID string) (*RequestDTO, error)
	Trigger(ctx context.Context, ownerID uint, requestUUID string) (*TriggerResultDTO, error)
	Progress(ctx context.Context, ownerID uint, requestUUID string) (*RequestProgressDTO, error)
	Messages(ctx context.Context, ownerID uint, requestUUID string, internalOnly bool) ([]*RequestMessageDTO, error)
	Team(ctx context.Context, ownerID uint) ([]*TeamMemberDTO, error)

	Run(ctx context.Context, requestID uint) error
	SetOrchestrator(orch *orchestrator.Orchestrator)
}

type requestService struct {
	requestRepo     repository.RequestRepository
	trailRepo       repository.RequestMessageRepository
	deliverableRepo repository.DeliverableRepository
	personaRepo     repository.PersonaRepository
	projectRepo     repository.ProjectRepository
	llmClient       CompletionClient
	events          *eventbus.RequestEventBus
	stateMachine    *statemachine.RequestStateMachine

	mutex sync.RWMutex
	orch  *orchestrator.Orchestrator
}

func NewRequestService(
	requestRepo repository.RequestRepository,
	trailRepo repository.RequestMessageRepository,
	deliverableRepo repository.DeliverableRepository,
	personaRepo repository.PersonaRepository,
	projectRepo repository.ProjectRepository,
	llmClient CompletionClient,
	events *eventbus.RequestEventBus,
) RequestService {
	return &requestService{
		requestRepo:     requestRepo,
		trailRepo:       trailRepo,
		deliverableRepo: deliverableRepo,
		personaRepo:     personaRepo,
		projectRepo:     projectRepo,
		llmClient:       llmClient,
		events:          events,
		stateMachine:    statemachine.NewRequestStateMachine(),
	}
}

// SetOrchestrator hands the service the worker pool used by Trigger. Wired
// after construction because the orchestrator's executor needs the service
// first.
func (s *requestService) SetOrchestrator(orch *orchestrator.Orchestrator) {
	s.mutex.Lock()
	s.orch = orch
	s.mutex.Unlock()
}

func (s *requestService) orchestrator() *orchestrator.Orchestrator {
	s.mutex.RLock()
	orch := s.orch
	s.mutex.RUnlock()
	if orch != nil {
		return orch
	}
	return orchestrator.GetGlobalOrchestrator()
}

func (s *requestService) Create(ctx context.Context, ownerID uint, req CreateRequestRequest) (*RequestDTO, error) {
	if !domain.RequestType(req.RequestType).IsValid() {
		return nil, ErrInvalidRequestType
	}

	var projectName string
	if req.ProjectID != nil {
		project, err := s.projectRepo.Get(ownerID, *req.ProjectID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrProjectNotFound
			}
			return nil, fmt.Errorf("failed to get project: %w", err)
		}
		projectName = project.Name
	}

	request := &model.Request{
		RequestID:    uuid.New().String(),
		OwnerID:      ownerID,
		ProjectID:    req.ProjectID,
		Title:        req.Title,
		Description:  req.Description,
		RequestType:  req.RequestType,
		ReferenceURL: req.ReferenceURL,
		Status:       string(statemachine.RequestStatusPending),
	}
	if err := s.requestRepo.Create(request); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	klog.Infof("request created: id=%d, uuid=%s, type=%s, ownerID=%d",
		request.ID, request.RequestID, request.RequestType, ownerID)

	dto := toRequestDTO(request)
	dto.ProjectName = projectName
	return dto, nil
}

func (s *requestService) List(ctx context.Context, ownerID uint, status string, limit, offset int) ([]*RequestDTO, error) {
	if limit <= 0 {
		limit = 20
	}
	requests, err := s.requestRepo.List(ownerID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}

	projectNames, err := s.projectNameIndex(ownerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*RequestDTO, 0, len(requests))
	for i := range requests {
		dto := toRequestDTO(&requests[i])
		if requests[i].ProjectID != nil {
			dto.ProjectName = projectNames[*requests[i].ProjectID]
		}
		dtos = append(dtos, dto)
	}
	return dtos, nil
}

func (s *requestService) Get(ctx context.Context, ownerID uint, requestUUID string) (*RequestDTO, error) {
	request, err := s.getByUUID(ownerID, requestUUID)
	if err != nil {
		return nil, err
	}

	dto := toRequestDTO(request)
	if request.ProjectID != nil {
		if project, err := s.projectRepo.Get(ownerID, *request.ProjectID); err == nil {
			dto.ProjectName = project.Name
		}
	}

	deliverables, err := s.deliverableRepo.ListByRequest(request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliverables: %w", err)
	}
	for i := range deliverables {
		dto.Deliverables = append(dto.Deliverables, toDeliverableDTO(&deliverables[i], false))
	}
	return dto, nil
}

// Trigger hands a pending request to the worker pool. The response claims
// processing immediately; the row transitions once a worker picks it up.
func (s *requestService) Trigger(ctx context.Context, ownerID uint, requestUUID string) (*TriggerResultDTO, error) {
	request, err := s.getByUUID(ownerID, requestUUID)
	if err != nil {
		return nil, err
	}

	if request.Status != string(statemachine.RequestStatusPending) {
		return nil, &RequestNotPendingError{Status: request.Status}
	}

	if !s.llmClient.HasCredential(ctx, ownerID, llm.ProviderOpenAI) &&
		!s.llmClient.HasCredential(ctx, ownerID, llm.ProviderAnthropic) {
		return nil, ErrNoAPIKeys
	}

	orch := s.orchestrator()
	if orch == nil {
		return nil, ErrOrchestratorUnavailable
	}
	if err := orch.EnqueueJob(orchestrator.NewRequestJob(request.ID)); err != nil {
		return nil, fmt.Errorf("failed to enqueue request %d: %w", request.ID, err)
	}

	s.recordTrail(request, "system", "system", "", "Request queued for processing", true)
	s.publish(ctx, eventbus.RequestEventQueued, request, 0, "")
	klog.Infof("request queued: id=%d, uuid=%s, type=%s", request.ID, request.RequestID, request.RequestType)
	klog.V(6).Infof("queue status after enqueue: %s", utils.ToJSON(orch.GetQueueStatus()))

	return &TriggerResultDTO{
		Status:    "processing",
		Message:   RequestTriggeredMessage,
		RequestID: request.RequestID,
	}, nil
}

func (s *requestService) Progress(ctx context.Context, ownerID uint, requestUUID string) (*RequestProgressDTO, error) {
	request, err := s.getByUUID(ownerID, requestUUID)
	if err != nil {
		return nil, err
	}

	trail, err := s.trailRepo.ListInternalByRequest(request.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress trail: %w", err)
	}

	steps := make([]ProgressStepDTO, 0, len(trail))
	for i := range trail {
		steps = append(steps, ProgressStepDTO{
			TeamMember: trail[i].SenderName,
			Role:       trail[i].TeamRole,
			Timestamp:  trail[i].CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	progress := &RequestProgressDTO{
		RequestID:    request.RequestID,
		Status:       request.Status,
		TeamInvolved: request.TeamRoles(),
		Progress:     steps,
	}
	if request.StartedAt != nil {
		progress.StartedAt = request.StartedAt.Format("2006-01-02T15:04:05Z")
	}
	if request.CompletedAt != nil {
		progress.CompletedAt = request.CompletedAt.Format("2006-01-02T15:04:05Z")
	}

	if request.Status == string(statemachine.RequestStatusCompleted) {
		deliverable, err := s.deliverableRepo.GetLatestByRequest(request.ID)
		switch {
		case err == nil:
			progress.DeliverableID = &deliverable.ID
		case !errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("failed to load deliverable: %w", err)
		}
	}
	return progress, nil
}

func (s *requestService) Messages(ctx context.Context, ownerID uint, requestUUID string, internalOnly bool) ([]*RequestMessageDTO, error) {
	request, err := s.getByUUID(ownerID, requestUUID)
	if err != nil {
		return nil, err
	}

	var rows []model.RequestMessage
	if internalOnly {
		rows, err = s.trailRepo.ListInternalByRequest(request.ID)
	} else {
		rows, err = s.trailRepo.ListByRequest(request.ID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list request messages: %w", err)
	}

	dtos := make([]*RequestMessageDTO, 0, len(rows))
	for i := range rows {
		m := &rows[i]
		dtos = append(dtos, &RequestMessageDTO{
			ID:         m.ID,
			Role:       m.Role,
			SenderName: m.SenderName,
			TeamRole:   m.TeamRole,
			Content:    m.Content,
			IsInternal: m.IsInternal,
			CreatedAt:  m.CreatedAt.Format("2006-01-02T15:04:05Z"),
		})
	}
	return dtos, nil
}

// Team returns the dashboard roster: lead first, then alphabetical. Archived
// personas stay off the roster but keep their history.
func (s *requestService) Team(ctx context.Context, ownerID uint) ([]*TeamMemberDTO, error) {
	personas, err := s.personaRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list team: %w", err)
	}

	roster := make([]*model.Persona, 0, len(personas))
	for i := range personas {
		if personas[i].Archived {
			continue
		}
		roster = append(roster, &personas[i])
	}
	sort.SliceStable(roster, func(i, j int) bool {
		if roster[i].IsLead != roster[j].IsLead {
			return roster[i].IsLead
		}
		return roster[i].Name < roster[j].Name
	})

	team := make([]*TeamMemberDTO, 0, len(roster))
	for _, p := range roster {
		team = append(team, &TeamMemberDTO{
			ID:     p.ID,
			Role:   p.Role,
			Name:   p.Name,
			Title:  p.DisplayTitle(),
			IsLead: p.IsLead,
		})
	}
	return team, nil
}

// -----------------------------
// Workflow
// -----------------------------

// Run executes the consultation workflow for one request. It is the
// orchestrator's executor entry point and owns all status bookkeeping: the
// guarded pending->processing transition makes re-dispatched or raced jobs a
// no-op, and any escape after that lands the request in failed.
func (s *requestService) Run(ctx context.Context, requestID uint) (err error) {
	request, err := s.requestRepo.Get(requestID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			klog.Errorf("request %d vanished before processing", requestID)
			return nil
		}
		return fmt.Errorf("failed to load request %d: %w", requestID, err)
	}

	won, err := s.transition(request, statemachine.RequestStatusPending, statemachine.RequestStatusProcessing,
		map[string]interface{}{"started_at": time.Now()})
	if err != nil {
		return err
	}
	if !won {
		klog.V(6).Infof("request %d is no longer pending, skipping run", requestID)
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("request %d workflow panic: %v", requestID, r)
			err = fmt.Errorf("workflow panic: %v", r)
			s.fail(ctx, request, err)
		}
	}()

	s.publish(ctx, eventbus.RequestEventStarted, request, 0, "")

	if err = s.process(ctx, request); err != nil {
		s.fail(ctx, request, err)
		return err
	}
	return nil
}

// process runs consultation and synthesis for a request already marked
// processing. Contributing roles are recorded before synthesis so a synthesis
// failure still shows who was consulted.
func (s *requestService) process(ctx context.Context, request *model.Request) error {
	personas, err := s.personaRepo.ListByOwner(request.OwnerID)
	if err != nil {
		return fmt.Errorf("failed to load team: %w", err)
	}
	team := make(map[string]*model.Persona, len(personas))
	for i := range personas {
		if _, ok := team[personas[i].Role]; !ok {
			team[personas[i].Role] = &personas[i]
		}
	}

	lead, ok := team[domain.LeadRole]
	if !ok {
		return ErrSynthesizerMissing
	}

	opinions := s.consultTeam(ctx, request, team)

	contributing := make([]string, 0, len(opinions))
	for _, op := range opinions {
		if !op.failed {
			contributing = append(contributing, op.role)
		}
	}
	request.SetTeamRoles(contributing)
	if err := s.requestRepo.Save(request); err != nil {
		return fmt.Errorf("failed to record contributing roles: %w", err)
	}

	content, err := s.synthesize(ctx, lead, request, opinions)
	if err != nil {
		return err
	}

	deliverable := &model.Deliverable{
		RequestID:       request.ID,
		OwnerID:         request.OwnerID,
		Title:           request.Title + " - Deliverable",
		Content:         content,
		DeliverableType: request.RequestType,
		Version:         1,
		IsDraft:         false,
	}
	if err := s.deliverableRepo.Create(deliverable); err != nil {
		return fmt.Errorf("failed to store deliverable: %w", err)
	}

	s.recordTrail(request, "assistant", lead.Name, lead.Role,
		"Synthesized the team's input into the final deliverable", true)
	s.recordTrail(request, "assistant", lead.Name, lead.Role,
		fmt.Sprintf("Your deliverable is ready! The team has completed the %s you requested.", request.RequestType), false)

	now := time.Now()
	won, err := s.transition(request, statemachine.RequestStatusProcessing, statemachine.RequestStatusCompleted,
		map[string]interface{}{"completed_at": now})
	if err != nil {
		return err
	}
	if !won {
		klog.Warningf("request %d left processing before completion could be recorded", request.ID)
		return nil
	}
	request.CompletedAt = &now

	s.publish(ctx, eventbus.RequestEventCompleted, request, deliverable.ID, "")
	klog.Infof("request completed: id=%d, uuid=%s, deliverable=%d, team=%v",
		request.ID, request.RequestID, deliverable.ID, contributing)
	return nil
}

// teamOpinion is one specialist's contribution. Failed opinions carry a
// placeholder note instead of real input and never count as contributing.
type teamOpinion struct {
	role   string
	name   string
	input  string
	failed bool
}

// consultTeam fans the consultations out concurrently and returns the
// opinions in roster order. Roles without a matching persona are skipped, as
// is the lead, who synthesizes rather than contributes.
func (s *requestService) consultTeam(ctx context.Context, request *model.Request, team map[string]*model.Persona) []teamOpinion {
	roster := domain.SpecialistRoles(domain.RequestType(request.RequestType))

	slots := make([]*teamOpinion, len(roster))
	var wg sync.WaitGroup
	for i, role := range roster {
		if role == domain.LeadRole {
			continue
		}
		member, ok := team[role]
		if !ok {
			klog.V(6).Infof("request %d: no persona for role %s, skipping", request.ID, role)
			continue
		}
		wg.Add(1)
		go func(slot int, member *model.Persona) {
			defer wg.Done()
			opinion := s.consultSpecialist(ctx, request, member)
			slots[slot] = &opinion
		}(i, member)
	}
	wg.Wait()

	opinions := make([]teamOpinion, 0, len(roster))
	for _, op := range slots {
		if op != nil {
			opinions = append(opinions, *op)
		}
	}
	return opinions
}

// consultSpecialist gathers one specialist's input. Failures never abort the
// workflow: a missing key, provider error, or panic degrades to a placeholder
// note so the remaining team can still deliver.
func (s *requestService) consultSpecialist(ctx context.Context, request *model.Request, member *model.Persona) (opinion teamOpinion) {
	opinion = teamOpinion{role: member.Role, name: member.Name}

	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("request %d: consultation with %s panicked: %v", request.ID, member.Name, r)
			opinion.input = fmt.Sprintf("[%s encountered an error: %v]", member.Name, r)
			opinion.failed = true
		}
	}()

	if !s.llmClient.HasCredential(ctx, request.OwnerID, llm.ClassifyModel(member.Model)) {
		opinion.input = fmt.Sprintf("[%s was unable to contribute - no API key configured]", member.Name)
		opinion.failed = true
		return opinion
	}

	system := member.Instructions
	if system == "" {
		system = fmt.Sprintf("You are %s, %s at QuietDesk consulting.", member.Name, member.DisplayTitle())
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: consultationPrompt(request, "")},
	}

	resp, err := s.llmClient.Generate(ctx, request.OwnerID, member.Model, messages)
	if err != nil {
		var credErr *llm.CredentialNotConfiguredError
		if errors.As(err, &credErr) {
			opinion.input = fmt.Sprintf("[%s was unable to contribute - no API key configured]", member.Name)
		} else {
			opinion.input = fmt.Sprintf("[%s encountered an error: %s]", member.Name, err.Error())
		}
		opinion.failed = true
		klog.Warningf("request %d: consultation with %s (%s) failed: %v", request.ID, member.Name, member.Role, err)
		return opinion
	}

	opinion.input = resp.Content
	s.recordTrail(request, "assistant", member.Name, member.Role, resp.Content, true)
	klog.V(6).Infof("request %d: %s (%s) contributed %d chars", request.ID, member.Name, member.Role, len(resp.Content))
	return opinion
}

// synthesize has the lead persona merge the collected opinions into the final
// deliverable. Unlike the consultations this is all or nothing: without a
// synthesizer credential the whole request fails.
func (s *requestService) synthesize(ctx context.Context, lead *model.Persona, request *model.Request, opinions []teamOpinion) (string, error) {
	if _, err := s.llmClient.ResolveCredential(ctx, request.OwnerID, llm.ClassifyModel(lead.Model)); err != nil {
		if errors.Is(err, llm.ErrCredentialNotConfigured) {
			return "", ErrSynthesizerKeyMissing
		}
		return "", fmt.Errorf("failed to resolve synthesizer credential: %w", err)
	}

	system := lead.Instructions
	if system == "" {
		system = "You are Quincy, the lead Project Manager at QuietDesk. You synthesize team input into polished client deliverables."
	}
	messages := []*schema.Message{
		{Role: schema.System, Content: system},
		{Role: schema.User, Content: synthesisPrompt(request, opinions)},
	}

	resp, err := s.llmClient.Generate(ctx, request.OwnerID, lead.Model, messages)
	if err != nil {
		var credErr *llm.CredentialNotConfiguredError
		if errors.As(err, &credErr) {
			return "", ErrSynthesizerKeyMissing
		}
		return "", fmt.Errorf("synthesis failed: %w", err)
	}
	return utils.ExtractMarkdown(resp.Content), nil
}

// fail moves the request to failed and records the cause. A failure that
// arrives after another worker already moved the row is logged and dropped.
func (s *requestService) fail(ctx context.Context, request *model.Request, cause error) {
	msg := cause.Error()
	if runes := []rune(msg); len(runes) > 1000 {
		msg = string(runes[:1000])
	}

	now := time.Now()
	won, err := s.transition(request, statemachine.RequestStatusProcessing, statemachine.RequestStatusFailed,
		map[string]interface{}{"error_msg": msg, "completed_at": now})
	if err != nil {
		klog.Errorf("failed to mark request %d as failed: %v", request.ID, err)
		return
	}
	if !won {
		klog.Warningf("request %d left processing before its failure could be recorded", request.ID)
		return
	}
	request.ErrorMsg = msg
	request.CompletedAt = &now

	s.recordTrail(request, "system", "system", "", fmt.Sprintf("Request failed: %s", msg), true)
	s.publish(ctx, eventbus.RequestEventFailed, request, 0, msg)
	klog.Errorf("request failed: id=%d, uuid=%s, error=%s", request.ID, request.RequestID, msg)
}

// transition validates the edge against the state machine, then applies it
// with a guarded update. Returns false when another worker moved the row
// first.
func (s *requestService) transition(request *model.Request, from, to statemachine.RequestStatus, extra map[string]interface{}) (bool, error) {
	if err := s.stateMachine.Transition(from, to, request.ID); err != nil {
		return false, err
	}
	rows, err := s.requestRepo.TransitionStatus(request.ID, string(from), string(to), extra)
	if err != nil {
		return false, fmt.Errorf("failed to transition request %d to %s: %w", request.ID, to, err)
	}
	if rows == 0 {
		return false, nil
	}
	request.Status = string(to)
	if startedAt, ok := extra["started_at"].(time.Time); ok {
		request.StartedAt = &startedAt
	}
	return true, nil
}

// recordTrail appends one entry to the request's processing trail. Trail
// writes are best effort; losing one must not fail the workflow.
func (s *requestService) recordTrail(request *model.Request, role, senderName, teamRole, content string, internal bool) {
	msg := &model.RequestMessage{
		RequestID:  request.ID,
		OwnerID:    request.OwnerID,
		Role:       role,
		SenderName: senderName,
		TeamRole:   teamRole,
		Content:    content,
		IsInternal: internal,
	}
	if err := s.trailRepo.Create(msg); err != nil {
		klog.Errorf("failed to record trail message for request %d: %v", request.ID, err)
	}
}

func (s *requestService) publish(ctx context.Context, eventType eventbus.RequestEventType, request *model.Request, deliverableID uint, errMsg string) {
	if s.events == nil {
		return
	}
	event := eventbus.RequestEvent{
		Type:          eventType,
		RequestID:     request.ID,
		RequestUUID:   request.RequestID,
		OwnerID:       request.OwnerID,
		RequestType:   request.RequestType,
		TeamRoles:     request.TeamRoles(),
		DeliverableID: deliverableID,
		Error:         errMsg,
	}
	if err := s.events.Publish(ctx, eventType, event); err != nil {
		klog.Errorf("failed to publish %s event for request %d: %v", eventType, request.ID, err)
	}
}

func (s *requestService) getByUUID(ownerID uint, requestUUID string) (*model.Request, error) {
	request, err := s.requestRepo.GetByRequestID(ownerID, requestUUID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}
	return request, nil
}

func (s *requestService) projectNameIndex(ownerID uint) (map[uint]string, error) {
	projects, err := s.projectRepo.ListByOwner(ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	names := make(map[uint]string, len(projects))
	for i := range projects {
		names[projects[i].ID] = projects[i].Name
	}
	return names, nil
}

// -----------------------------
// Prompts
// -----------------------------

// consultationPrompt frames the request for one specialist. Context is extra
// guidance from the lead; empty means none.
func consultationPrompt(request *model.Request, context string) string {
	var b strings.Builder
	b.WriteString("You are being consulted on a client request. Provide your expert input based on your role.\n\n")
	fmt.Fprintf(&b, "Request Title: %s\n", request.Title)
	fmt.Fprintf(&b, "Request Type: %s\n", request.RequestType)
	fmt.Fprintf(&b, "Request Description:\n%s\n", request.Description)
	if context != "" {
		fmt.Fprintf(&b, "\nAdditional Context: %s\n", context)
	}
	if request.ReferenceURL != "" {
		fmt.Fprintf(&b, "\nProduct URL for reference: %s\n", request.ReferenceURL)
	}
	b.WriteString("\nProvide your expert analysis and recommendations. Be specific, actionable, and thorough.\n")
	b.WriteString("Focus on your area of expertise and what value you can add to this deliverable.")
	return b.String()
}

// synthesisPrompt assembles the lead's synthesis instruction: the original
// request, every successful contribution, and the per-type document scaffold
// as structure guidance.
func synthesisPrompt(request *model.Request, opinions []teamOpinion) string {
	var contributions strings.Builder
	for _, op := range opinions {
		if op.failed {
			continue
		}
		fmt.Fprintf(&contributions, "\n\n### %s (%s):\n%s", op.name, model.RoleTitle(op.role), op.input)
	}

	var b strings.Builder
	b.WriteString("You are synthesizing your team's input into a polished deliverable for the client.\n\n")
	b.WriteString("## Original Request\n")
	fmt.Fprintf(&b, "Title: %s\n", request.Title)
	fmt.Fprintf(&b, "Type: %s\n", request.RequestType)
	fmt.Fprintf(&b, "Description:\n%s\n", request.Description)
	if request.ReferenceURL != "" {
		fmt.Fprintf(&b, "\nProduct URL: %s\n", request.ReferenceURL)
	}
	b.WriteString("\n## Team Contributions\n")
	b.WriteString(contributions.String())
	b.WriteString("\n\n## Your Task\n")
	b.WriteString("Create a comprehensive, well-structured deliverable that:\n")
	b.WriteString("1. Synthesizes all team input into a cohesive document\n")
	b.WriteString("2. Presents findings in a clear, professional format\n")
	b.WriteString("3. Provides actionable recommendations\n")
	b.WriteString("4. Uses markdown formatting with proper headers and sections\n\n")
	fmt.Fprintf(&b, "Use this structure as a guide for the document:\n\n%s\n\n",
		domain.DeliverableTemplate(domain.RequestType(request.RequestType)))
	b.WriteString("The deliverable should be ready to present to the client as a polished consulting output.\n")
	b.WriteString("Structure it logically with an executive summary, main content, and clear recommendations.\n\n")
	b.WriteString("Write the complete deliverable in markdown format:")
	return b.String()
}

func toRequestDTO(r *model.Request) *RequestDTO {
	dto := &RequestDTO{
		ID:           r.ID,
		RequestID:    r.RequestID,
		Title:        r.Title,
		Description:  r.Description,
		RequestType:  r.RequestType,
		ReferenceURL: r.ReferenceURL,
		Status:       r.Status,
		ErrorMsg:     r.ErrorMsg,
		TeamInvolved: r.TeamRoles(),
		ProjectID:    r.ProjectID,
		CreatedAt:    r.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if r.StartedAt != nil {
		dto.StartedAt = r.StartedAt.Format("2006-01-02T15:04:05Z")
	}
	if r.CompletedAt != nil {
		dto.CompletedAt = r.CompletedAt.Format("2006-01-02T15:04:05Z")
	}
	return dto
}
