package service

import (
	"context"
	"errors"
	"testing"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
)

func TestSuggestionApproveMaterializesMemory(t *testing.T) {
	projectID := uint(3)
	suggestion := &model.MemorySuggestion{
		ID:        8,
		OwnerID:   7,
		PersonaID: 5,
		ProjectID: &projectID,
		Content:   "client prefers short weekly updates",
		Category:  "communication",
		Status:    model.SuggestionStatusPending,
	}
	var (
		memory *model.Memory
		saved  *model.MemorySuggestion
	)
	suggestionRepo := &mockSuggestionRepo{
		GetFunc:  func(ownerID, id uint) (*model.MemorySuggestion, error) { return suggestion, nil },
		SaveFunc: func(s *model.MemorySuggestion) error { saved = s; return nil },
	}
	memoryRepo := &mockMemoryRepo{
		CreateFunc: func(mem *model.Memory) error {
			mem.ID = 21
			memory = mem
			return nil
		},
	}
	svc := NewSuggestionService(suggestionRepo, memoryRepo, &mockPersonaRepo{})

	result, err := svc.Approve(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("Approve() error = %v", err)
	}
	if memory == nil {
		t.Fatal("no memory created")
	}
	if memory.PersonaID == nil || *memory.PersonaID != 5 {
		t.Errorf("memory provenance = %v, want persona 5", memory.PersonaID)
	}
	if memory.ProjectID == nil || *memory.ProjectID != 3 {
		t.Errorf("memory project scope = %v, want 3", memory.ProjectID)
	}
	if memory.Content != suggestion.Content || memory.Category != "communication" {
		t.Errorf("memory content = %q / %q", memory.Content, memory.Category)
	}
	if saved == nil || saved.Status != model.SuggestionStatusApproved {
		t.Fatalf("suggestion not marked approved: %+v", saved)
	}
	if saved.ResolvedAt == nil {
		t.Error("ResolvedAt not set")
	}
	if result.MemoryID != 21 || result.SuggestionID != 8 || result.Status != model.SuggestionStatusApproved {
		t.Errorf("result = %+v", result)
	}
}

func TestSuggestionRejectLeavesNoMemory(t *testing.T) {
	suggestion := &model.MemorySuggestion{
		ID:        8,
		OwnerID:   7,
		PersonaID: 5,
		Content:   "irrelevant",
		Status:    model.SuggestionStatusPending,
	}
	suggestionRepo := &mockSuggestionRepo{
		GetFunc: func(ownerID, id uint) (*model.MemorySuggestion, error) { return suggestion, nil },
	}
	memoryRepo := &mockMemoryRepo{
		CreateFunc: func(mem *model.Memory) error {
			t.Fatal("rejecting a suggestion must not create a memory")
			return nil
		},
	}
	svc := NewSuggestionService(suggestionRepo, memoryRepo, &mockPersonaRepo{})

	dto, err := svc.Reject(context.Background(), 7, 8)
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}
	if dto.Status != model.SuggestionStatusRejected {
		t.Errorf("status = %q, want rejected", dto.Status)
	}
	if dto.ResolvedAt == "" {
		t.Error("resolved timestamp missing")
	}
}

func TestSuggestionResolvedIsImmutable(t *testing.T) {
	suggestionRepo := &mockSuggestionRepo{
		GetFunc: func(ownerID, id uint) (*model.MemorySuggestion, error) {
			return &model.MemorySuggestion{ID: id, Status: model.SuggestionStatusApproved}, nil
		},
	}
	svc := NewSuggestionService(suggestionRepo, &mockMemoryRepo{}, &mockPersonaRepo{})

	_, err := svc.Approve(context.Background(), 7, 8)
	var resolved *SuggestionResolvedError
	if !errors.As(err, &resolved) {
		t.Fatalf("Approve(resolved) error = %v, want SuggestionResolvedError", err)
	}
	if resolved.Status != model.SuggestionStatusApproved {
		t.Errorf("resolved status = %q", resolved.Status)
	}

	if _, err := svc.Reject(context.Background(), 7, 8); !errors.As(err, &resolved) {
		t.Errorf("Reject(resolved) error = %v, want SuggestionResolvedError", err)
	}
}

func TestSuggestionNotFound(t *testing.T) {
	suggestionRepo := &mockSuggestionRepo{
		GetFunc: func(ownerID, id uint) (*model.MemorySuggestion, error) { return nil, repository.ErrNotFound },
	}
	svc := NewSuggestionService(suggestionRepo, &mockMemoryRepo{}, &mockPersonaRepo{})

	if _, err := svc.Approve(context.Background(), 7, 99); !errors.Is(err, ErrSuggestionNotFound) {
		t.Errorf("Approve() error = %v, want ErrSuggestionNotFound", err)
	}
}

func TestSuggestionCreateRequiresOwnedPersona(t *testing.T) {
	personaRepo := &mockPersonaRepo{
		GetFunc: func(ownerID, id uint) (*model.Persona, error) { return nil, repository.ErrNotFound },
	}
	svc := NewSuggestionService(&mockSuggestionRepo{}, &mockMemoryRepo{}, personaRepo)

	_, err := svc.Create(context.Background(), 7, CreateSuggestionRequest{PersonaID: 9, Content: "x"})
	if !errors.Is(err, ErrPersonaNotFound) {
		t.Errorf("Create() error = %v, want ErrPersonaNotFound", err)
	}
}

func TestSuggestionListResolvesNames(t *testing.T) {
	suggestionRepo := &mockSuggestionRepo{
		ListFunc: func(ownerID uint, status string) ([]model.MemorySuggestion, error) {
			if status != model.SuggestionStatusPending {
				t.Errorf("status filter = %q, want pending", status)
			}
			return []model.MemorySuggestion{
				{ID: 1, PersonaID: 5, Content: "a", Status: model.SuggestionStatusPending},
			}, nil
		},
	}
	personaRepo := &mockPersonaRepo{
		ListByOwnerFunc: func(ownerID uint) ([]model.Persona, error) {
			return []model.Persona{{ID: 5, Name: "Casey"}}, nil
		},
	}
	svc := NewSuggestionService(suggestionRepo, &mockMemoryRepo{}, personaRepo)

	suggestions, err := svc.List(context.Background(), 7, model.SuggestionStatusPending)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(suggestions) != 1 || suggestions[0].PersonaName != "Casey" {
		t.Fatalf("suggestions = %+v", suggestions)
	}
}
