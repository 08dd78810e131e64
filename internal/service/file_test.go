package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/quietdesk/backend/internal/model"
)

func newFileHarness(fileRepo *mockFileRepo) FileService {
	personaRepo := &mockPersonaRepo{
		GetFunc: func(ownerID, id uint) (*model.Persona, error) {
			return &model.Persona{ID: id, OwnerID: ownerID}, nil
		},
	}
	projectRepo := &mockProjectRepo{
		GetFunc: func(ownerID, id uint) (*model.Project, error) {
			return &model.Project{ID: id, OwnerID: ownerID}, nil
		},
	}
	return NewFileService(fileRepo, personaRepo, projectRepo)
}

func TestFileUploadValidation(t *testing.T) {
	personaID := uint(5)
	projectID := uint(3)
	cases := []struct {
		name string
		req  UploadFileRequest
		want error
	}{
		{
			"no scope",
			UploadFileRequest{Filename: "notes.txt", Content: []byte("hi")},
			ErrMessageScope,
		},
		{
			"both scopes",
			UploadFileRequest{Filename: "notes.txt", Content: []byte("hi"), PersonaID: &personaID, ProjectID: &projectID},
			ErrMessageScope,
		},
		{
			"disallowed extension",
			UploadFileRequest{Filename: "tool.exe", Content: []byte("hi"), PersonaID: &personaID},
			ErrFileType,
		},
		{
			"no extension",
			UploadFileRequest{Filename: "README", Content: []byte("hi"), PersonaID: &personaID},
			ErrFileType,
		},
		{
			"too large",
			UploadFileRequest{Filename: "big.log", Content: bytes.Repeat([]byte("a"), MaxFileSize+1), PersonaID: &personaID},
			ErrFileTooLarge,
		},
		{
			"not utf8",
			UploadFileRequest{Filename: "data.txt", Content: []byte{0xff, 0xfe, 0x00}, PersonaID: &personaID},
			ErrFileNotUTF8,
		},
	}
	svc := newFileHarness(&mockFileRepo{})
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Upload(context.Background(), 7, tc.req)
			if !errors.Is(err, tc.want) {
				t.Errorf("Upload() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFileUploadEnforcesScopeLimit(t *testing.T) {
	personaID := uint(5)
	fileRepo := &mockFileRepo{
		CountByPersonaFunc: func(ownerID, pid uint) (int64, error) { return MaxFilesPerScope, nil },
	}
	svc := newFileHarness(fileRepo)

	_, err := svc.Upload(context.Background(), 7, UploadFileRequest{
		Filename:  "notes.txt",
		Content:   []byte("hello"),
		PersonaID: &personaID,
	})
	if !errors.Is(err, ErrTooManyFiles) {
		t.Errorf("Upload() error = %v, want ErrTooManyFiles", err)
	}
}

func TestFileUploadStoresTextFile(t *testing.T) {
	projectID := uint(3)
	var stored *model.UploadedFile
	fileRepo := &mockFileRepo{
		CreateFunc: func(f *model.UploadedFile) error {
			f.ID = 14
			stored = f
			return nil
		},
	}
	svc := newFileHarness(fileRepo)

	dto, err := svc.Upload(context.Background(), 7, UploadFileRequest{
		Filename:  "Meeting-Notes.MD",
		Content:   []byte("# Agenda\n- pricing"),
		ProjectID: &projectID,
	})
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if stored.OwnerID != 7 || stored.ProjectID == nil || *stored.ProjectID != 3 {
		t.Errorf("stored scope = owner %d project %v", stored.OwnerID, stored.ProjectID)
	}
	if stored.Size != len("# Agenda\n- pricing") {
		t.Errorf("size = %d", stored.Size)
	}
	if dto.Filename != "Meeting-Notes.MD" {
		t.Errorf("filename = %q, case must be preserved", dto.Filename)
	}
	if dto.Content != "" {
		t.Error("listing shape must not embed content")
	}
}

func TestFileGetIncludesContent(t *testing.T) {
	fileRepo := &mockFileRepo{
		GetFunc: func(ownerID, id uint) (*model.UploadedFile, error) {
			return &model.UploadedFile{ID: id, OwnerID: ownerID, Filename: "notes.txt", Content: "body", Size: 4}, nil
		},
	}
	svc := newFileHarness(fileRepo)

	dto, err := svc.Get(context.Background(), 7, 14)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if dto.Content != "body" {
		t.Errorf("content = %q, want body", dto.Content)
	}
}

func TestFileClearScopeRoutes(t *testing.T) {
	var cleared string
	fileRepo := &mockFileRepo{
		DeleteByPersonaFunc: func(ownerID, personaID uint) error {
			cleared = "persona"
			return nil
		},
		DeleteByProjectFunc: func(ownerID, projectID uint) error {
			cleared = "project"
			return nil
		},
	}
	svc := newFileHarness(fileRepo)

	personaID := uint(5)
	if err := svc.ClearScope(context.Background(), 7, MessageScope{PersonaID: &personaID}); err != nil {
		t.Fatalf("ClearScope(persona) error = %v", err)
	}
	if cleared != "persona" {
		t.Errorf("cleared %q, want persona", cleared)
	}

	projectID := uint(3)
	if err := svc.ClearScope(context.Background(), 7, MessageScope{ProjectID: &projectID}); err != nil {
		t.Fatalf("ClearScope(project) error = %v", err)
	}
	if cleared != "project" {
		t.Errorf("cleared %q, want project", cleared)
	}
}
