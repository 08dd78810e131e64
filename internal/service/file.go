package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/quietdesk/backend/internal/model"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

const (
	MaxFileSize      = 100 * 1024 // bytes
	MaxFilesPerScope = 10
)

// allowedFileExtensions is the upload allowlist. Matching is by lowercase
// filename suffix.
var allowedFileExtensions = []string{
	".txt", ".md", ".csv", ".json", ".log", ".py", ".js",
	".html", ".css", ".xml", ".yml", ".yaml",
}

var (
	ErrFileNotFound = errors.New("file not found")
	ErrFileType     = fmt.Errorf("file type not allowed. Allowed: %s", strings.Join(allowedFileExtensions, ", "))
	ErrFileTooLarge = fmt.Errorf("file too large. Maximum size: %dKB", MaxFileSize/1024)
	ErrTooManyFiles = fmt.Errorf("maximum %d files per conversation", MaxFilesPerScope)
	ErrFileNotUTF8  = errors.New("file must be valid UTF-8 text")
)

type FileDTO struct {
	ID        uint   `json:"id"`
	Filename  string `json:"filename"`
	Size      int    `json:"size"`
	PersonaID *uint  `json:"persona_id"`
	ProjectID *uint  `json:"project_id"`
	Content   string `json:"content,omitempty"`
	CreatedAt string `json:"created_at"`
}

// UploadFileRequest carries one decoded multipart upload.
type UploadFileRequest struct {
	Filename  string
	Content   []byte
	PersonaID *uint
	ProjectID *uint
}

// FileService manages small text files attached to a conversation scope and
// injected verbatim into chat context.
type FileService interface {
	Upload(ctx context.Context, ownerID uint, req UploadFileRequest) (*FileDTO, error)
	List(ctx context.Context, ownerID uint, scope MessageScope) ([]*FileDTO, error)
	Get(ctx context.Context, ownerID, id uint) (*FileDTO, error)
	Delete(ctx context.Context, ownerID, id uint) error
	ClearScope(ctx context.Context, ownerID uint, scope MessageScope) error
}

type fileService struct {
	fileRepo    repository.FileRepository
	personaRepo repository.PersonaRepository
	projectRepo repository.ProjectRepository
}

func NewFileService(
	fileRepo repository.FileRepository,
	personaRepo repository.PersonaRepository,
	projectRepo repository.ProjectRepository,
) FileService {
	return &fileService{
		fileRepo:    fileRepo,
		personaRepo: personaRepo,
		projectRepo: projectRepo,
	}
}

// Upload validates and stores one file: allowlisted extension, at most 100KB,
// valid UTF-8, and no more than 10 files in the target conversation.
func (s *fileService) Upload(ctx context.Context, ownerID uint, req UploadFileRequest) (*FileDTO, error) {
	scope := MessageScope{PersonaID: req.PersonaID, ProjectID: req.ProjectID}
	if err := s.checkScope(ownerID, scope); err != nil {
		return nil, err
	}

	if !isAllowedFilename(req.Filename) {
		return nil, ErrFileType
	}
	if len(req.Content) > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	var (
		count int64
		err   error
	)
	if req.PersonaID != nil {
		count, err = s.fileRepo.CountByPersona(ownerID, *req.PersonaID)
	} else {
		count, err = s.fileRepo.CountByProject(ownerID, *req.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to count files: %w", err)
	}
	if count >= MaxFilesPerScope {
		return nil, ErrTooManyFiles
	}

	if !utf8.Valid(req.Content) {
		return nil, ErrFileNotUTF8
	}

	file := &model.UploadedFile{
		OwnerID:   ownerID,
		PersonaID: req.PersonaID,
		ProjectID: req.ProjectID,
		Filename:  req.Filename,
		Content:   string(req.Content),
		Size:      len(req.Content),
	}
	if err := s.fileRepo.Create(file); err != nil {
		return nil, fmt.Errorf("failed to store file: %w", err)
	}

	klog.V(6).Infof("file uploaded: ownerID=%d, filename=%s, size=%d", ownerID, file.Filename, file.Size)
	return toFileDTO(file, false), nil
}

func (s *fileService) List(ctx context.Context, ownerID uint, scope MessageScope) ([]*FileDTO, error) {
	if err := s.checkScope(ownerID, scope); err != nil {
		return nil, err
	}

	var (
		files []model.UploadedFile
		err   error
	)
	if scope.PersonaID != nil {
		files, err = s.fileRepo.ListByPersona(ownerID, *scope.PersonaID)
	} else {
		files, err = s.fileRepo.ListByProject(ownerID, *scope.ProjectID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}

	result := make([]*FileDTO, len(files))
	for i := range files {
		result[i] = toFileDTO(&files[i], false)
	}
	return result, nil
}

func (s *fileService) Get(ctx context.Context, ownerID, id uint) (*FileDTO, error) {
	file, err := s.getFile(ownerID, id)
	if err != nil {
		return nil, err
	}
	return toFileDTO(file, true), nil
}

func (s *fileService) Delete(ctx context.Context, ownerID, id uint) error {
	if _, err := s.getFile(ownerID, id); err != nil {
		return err
	}
	if err := s.fileRepo.Delete(ownerID, id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *fileService) ClearScope(ctx context.Context, ownerID uint, scope MessageScope) error {
	if err := s.checkScope(ownerID, scope); err != nil {
		return err
	}

	var err error
	if scope.PersonaID != nil {
		err = s.fileRepo.DeleteByPersona(ownerID, *scope.PersonaID)
	} else {
		err = s.fileRepo.DeleteByProject(ownerID, *scope.ProjectID)
	}
	if err != nil {
		return fmt.Errorf("failed to clear files: %w", err)
	}
	return nil
}

func (s *fileService) getFile(ownerID, id uint) (*model.UploadedFile, error) {
	file, err := s.fileRepo.Get(ownerID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return file, nil
}

func (s *fileService) checkScope(ownerID uint, scope MessageScope) error {
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

func isAllowedFilename(filename string) bool {
	if filename == "" {
		return false
	}
	lower := strings.ToLower(filename)
	for _, ext := range allowedFileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func toFileDTO(f *model.UploadedFile, withContent bool) *FileDTO {
	dto := &FileDTO{
		ID:        f.ID,
		Filename:  f.Filename,
		Size:      f.Size,
		PersonaID: f.PersonaID,
		ProjectID: f.ProjectID,
		CreatedAt: f.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
	if withContent {
		dto.Content = f.Content
	}
	return dto
}
