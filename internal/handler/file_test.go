package handler

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
)

func fileRouter(svc service.FileService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewFileHandler(svc)
	router := gin.New()
	router.POST("/files", h.Upload)
	return router
}

func multipartUpload(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file error: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write form file error: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field error: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer error: %v", err)
	}
	return &buf, writer.FormDataContentType()
}

func TestFileUploadStoresMultipartFile(t *testing.T) {
	var got service.UploadFileRequest
	svc := &mockFileService{
		UploadFunc: func(ctx context.Context, ownerID uint, req service.UploadFileRequest) (*service.FileDTO, error) {
			got = req
			return &service.FileDTO{ID: 12, Filename: req.Filename, Size: len(req.Content)}, nil
		},
	}
	router := fileRouter(svc)

	buf, contentType := multipartUpload(t, "notes.md", "# Standup notes", map[string]string{"persona_id": "3"})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	if got.Filename != "notes.md" || string(got.Content) != "# Standup notes" {
		t.Fatalf("unexpected upload payload: %+v", got)
	}
	if got.PersonaID == nil || *got.PersonaID != 3 || got.ProjectID != nil {
		t.Fatalf("unexpected scope: %+v", got)
	}
}

func TestFileUploadRequiresFile(t *testing.T) {
	router := fileRouter(&mockFileService{})

	buf, contentType := multipartUpload(t, "", "", map[string]string{"persona_id": "3"})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "file is required") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestFileUploadMapsValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"type", service.ErrFileType},
		{"too large", service.ErrFileTooLarge},
		{"too many", service.ErrTooManyFiles},
		{"not utf8", service.ErrFileNotUTF8},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &mockFileService{
				UploadFunc: func(ctx context.Context, ownerID uint, req service.UploadFileRequest) (*service.FileDTO, error) {
					return nil, tc.err
				},
			}
			router := fileRouter(svc)

			buf, contentType := multipartUpload(t, "notes.md", "content", map[string]string{"persona_id": "3"})
			req := httptest.NewRequest(http.MethodPost, "/files", buf)
			req.Header.Set("Content-Type", contentType)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d", w.Code)
			}
			if !strings.Contains(w.Body.String(), tc.err.Error()) {
				t.Fatalf("expected %q in body: %s", tc.err.Error(), w.Body.String())
			}
		})
	}
}

func TestFileUploadRejectsBadScopeValue(t *testing.T) {
	svc := &mockFileService{
		UploadFunc: func(ctx context.Context, ownerID uint, req service.UploadFileRequest) (*service.FileDTO, error) {
			t.Fatalf("upload must not run with a malformed scope")
			return nil, nil
		},
	}
	router := fileRouter(svc)

	buf, contentType := multipartUpload(t, "notes.md", "content", map[string]string{"persona_id": "oops"})
	req := httptest.NewRequest(http.MethodPost, "/files", buf)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "invalid persona_id") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}
