package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
)

// FileHandler serves context file uploads attached to a conversation scope.
type FileHandler struct {
	service service.FileService
}

func NewFileHandler(service service.FileService) *FileHandler {
	return &FileHandler{service: service}
}

// scopeFromForm reads the conversation scope from multipart form values,
// falling back to query parameters for clients that pass them in the URL.
func scopeFromForm(c *gin.Context) (service.MessageScope, bool) {
	var scope service.MessageScope
	for _, key := range []string{"persona_id", "project_id"} {
		raw := c.PostForm(key)
		if raw == "" {
			raw = c.Query(key)
		}
		if raw == "" {
			continue
		}
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + key})
			return scope, false
		}
		parsed := uint(id)
		if key == "persona_id" {
			scope.PersonaID = &parsed
		} else {
			scope.ProjectID = &parsed
		}
	}
	return scope, true
}

func (h *FileHandler) Upload(c *gin.Context) {
	scope, ok := scopeFromForm(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	// Read one byte past the limit so oversize uploads are rejected by the
	// service without buffering the whole payload.
	content, err := io.ReadAll(io.LimitReader(f, service.MaxFileSize+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.service.Upload(c.Request.Context(), ownerID(c), service.UploadFileRequest{
		Filename:  fileHeader.Filename,
		Content:   content,
		PersonaID: scope.PersonaID,
		ProjectID: scope.ProjectID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileType),
			errors.Is(err, service.ErrFileTooLarge),
			errors.Is(err, service.ErrTooManyFiles),
			errors.Is(err, service.ErrFileNotUTF8):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			writeScopeError(c, err)
		}
		return
	}

	c.JSON(http.StatusCreated, dto)
}

func (h *FileHandler) List(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	files, err := h.service.List(c.Request.Context(), ownerID(c), scope)
	if err != nil {
		writeScopeError(c, err)
		return
	}

	c.JSON(http.StatusOK, files)
}

func (h *FileHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	dto, err := h.service.Get(c.Request.Context(), ownerID(c), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto)
}

func (h *FileHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), ownerID(c), uint(id)); err != nil {
		if errors.Is(err, service.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// ClearScope removes every file attached to one conversation.
func (h *FileHandler) ClearScope(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	if err := h.service.ClearScope(c.Request.Context(), ownerID(c), scope); err != nil {
		writeScopeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "files cleared"})
}
