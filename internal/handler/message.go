package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
)

type MessageHandler struct {
	service service.MessageService
}

func NewMessageHandler(service service.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// scopeFromQuery reads the ?persona_id= / ?project_id= conversation selector.
// Scope validity (exactly one side set) is checked by the service.
func scopeFromQuery(c *gin.Context) (service.MessageScope, bool) {
	var scope service.MessageScope
	if raw := c.Query("persona_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid persona_id"})
			return scope, false
		}
		personaID := uint(id)
		scope.PersonaID = &personaID
	}
	if raw := c.Query("project_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid project_id"})
			return scope, false
		}
		projectID := uint(id)
		scope.ProjectID = &projectID
	}
	return scope, true
}

func writeScopeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMessageScope):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPersonaNotFound), errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *MessageHandler) List(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	messages, err := h.service.List(c.Request.Context(), ownerID(c), scope)
	if err != nil {
		writeScopeError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *MessageHandler) Create(c *gin.Context) {
	var req service.CreateMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.service.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMsgRole) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		writeScopeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, message)
}

// ClearScope wipes one conversation's history.
func (h *MessageHandler) ClearScope(c *gin.Context) {
	scope, ok := scopeFromQuery(c)
	if !ok {
		return
	}

	if err := h.service.ClearScope(c.Request.Context(), ownerID(c), scope); err != nil {
		writeScopeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "conversation cleared"})
}
