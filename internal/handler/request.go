package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/domain"
	"github.com/quietdesk/backend/internal/service"
	"github.com/quietdesk/backend/internal/service/orchestrator"
)

// RequestHandler serves the team-request workflow: submission, triggering,
// progress polling, and the internal message trail.
type RequestHandler struct {
	service service.RequestService
}

func NewRequestHandler(service service.RequestService) *RequestHandler {
	return &RequestHandler{service: service}
}

func (h *RequestHandler) Create(c *gin.Context) {
	var req service.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dto, err := h.service.Create(c.Request.Context(), ownerID(c), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequestType):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request_type. Must be one of: " + joinRequestTypes()})
		case errors.Is(err, service.ErrProjectNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":      dto.RequestID,
		"title":   dto.Title,
		"status":  dto.Status,
		"message": service.RequestSubmittedMessage,
	})
}

func joinRequestTypes() string {
	names := make([]string, len(domain.AllRequestTypes))
	for i, t := range domain.AllRequestTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}

func (h *RequestHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	requests, err := h.service.List(c.Request.Context(), ownerID(c), c.Query("status"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *RequestHandler) Get(c *gin.Context) {
	dto, err := h.service.Get(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		writeRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

// Trigger enqueues a pending request for background processing.
func (h *RequestHandler) Trigger(c *gin.Context) {
	result, err := h.service.Trigger(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		var notPending *service.RequestNotPendingError
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.As(err, &notPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Request is already %s", notPending.Status)})
		case errors.Is(err, service.ErrNoAPIKeys):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": service.NoAPIKeyMessage})
		case errors.Is(err, service.ErrOrchestratorUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *RequestHandler) Progress(c *gin.Context) {
	dto, err := h.service.Progress(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		writeRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

// Messages returns the request's message trail. With ?internal=true only the
// team's working notes are returned.
func (h *RequestHandler) Messages(c *gin.Context) {
	internalOnly := c.Query("internal") == "true"

	messages, err := h.service.Messages(c.Request.Context(), ownerID(c), c.Param("id"), internalOnly)
	if err != nil {
		writeRequestError(c, err)
		return
	}

	c.JSON(http.StatusOK, messages)
}

func (h *RequestHandler) Team(c *gin.Context) {
	team, err := h.service.Team(c.Request.Context(), ownerID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, team)
}

// RequestTypes lists the accepted request types with their default rosters.
func (h *RequestHandler) RequestTypes(c *gin.Context) {
	c.JSON(http.StatusOK, domain.RequestTypes())
}

// QueueStatus reports the orchestrator's backlog and active worker count.
func (h *RequestHandler) QueueStatus(c *gin.Context) {
	orch := orchestrator.GetGlobalOrchestrator()
	if orch == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": service.ErrOrchestratorUnavailable.Error()})
		return
	}

	c.JSON(http.StatusOK, orch.GetQueueStatus())
}

func writeRequestError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrRequestNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
