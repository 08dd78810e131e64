package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
)

// DeliverableHandler serves synthesized team deliverables.
type DeliverableHandler struct {
	service service.DeliverableService
}

func NewDeliverableHandler(service service.DeliverableService) *DeliverableHandler {
	return &DeliverableHandler{service: service}
}

func (h *DeliverableHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if err != nil || limit < 1 {
		limit = 20
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	deliverables, err := h.service.List(c.Request.Context(), ownerID(c), c.Query("type"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, deliverables)
}

func (h *DeliverableHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	dto, err := h.service.Get(c.Request.Context(), ownerID(c), uint(id))
	if err != nil {
		if errors.Is(err, service.ErrDeliverableNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, dto)
}

// GetForRequest returns the newest deliverable produced for a request.
func (h *DeliverableHandler) GetForRequest(c *gin.Context) {
	dto, err := h.service.GetLatestForRequest(c.Request.Context(), ownerID(c), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRequestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Request not found"})
		case errors.Is(err, service.ErrDeliverableNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, dto)
}
