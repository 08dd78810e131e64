package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/service"
)

// IntegrationHandler reports and toggles external tool connections.
type IntegrationHandler struct {
	service service.IntegrationService
}

func NewIntegrationHandler(service service.IntegrationService) *IntegrationHandler {
	return &IntegrationHandler{service: service}
}

func (h *IntegrationHandler) Status(c *gin.Context) {
	dto, err := h.service.Status(c.Request.Context(), ownerID(c), c.Param("provider"))
	if err != nil {
		writeIntegrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

func (h *IntegrationHandler) Connect(c *gin.Context) {
	dto, err := h.service.Connect(c.Request.Context(), ownerID(c), c.Param("provider"))
	if err != nil {
		writeIntegrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	dto, err := h.service.Disconnect(c.Request.Context(), ownerID(c), c.Param("provider"))
	if err != nil {
		writeIntegrationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

func writeIntegrationError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrUnknownIntegration) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
