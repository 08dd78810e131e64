package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/quietdesk/backend/internal/pkg/llm"
	"github.com/quietdesk/backend/internal/service"
	"k8s.io/klog/v2"
)

// ChatHandler serves persona conversations, both blocking completions and
// server-sent event streams.
type ChatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) *ChatHandler {
	return &ChatHandler{service: service}
}

func (h *ChatHandler) Chat(c *gin.Context) {
	var req service.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Stream {
		h.stream(c, req)
		return
	}

	dto, err := h.service.Complete(c.Request.Context(), ownerID(c), req)
	if err != nil {
		writeChatError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto)
}

func (h *ChatHandler) stream(c *gin.Context, req service.ChatRequest) {
	reader, err := h.service.Stream(c.Request.Context(), ownerID(c), req)
	if err != nil {
		writeChatError(c, err)
		return
	}
	defer reader.Close()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	var full strings.Builder
	for {
		chunk, err := reader.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			klog.Errorf("chat stream interrupted: %v", err)
			writeSSE(c, gin.H{"error": err.Error()})
			return
		}
		if chunk.Content == "" {
			continue
		}
		full.WriteString(chunk.Content)
		writeSSE(c, gin.H{"content": chunk.Content})
	}

	if _, err := h.service.SaveAssistantReply(c.Request.Context(), ownerID(c), req, full.String()); err != nil {
		klog.Errorf("failed to store streamed reply: %v", err)
		writeSSE(c, gin.H{"error": err.Error()})
		return
	}

	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}

func writeSSE(c *gin.Context, payload gin.H) {
	data, err := json.Marshal(payload)
	if err != nil {
		klog.Errorf("failed to encode SSE payload: %v", err)
		return
	}
	fmt.Fprintf(c.Writer, "data: %s\n\n", data)
	c.Writer.Flush()
}

func writeChatError(c *gin.Context, err error) {
	var credErr *llm.CredentialNotConfiguredError
	switch {
	case errors.As(err, &credErr):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": credErr.UserMessage()})
	case errors.Is(err, service.ErrPersonaNotFound), errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
