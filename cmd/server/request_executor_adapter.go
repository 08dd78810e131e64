package main

import (
	"context"

	"github.com/quietdesk/backend/internal/service"
)

// requestExecutorAdapter adapts RequestService to the orchestrator's
// RequestExecutor interface, keeping the orchestrator free of a service
// dependency.
type requestExecutorAdapter struct {
	requestService service.RequestService
}

func (a *requestExecutorAdapter) ExecuteRequest(ctx context.Context, requestID uint) error {
	return a.requestService.Run(ctx, requestID)
}
