package service

import (
	"context"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/pkg/llm"
)

// CompletionClient is the slice of the provider client the services depend
// on. llm.Client is the production implementation.
type CompletionClient interface {
	Generate(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error)
	Stream(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error)
	ResolveCredential(ctx context.Context, ownerID uint, provider llm.Provider) (*llm.Credential, error)
	HasCredential(ctx context.Context, ownerID uint, provider llm.Provider) bool
}

var _ CompletionClient = (*llm.Client)(nil)
