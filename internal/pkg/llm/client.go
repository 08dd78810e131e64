package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/config"
	"github.com/quietdesk/backend/internal/repository"
	"k8s.io/klog/v2"
)

// Credential is a resolved provider credential. APIKeyID is zero when the
// key came from instance configuration instead of the owner's settings.
type Credential struct {
	Provider Provider
	APIKey   string
	BaseURL  string
	APIKeyID uint
}

// Client turns chat requests into provider calls. Model routing is by name
// prefix, credentials come from the owner's stored keys with instance config
// as fallback, and constructed chat models are cached per credential+model.
type Client struct {
	cfg        *config.Config
	apiKeyRepo repository.APIKeyRepository

	cacheMutex sync.RWMutex
	cache      map[string]einomodel.ToolCallingChatModel
}

func NewClient(cfg *config.Config, apiKeyRepo repository.APIKeyRepository) *Client {
	return &Client{
		cfg:        cfg,
		apiKeyRepo: apiKeyRepo,
		cache:      make(map[string]einomodel.ToolCallingChatModel),
	}
}

// ResolveCredential picks the key used for a provider call: the owner's best
// stored key first, then the instance fallback from configuration. A
// CredentialNotConfiguredError means the caller must ask the owner to add a
// key in settings.
func (c *Client) ResolveCredential(ctx context.Context, ownerID uint, provider Provider) (*Credential, error) {
	if c.apiKeyRepo != nil {
		key, err := c.apiKeyRepo.GetBestByProvider(ctx, ownerID, string(provider))
		if err == nil {
			baseURL := key.BaseURL
			if baseURL == "" {
				baseURL = c.defaultBaseURL(provider)
			}
			return &Credential{
				Provider: provider,
				APIKey:   key.APIKey,
				BaseURL:  baseURL,
				APIKeyID: key.ID,
			}, nil
		}
		if err != repository.ErrAPIKeyNotFound {
			return nil, err
		}
	}

	fallback := c.fallbackConfig(provider)
	if fallback.APIKey != "" {
		return &Credential{
			Provider: provider,
			APIKey:   fallback.APIKey,
			BaseURL:  fallback.BaseURL,
		}, nil
	}

	return nil, &CredentialNotConfiguredError{Provider: provider}
}

// HasCredential reports whether a provider call could be made at all.
func (c *Client) HasCredential(ctx context.Context, ownerID uint, provider Provider) bool {
	_, err := c.ResolveCredential(ctx, ownerID, provider)
	return err == nil
}

func (c *Client) fallbackConfig(provider Provider) config.ProviderConfig {
	switch provider {
	case ProviderAnthropic:
		return c.cfg.LLM.Anthropic
	default:
		return c.cfg.LLM.OpenAI
	}
}

func (c *Client) defaultBaseURL(provider Provider) string {
	if base := c.fallbackConfig(provider).BaseURL; base != "" {
		return base
	}
	if provider == ProviderAnthropic {
		return "https://api.anthropic.com/v1"
	}
	return "https://api.openai.com/v1"
}

// resolveModel substitutes the configured default for an empty model name.
func (c *Client) resolveModel(modelName string) string {
	if modelName != "" {
		return modelName
	}
	return c.cfg.LLM.DefaultModel
}

// chatModel returns a cached chat model for the credential+model pair,
// constructing it on first use. Anthropic models go through the same
// OpenAI-compatible chat surface with the Anthropic base URL.
func (c *Client) chatModel(ctx context.Context, cred *Credential, modelName string) (einomodel.ToolCallingChatModel, error) {
	cacheKey := fmt.Sprintf("%s|%s|%d|%s", cred.Provider, cred.BaseURL, cred.APIKeyID, modelName)

	c.cacheMutex.RLock()
	if cached, ok := c.cache[cacheKey]; ok {
		c.cacheMutex.RUnlock()
		return cached, nil
	}
	c.cacheMutex.RUnlock()

	cfg := &openai.ChatModelConfig{
		APIKey: cred.APIKey,
		Model:  modelName,
	}
	if cred.BaseURL != "" {
		cfg.BaseURL = cred.BaseURL
	}
	if c.cfg.LLM.MaxTokens > 0 {
		maxTokens := c.cfg.LLM.MaxTokens
		cfg.MaxTokens = &maxTokens
	}

	chatModel, err := openai.NewChatModel(ctx, cfg)
	if err != nil {
		klog.Errorf("chat model construction failed: provider=%s, model=%s, error=%v", cred.Provider, modelName, err)
		return nil, err
	}

	c.cacheMutex.Lock()
	c.cache[cacheKey] = chatModel
	c.cacheMutex.Unlock()

	klog.V(6).Infof("chat model created: provider=%s, model=%s, baseURL=%s", cred.Provider, modelName, cred.BaseURL)
	return chatModel, nil
}

// Generate runs one synchronous completion. The model name decides the
// provider; messages carry the composed system prompt and history.
func (c *Client) Generate(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.Message, error) {
	modelName = c.resolveModel(modelName)
	provider := ClassifyModel(modelName)
	cred, err := c.ResolveCredential(ctx, ownerID, provider)
	if err != nil {
		return nil, err
	}

	chatModel, err := c.chatModel(ctx, cred, modelName)
	if err != nil {
		return nil, err
	}

	klog.V(6).Infof("generate: provider=%s, model=%s, messages=%d", provider, modelName, len(messages))
	resp, err := chatModel.Generate(ctx, messages)
	c.recordUsage(ctx, cred, err)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.Content == "" {
		return nil, ErrEmptyResponse
	}
	return resp, nil
}

// Stream runs one streaming completion. The caller owns the returned reader
// and must close it.
func (c *Client) Stream(ctx context.Context, ownerID uint, modelName string, messages []*schema.Message) (*schema.StreamReader[*schema.Message], error) {
	modelName = c.resolveModel(modelName)
	provider := ClassifyModel(modelName)
	cred, err := c.ResolveCredential(ctx, ownerID, provider)
	if err != nil {
		return nil, err
	}

	chatModel, err := c.chatModel(ctx, cred, modelName)
	if err != nil {
		return nil, err
	}

	klog.V(6).Infof("stream: provider=%s, model=%s, messages=%d", provider, modelName, len(messages))
	reader, err := chatModel.Stream(ctx, messages)
	c.recordUsage(ctx, cred, err)
	if err != nil {
		return nil, err
	}
	return reader, nil
}

// recordUsage updates call statistics on owner-stored keys. Config fallback
// keys have no row to update.
func (c *Client) recordUsage(ctx context.Context, cred *Credential, callErr error) {
	if c.apiKeyRepo == nil || cred.APIKeyID == 0 {
		return
	}
	errorCount := 0
	if callErr != nil {
		errorCount = 1
	}
	if err := c.apiKeyRepo.IncrementStats(ctx, cred.APIKeyID, 1, errorCount); err != nil {
		klog.Warningf("api key stats update failed: id=%d, error=%v", cred.APIKeyID, err)
	}
	if err := c.apiKeyRepo.UpdateLastUsedAt(ctx, cred.APIKeyID); err != nil {
		klog.Warningf("api key last-used update failed: id=%d, error=%v", cred.APIKeyID, err)
	}
}
