package llm

import "strings"

// Provider identifies the upstream model family a request is routed to.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// ClassifyModel routes a model name to its provider family. Names starting
// with "claude" belong to Anthropic; everything else, including unknown or
// empty names, goes to OpenAI. Routing never fails, a bad name surfaces as an
// upstream API error instead.
func ClassifyModel(modelName string) Provider {
	if strings.HasPrefix(strings.ToLower(modelName), "claude") {
		return ProviderAnthropic
	}
	return ProviderOpenAI
}

// DisplayName returns the human-readable provider name used in user-facing
// configuration errors.
func (p Provider) DisplayName() string {
	switch p {
	case ProviderAnthropic:
		return "Anthropic"
	default:
		return "OpenAI"
	}
}
