package compactor

import "strings"

// DefaultBudgetTokens is the history budget used when the model's context
// window is unknown.
const DefaultBudgetTokens = 8000

// safetyFraction leaves headroom in the context window for the system
// prompt, the current turn, and the model's reply.
const safetyFraction = 0.5

// contextWindows maps model name prefixes to context window sizes. Order
// matters: the most specific prefix must come before the family prefix it
// shares, or gpt-4 would shadow its variants.
var contextWindows = []struct {
	prefix string
	window int
}{
	{"gpt-4o", 128000},
	{"gpt-4-turbo", 128000},
	{"gpt-4", 8192},
	{"gpt-3.5", 16385},
	{"o1", 128000},
	{"claude", 200000},
}

// ModelBudget returns the history token budget for a model: its known
// context window scaled by the safety fraction, or DefaultBudgetTokens for
// unrecognized models.
func ModelBudget(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	for _, cw := range contextWindows {
		if strings.HasPrefix(name, cw.prefix) {
			return int(float64(cw.window) * safetyFraction)
		}
	}
	return DefaultBudgetTokens
}
