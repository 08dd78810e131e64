// Package compactor shortens chat histories that no longer fit a model's
// token budget. The most recent turns always survive verbatim; older turns
// collapse into a single synthetic synopsis turn that keeps short excerpts
// plus any artifact strings a follow-up turn may still need.
package compactor

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/pkg/tokens"
	"k8s.io/klog/v2"
)

// SynopsisHeader is the first line of the synthetic turn that replaces
// compacted history.
const SynopsisHeader = "[Previous conversation summary]"

const preserveHeader = "Preserve these references from earlier in the conversation:"

// Config bounds the shape of a compacted history.
type Config struct {
	// KeepRecent is the number of trailing turns kept verbatim. Compaction
	// never reaches into this window, even when the history is over budget.
	KeepRecent int
	// ExcerptTurns is how many of the newest older turns appear as one-line
	// excerpts in the synopsis.
	ExcerptTurns int
	// ExcerptMaxChars caps each excerpt line, in runes.
	ExcerptMaxChars int
	// Recognizers extract artifact strings that must survive compaction.
	Recognizers []Recognizer
}

func DefaultConfig() Config {
	return Config{
		KeepRecent:      8,
		ExcerptTurns:    4,
		ExcerptMaxChars: 160,
		Recognizers:     DefaultRecognizers(),
	}
}

// Compactor applies the compaction policy to conversation histories.
type Compactor struct {
	config Config
}

func NewCompactor(config Config) *Compactor {
	def := DefaultConfig()
	if config.KeepRecent <= 0 {
		config.KeepRecent = def.KeepRecent
	}
	if config.ExcerptTurns <= 0 {
		config.ExcerptTurns = def.ExcerptTurns
	}
	if config.ExcerptMaxChars <= 0 {
		config.ExcerptMaxChars = def.ExcerptMaxChars
	}
	if len(config.Recognizers) == 0 {
		config.Recognizers = def.Recognizers
	}
	return &Compactor{config: config}
}

// Compact returns the turns to send for a history and token budget. When the
// history fits the budget, or is too short to have an "older" region, the
// input slice is returned untouched. Otherwise the turns before the recency
// window are replaced by one synthetic user turn carrying a synopsis and the
// artifacts found in them. The input slice is never modified.
func (c *Compactor) Compact(turns []*schema.Message, budget int) []*schema.Message {
	if budget <= 0 {
		budget = DefaultBudgetTokens
	}
	estimated := EstimateTurns(turns)
	if estimated <= budget {
		return turns
	}
	if len(turns) <= c.config.KeepRecent {
		return turns
	}

	split := len(turns) - c.config.KeepRecent
	older := turns[:split]
	recent := turns[split:]

	result := make([]*schema.Message, 0, len(recent)+1)
	result = append(result, &schema.Message{
		Role:    schema.User,
		Content: c.buildSynopsis(older),
	})
	result = append(result, recent...)

	klog.V(6).Infof("conversation compacted: turns=%d -> %d, estimated tokens=%d, budget=%d", len(turns), len(result), estimated, budget)
	return result
}

// EstimateTurns sums the token estimate over all turn contents.
func EstimateTurns(turns []*schema.Message) int {
	total := 0
	for _, turn := range turns {
		if turn == nil {
			continue
		}
		total += tokens.EstimateTokens(turn.Content)
	}
	return total
}

// buildSynopsis renders the replacement for the older turns: a header, the
// newest ExcerptTurns of them as capped one-line excerpts, and the artifact
// list when any were found.
func (c *Compactor) buildSynopsis(older []*schema.Message) string {
	var sb strings.Builder
	sb.WriteString(SynopsisHeader)

	start := 0
	if len(older) > c.config.ExcerptTurns {
		start = len(older) - c.config.ExcerptTurns
	}
	for _, turn := range older[start:] {
		if turn == nil {
			continue
		}
		sb.WriteString("\n")
		sb.WriteString(excerptLine(turn.Role, turn.Content, c.config.ExcerptMaxChars))
	}

	if artifacts := collectArtifacts(older, c.config.Recognizers); len(artifacts) > 0 {
		sb.WriteString("\n\n")
		sb.WriteString(preserveHeader)
		for _, artifact := range artifacts {
			sb.WriteString("\n- ")
			sb.WriteString(artifact)
		}
	}

	return sb.String()
}

// excerptLine flattens a turn to one `[role]: content` line capped at
// maxChars runes.
func excerptLine(role schema.RoleType, content string, maxChars int) string {
	line := strings.Join(strings.Fields(content), " ")
	runes := []rune(line)
	if len(runes) > maxChars {
		line = string(runes[:maxChars])
	}
	return fmt.Sprintf("[%s]: %s", role, line)
}
