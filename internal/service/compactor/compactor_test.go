package compactor

import (
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func turn(role schema.RoleType, content string) *schema.Message {
	return &schema.Message{Role: role, Content: content}
}

// makeHistory alternates user/assistant turns, each with content of the
// given byte length.
func makeHistory(count, contentLen int) []*schema.Message {
	turns := make([]*schema.Message, 0, count)
	for i := 0; i < count; i++ {
		role := schema.User
		if i%2 == 1 {
			role = schema.Assistant
		}
		turns = append(turns, turn(role, strings.Repeat("x", contentLen)))
	}
	return turns
}

func sameSlice(a, b []*schema.Message) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}

func TestCompactIdentityUnderBudget(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	turns := makeHistory(20, 100)

	got := c.Compact(turns, DefaultBudgetTokens)
	if !sameSlice(got, turns) {
		t.Fatalf("under budget, Compact must return the input slice unchanged")
	}
}

func TestCompactRecencyFloor(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	// Eight turns of 8000 bytes each estimate to 16000 tokens, far over the
	// default budget, but there is no "older" region to compact.
	turns := makeHistory(8, 8000)

	got := c.Compact(turns, DefaultBudgetTokens)
	if !sameSlice(got, turns) {
		t.Fatalf("at or below the recency window, Compact must return the input unchanged")
	}
}

func TestCompactKeepsRecentVerbatim(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	turns := makeHistory(12, 4000)

	got := c.Compact(turns, DefaultBudgetTokens)
	if len(got) != 9 {
		t.Fatalf("want synopsis plus 8 recent turns, got %d turns", len(got))
	}
	if got[0].Role != schema.User {
		t.Errorf("synopsis must be a user turn, got role %q", got[0].Role)
	}
	if !strings.HasPrefix(got[0].Content, SynopsisHeader) {
		t.Errorf("synopsis must start with the header: %q", got[0].Content)
	}
	for i, recent := range got[1:] {
		if recent != turns[4+i] {
			t.Fatalf("recent turn %d must be the original message, not a copy", i)
		}
	}
}

func TestCompactDoesNotMutateInput(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	turns := makeHistory(12, 4000)
	snapshot := make([]*schema.Message, len(turns))
	copy(snapshot, turns)

	c.Compact(turns, DefaultBudgetTokens)

	for i := range turns {
		if turns[i] != snapshot[i] {
			t.Fatalf("input slice element %d was replaced", i)
		}
		if turns[i].Content != strings.Repeat("x", 4000) {
			t.Fatalf("input turn %d content was modified", i)
		}
	}
}

func TestCompactArtifactPreservation(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	marker := `[SHEETS_CREATE: {"title": "Budget Tracker", "sheets": ["Q1", "Q2"]}]`
	url := "https://docs.google.com/spreadsheets/d/1AbCdEfGh"

	turns := []*schema.Message{
		turn(schema.Assistant, "Here you go.\n"+marker),
		turn(schema.User, "Link it again: "+url),
		turn(schema.Assistant, "Sure, it lives at "+url),
	}
	turns = append(turns, makeHistory(10, 4000)...)

	got := c.Compact(turns, DefaultBudgetTokens)
	if sameSlice(got, turns) {
		t.Fatalf("history of this size must compact")
	}
	synopsis := got[0].Content
	if !strings.Contains(synopsis, marker) {
		t.Errorf("synopsis must carry the exact sheets marker:\n%s", synopsis)
	}
	if !strings.Contains(synopsis, preserveHeader) {
		t.Errorf("artifacts must appear under the preserve section:\n%s", synopsis)
	}
	if n := strings.Count(synopsis, url); n != 1 {
		t.Errorf("artifact URL must be listed exactly once, got %d:\n%s", n, synopsis)
	}
}

func TestCompactIdempotentOnOwnOutput(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	turns := makeHistory(20, 600)
	budget := 2000

	first := c.Compact(turns, budget)
	if sameSlice(first, turns) {
		t.Fatalf("history of this size must compact")
	}
	second := c.Compact(first, budget)
	if !sameSlice(second, first) {
		t.Fatalf("compacted output must pass through unchanged on a second run")
	}
}

func TestCompactArtifactSurvivesRecompaction(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	url := "https://docs.google.com/spreadsheets/d/1ChainEd"

	turns := []*schema.Message{turn(schema.Assistant, "Created: "+url)}
	turns = append(turns, makeHistory(11, 2000)...)

	first := c.Compact(turns, 500)
	if !strings.Contains(first[0].Content, url) {
		t.Fatalf("first compaction must preserve the artifact")
	}

	// The conversation grows past the synopsis; the synopsis itself becomes
	// an older turn on the next compaction.
	grown := append(first, makeHistory(10, 2000)...)
	second := c.Compact(grown, 500)
	if sameSlice(second, grown) {
		t.Fatalf("grown history must compact again")
	}
	if !strings.Contains(second[0].Content, url) {
		t.Errorf("artifact must survive a second-generation compaction:\n%s", second[0].Content)
	}
}

func TestCompactSynopsisExcerptWindow(t *testing.T) {
	c := NewCompactor(DefaultConfig())
	turns := []*schema.Message{
		turn(schema.User, "evicted-alpha "+strings.Repeat("x", 4000)),
		turn(schema.Assistant, "evicted-beta "+strings.Repeat("x", 4000)),
		turn(schema.User, "kept-one "+strings.Repeat("x", 4000)),
		turn(schema.Assistant, "kept-two "+strings.Repeat("x", 4000)),
		turn(schema.User, "kept-three "+strings.Repeat("x", 4000)),
		turn(schema.Assistant, "kept-four "+strings.Repeat("x", 4000)),
	}
	turns = append(turns, makeHistory(8, 4000)...)

	synopsis := c.Compact(turns, DefaultBudgetTokens)[0].Content
	for _, want := range []string{"kept-one", "kept-two", "kept-three", "kept-four"} {
		if !strings.Contains(synopsis, want) {
			t.Errorf("excerpts must cover the last four older turns, missing %q", want)
		}
	}
	for _, evicted := range []string{"evicted-alpha", "evicted-beta"} {
		if strings.Contains(synopsis, evicted) {
			t.Errorf("older turns beyond the excerpt window must be dropped, found %q", evicted)
		}
	}
}

func TestExcerptLineCapsRunes(t *testing.T) {
	content := "first\nsecond\t" + strings.Repeat("é", 300)
	line := excerptLine(schema.Assistant, content, 160)

	if !strings.HasPrefix(line, "[assistant]: first second é") {
		t.Fatalf("excerpt must flatten whitespace: %q", line)
	}
	body := strings.TrimPrefix(line, "[assistant]: ")
	if got := len([]rune(body)); got != 160 {
		t.Fatalf("excerpt must be capped at 160 runes, got %d", got)
	}
}

func TestCollectArtifactsDedupPreservesOrder(t *testing.T) {
	marker := `[SHEETS_CREATE: {"title": "Roadmap", "sheets": ["2026"]}]`
	url := "https://docs.google.com/document/d/9XyZ"

	turns := []*schema.Message{
		turn(schema.Assistant, marker+"\nSee "+url),
		turn(schema.User, "again "+url),
	}

	got := collectArtifacts(turns, DefaultRecognizers())
	if len(got) != 2 {
		t.Fatalf("want 2 deduplicated artifacts, got %v", got)
	}
	if got[0] != marker {
		t.Errorf("marker must match through its closing bracket: %q", got[0])
	}
	if got[1] != url {
		t.Errorf("unexpected second artifact: %q", got[1])
	}
}

func TestModelBudget(t *testing.T) {
	tests := []struct {
		model string
		want  int
	}{
		{"gpt-4-turbo", 64000},
		{"gpt-4o-mini", 64000},
		{"gpt-4", 4096},
		{"gpt-3.5-turbo", 8192},
		{"o1-preview", 64000},
		{"claude-3-opus-20240229", 100000},
		{"Claude-3-Haiku", 100000},
		{"llama-3-70b", DefaultBudgetTokens},
		{"", DefaultBudgetTokens},
	}
	for _, tt := range tests {
		if got := ModelBudget(tt.model); got != tt.want {
			t.Errorf("ModelBudget(%q) = %d, want %d", tt.model, got, tt.want)
		}
	}
}

func TestNewCompactorFillsZeroConfig(t *testing.T) {
	c := NewCompactor(Config{})
	if c.config.KeepRecent != 8 || c.config.ExcerptTurns != 4 || c.config.ExcerptMaxChars != 160 {
		t.Fatalf("zero config must pick up defaults: %+v", c.config)
	}
	if len(c.config.Recognizers) == 0 {
		t.Fatalf("zero config must pick up default recognizers")
	}
}
