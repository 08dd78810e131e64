package compactor

import (
	"regexp"

	"github.com/cloudwego/eino/schema"
	"github.com/quietdesk/backend/internal/pkg/toolcap"
)

// Recognizer names a pattern whose matches must survive compaction. New
// artifact kinds are added here; the compaction algorithm itself never
// changes for them.
type Recognizer struct {
	Name    string
	Pattern *regexp.Regexp
}

var defaultRecognizers = []Recognizer{
	// Spreadsheet tool markers occupy a line of their own, so the greedy
	// match ends at the marker's closing bracket.
	{Name: "sheets_marker", Pattern: regexp.MustCompile(regexp.QuoteMeta(toolcap.SheetsMarkerPrefix) + `.*\]`)},
	{Name: "google_doc_url", Pattern: regexp.MustCompile(`https://docs\.google\.com/[^\s<>"')\]]+`)},
}

// DefaultRecognizers returns the built-in artifact patterns.
func DefaultRecognizers() []Recognizer {
	out := make([]Recognizer, len(defaultRecognizers))
	copy(out, defaultRecognizers)
	return out
}

// collectArtifacts scans turns in order and returns each match once,
// preserving first-seen order.
func collectArtifacts(turns []*schema.Message, recognizers []Recognizer) []string {
	var found []string
	seen := make(map[string]struct{})
	for _, turn := range turns {
		if turn == nil {
			continue
		}
		for _, rec := range recognizers {
			for _, match := range rec.Pattern.FindAllString(turn.Content, -1) {
				if _, ok := seen[match]; ok {
					continue
				}
				seen[match] = struct{}{}
				found = append(found, match)
			}
		}
	}
	return found
}
