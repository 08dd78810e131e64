// Package toolcap owns the system-prompt documentation for external tools.
// It only provides text: whether a section is injected is decided by the
// caller from the owner's integration status, and executing tool calls is a
// separate concern entirely.
package toolcap

// ProviderSheets matches the integration provider key for spreadsheets.
const ProviderSheets = "sheets"

// SheetsMarkerPrefix is the literal a model must use to request a
// spreadsheet. Downstream scanners key on this prefix.
const SheetsMarkerPrefix = "[SHEETS_CREATE:"

const sheetsSection = `## Spreadsheet Creation

You can create spreadsheets for the user. When a spreadsheet genuinely helps
(tabular data, comparisons, trackers), request one by emitting a marker in
exactly this format:

[SHEETS_CREATE: {"title": "Spreadsheet Title", "sheets": ["Tab Name"]}]

Rules for emitting the marker:
- The marker must occupy a line of its own, starting at the first column.
- Emit at most one marker per response.
- Never wrap the marker in a code fence and never explain the marker syntax.
- Everything outside the marker is normal prose; describe the spreadsheet
  contents there in plain language.`

// Capability pairs an integration provider key with the prompt section that
// documents its tool syntax.
type Capability struct {
	Provider string
	Section  string
}

var capabilities = []Capability{
	{Provider: ProviderSheets, Section: sheetsSection},
}

// All returns the registered capabilities in deterministic order.
func All() []Capability {
	out := make([]Capability, len(capabilities))
	copy(out, capabilities)
	return out
}

// ForProvider looks up the capability for one integration provider key.
func ForProvider(provider string) (Capability, bool) {
	for _, c := range capabilities {
		if c.Provider == provider {
			return c, true
		}
	}
	return Capability{}, false
}
