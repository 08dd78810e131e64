package toolcap

import (
	"strings"
	"testing"
)

func TestForProviderSheets(t *testing.T) {
	capability, ok := ForProvider(ProviderSheets)
	if !ok {
		t.Fatalf("expected sheets capability to be registered")
	}
	if !strings.Contains(capability.Section, SheetsMarkerPrefix) {
		t.Fatalf("section must document the marker prefix")
	}
	if !strings.Contains(capability.Section, "## Spreadsheet Creation") {
		t.Fatalf("section must carry its header")
	}
}

func TestForProviderUnknown(t *testing.T) {
	if _, ok := ForProvider("calendar"); ok {
		t.Fatalf("unknown provider must not resolve")
	}
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].Section = "tampered"
	second := All()
	if second[0].Section == "tampered" {
		t.Fatalf("All must hand out copies")
	}
}
