package oracle

import (
	"testing"

	"google.golang.org/genai"

	"github.com/ShayCichocki/tasktalk/pkg/models"
)

func TestSchemaFor_CreateTaskArgs(t *testing.T) {
	s := SchemaFor[models.CreateTaskArgs]()

	required := map[string]bool{}
	for _, r := range s.Required {
		required[r] = true
	}
	for _, f := range []string{"title", "priority", "dueDate"} {
		if !required[f] {
			t.Errorf("field %q not required; required = %v", f, s.Required)
		}
	}
	if required["description"] {
		t.Error("description should be optional")
	}

	prio, ok := s.Properties.Get("priority")
	if !ok {
		t.Fatal("priority property missing")
	}
	if len(prio.Enum) != 3 {
		t.Errorf("priority enum = %v, want 3 values", prio.Enum)
	}
}

func TestToGenaiSchema(t *testing.T) {
	g := toGenaiSchema(SchemaFor[ReviewArgs]())

	if g.Type != genai.TypeObject {
		t.Errorf("Type = %v, want object", g.Type)
	}
	if got := g.Properties["sufficient"]; got == nil || got.Type != genai.TypeBoolean {
		t.Errorf("sufficient = %+v, want boolean", got)
	}
	missing := g.Properties["missing"]
	if missing == nil || missing.Type != genai.TypeArray || missing.Items == nil || missing.Items.Type != genai.TypeString {
		t.Errorf("missing = %+v, want array of string", missing)
	}
	if len(g.PropertyOrdering) != len(g.Properties) {
		t.Errorf("PropertyOrdering = %v", g.PropertyOrdering)
	}

	intent := toGenaiSchema(SchemaFor[IntentArgs]())
	if e := intent.Properties["intent"].Enum; len(e) != len(models.Intents()) {
		t.Errorf("intent enum = %v, want %d values", e, len(models.Intents()))
	}
}

func TestKindForStatus(t *testing.T) {
	tests := []struct {
		status    int
		want      ProviderErrorKind
		transient bool
	}{
		{400, ProviderErrorKindInvalidRequest, false},
		{401, ProviderErrorKindAuth, false},
		{429, ProviderErrorKindRateLimitExceeded, true},
		{500, ProviderErrorKindInternal, true},
		{529, ProviderErrorKindOverloaded, true},
		{302, ProviderErrorKindUnknown, false},
	}
	for _, tt := range tests {
		got := kindForStatus(tt.status)
		if got != tt.want {
			t.Errorf("kindForStatus(%d) = %s, want %s", tt.status, got, tt.want)
		}
		if tr := (&ProviderError{Kind: got}).Transient(); tr != tt.transient {
			t.Errorf("Transient() for %d = %v, want %v", tt.status, tr, tt.transient)
		}
	}
}
