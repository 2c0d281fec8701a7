package language

import "testing"

func TestRegistryGet(t *testing.T) {
	r := NewRegistry()

	cfg, err := r.Get("python")
	if err != nil {
		t.Fatalf("Get(python): %v", err)
	}
	if cfg.RuntimeName != "python" || cfg.RuntimeVersion == "" {
		t.Errorf("python config = %+v, want runtime name/version set", cfg)
	}

	if _, err := r.Get("cobol"); err == nil {
		t.Error("expected error for unknown language, got nil")
	}
}

func TestRegistryUniqueIDs(t *testing.T) {
	r := NewRegistry()
	seen := make(map[string]bool)
	for _, cfg := range r.List() {
		if seen[cfg.ID] {
			t.Errorf("duplicate language ID %q", cfg.ID)
		}
		seen[cfg.ID] = true
		if cfg.DefaultSource == "" {
			t.Errorf("language %q has no default source", cfg.ID)
		}
		if cfg.EditorSyntaxID == "" {
			t.Errorf("language %q has no editor syntax ID", cfg.ID)
		}
	}
}

func TestDefaultFreeRegistered(t *testing.T) {
	if !NewRegistry().Has(DefaultFree) {
		t.Fatalf("default free language %q is not registered", DefaultFree)
	}
}

func TestListSorted(t *testing.T) {
	list := NewRegistry().List()
	for i := 1; i < len(list); i++ {
		if list[i-1].ID >= list[i].ID {
			t.Fatalf("List() not sorted: %q before %q", list[i-1].ID, list[i].ID)
		}
	}
}
