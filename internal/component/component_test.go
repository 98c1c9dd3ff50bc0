package component

import (
	"errors"
	"testing"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog([]Component{
		{ID: "engine", DisplayName: "Pulsar Engine", SizeBytes: 500, Required: true},
		{ID: "tools", DisplayName: "Command Line Tools", SizeBytes: 120},
		{ID: "docs", DisplayName: "Documentation", SizeBytes: 30},
	})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	return catalog
}

func TestNewCatalogRejectsDuplicates(t *testing.T) {
	_, err := NewCatalog([]Component{{ID: "a"}, {ID: "a"}})
	if err == nil {
		t.Fatal("expected error for duplicate id")
	}
	if _, err := NewCatalog([]Component{{ID: ""}}); err == nil {
		t.Fatal("expected error for empty id")
	}
}

func TestSelectionKeepsRequiredComponents(t *testing.T) {
	catalog := testCatalog(t)
	sel := NewSelection(catalog)

	if !sel.IsSelected("engine") {
		t.Fatal("required component must start selected")
	}

	sel.Deselect("engine")
	if !sel.IsSelected("engine") {
		t.Error("deselecting a required component must be a no-op")
	}

	sel.Select("docs")
	sel.Deselect("docs")
	if sel.IsSelected("docs") {
		t.Error("optional component should be deselectable")
	}
}

func TestSelectionIgnoresUnknownIDs(t *testing.T) {
	sel := NewSelection(testCatalog(t))
	sel.Select("nonexistent")
	if sel.IsSelected("nonexistent") {
		t.Error("unknown id should not become selected")
	}
}

func TestTotalSizeRecomputed(t *testing.T) {
	catalog := testCatalog(t)
	sel := NewSelection(catalog)

	if got := sel.TotalSize(); got != 500 {
		t.Errorf("TotalSize = %d, want 500 (required only)", got)
	}

	sel.Select("tools")
	sel.Select("docs")
	if got := sel.TotalSize(); got != 650 {
		t.Errorf("TotalSize = %d, want 650", got)
	}

	sel.Deselect("docs")
	if got := sel.TotalSize(); got != 620 {
		t.Errorf("TotalSize = %d, want 620", got)
	}
}

func TestConfigTotalSizeIgnoresUnknownIDs(t *testing.T) {
	catalog := testCatalog(t)
	cfg := DefaultConfig("/opt/pulsar")
	cfg.SelectedComponents = []string{"engine", "ghost", "docs"}

	if got := cfg.TotalSize(catalog); got != 530 {
		t.Errorf("TotalSize = %d, want 530", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig("/opt/pulsar")

	var cfgErr *errdefs.ConfigError
	if err := cfg.Validate(); !errors.As(err, &cfgErr) {
		t.Errorf("empty selection should fail with ConfigError, got %v", err)
	}

	cfg.SelectedComponents = []string{"engine"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}

	cfg.InstallPath = "relative/path"
	var invalid *errdefs.InvalidPath
	if err := cfg.Validate(); !errors.As(err, &invalid) {
		t.Errorf("relative path should fail with InvalidPath, got %v", err)
	}
}
