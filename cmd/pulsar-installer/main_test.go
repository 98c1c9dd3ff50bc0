package main

import (
	"testing"

	"github.com/pulsar-engine/installer/internal/sysinfo"
	"github.com/pulsar-engine/installer/internal/utils/convert"
)

// TestMain_CreateRootCommand validates that the root command is properly
// configured with all expected flags and subcommands.
func TestMain_CreateRootCommand(t *testing.T) {
	root := createRootCommand()

	if root == nil {
		t.Fatal("createRootCommand returned nil")
	}

	if root.Use != "pulsar-installer" {
		t.Errorf("expected Use to be 'pulsar-installer', got %q", root.Use)
	}
	if root.Short == "" {
		t.Error("Short description should not be empty")
	}
	if root.Long == "" {
		t.Error("Long description should not be empty")
	}

	for _, name := range []string{"log-level", "log-file"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag --%s to be registered", name)
		}
	}

	expectedCommands := map[string]bool{
		"install":   false,
		"uninstall": false,
		"version":   false,
	}
	for _, cmd := range root.Commands() {
		if _, exists := expectedCommands[cmd.Name()]; exists {
			expectedCommands[cmd.Name()] = true
		}
	}
	for cmdName, found := range expectedCommands {
		if !found {
			t.Errorf("expected subcommand %q to be registered", cmdName)
		}
	}
}

// TestInstall_Flags validates the install command's flag surface.
func TestInstall_Flags(t *testing.T) {
	installCmd := createInstallCommand()

	for _, name := range []string{
		"config", "install-path", "asset-url", "checksum",
		"asset-version", "release-owner", "release-repo", "components",
		"min-disk-space",
	} {
		if installCmd.Flags().Lookup(name) == nil {
			t.Errorf("expected flag --%s to be registered", name)
		}
	}
}

func TestLoadInstallConfigMinDiskSpaceOverride(t *testing.T) {
	detector := sysinfo.NewHostDetector()

	minDiskSpace = "3GiB"
	t.Cleanup(func() { minDiskSpace = "" })

	cfg, err := loadInstallConfig(detector)
	if err != nil {
		t.Fatalf("loadInstallConfig failed: %v", err)
	}
	if cfg.Requirements.MinDiskSpaceBytes != 3*convert.GiB {
		t.Errorf("MinDiskSpaceBytes = %d, want %d", cfg.Requirements.MinDiskSpaceBytes, 3*convert.GiB)
	}

	minDiskSpace = "lots"
	if _, err := loadInstallConfig(detector); err == nil {
		t.Error("expected error for unparseable size")
	}
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := defaultCatalog()
	if err != nil {
		t.Fatalf("defaultCatalog failed: %v", err)
	}

	engine, ok := catalog.Get("engine")
	if !ok || !engine.Required {
		t.Error("engine component should exist and be required")
	}

	// Every catalog component must map to payload paths, or installing it
	// would be a silent no-op.
	for _, comp := range catalog.Components() {
		if len(componentPayloads[comp.ID]) == 0 {
			t.Errorf("component %q has no payload paths", comp.ID)
		}
	}
}

func TestBuildSelectionDefaultsToAll(t *testing.T) {
	catalog, err := defaultCatalog()
	if err != nil {
		t.Fatalf("defaultCatalog failed: %v", err)
	}

	all := buildSelection(catalog, nil)
	if len(all.IDs()) != len(catalog.Components()) {
		t.Errorf("empty id list should select everything, got %v", all.IDs())
	}

	only := buildSelection(catalog, []string{"docs"})
	if !only.IsSelected("docs") || !only.IsSelected("engine") {
		t.Errorf("selection should contain docs and the required engine, got %v", only.IDs())
	}
	if only.IsSelected("tools") {
		t.Error("tools should not be selected")
	}
}
