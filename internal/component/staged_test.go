package component

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

func stagedFixture(t *testing.T) (*StagedInstaller, string, string) {
	t.Helper()
	payload := t.TempDir()
	install := t.TempDir()

	if err := os.MkdirAll(filepath.Join(payload, "bin"), 0o755); err != nil {
		t.Fatalf("seeding payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(payload, "bin", "pulsar"), []byte("binary"), 0o755); err != nil {
		t.Fatalf("seeding payload: %v", err)
	}
	if err := os.WriteFile(filepath.Join(payload, "README.md"), []byte("docs"), 0o644); err != nil {
		t.Fatalf("seeding payload: %v", err)
	}

	inst := NewStagedInstaller(Component{
		ID:          "engine",
		DisplayName: "Pulsar Engine",
		SizeBytes:   100,
		Required:    true,
	}, payload, []string{"bin", "README.md"})
	return inst, payload, install
}

func TestStagedInstallerRoundTrip(t *testing.T) {
	inst, _, install := stagedFixture(t)

	if err := inst.Install(context.Background(), install, nil); err != nil {
		t.Fatalf("Install failed: %v", err)
	}
	if !inst.Verify(install) {
		t.Fatal("Verify should pass after install")
	}

	data, err := os.ReadFile(filepath.Join(install, "bin", "pulsar"))
	if err != nil || string(data) != "binary" {
		t.Fatalf("binary not copied: %v %q", err, data)
	}
	info, err := os.Stat(filepath.Join(install, "bin", "pulsar"))
	if err != nil {
		t.Fatalf("stat copied binary: %v", err)
	}
	if info.Mode().Perm()&0o111 == 0 {
		t.Error("executable bit lost in copy")
	}

	if err := inst.Uninstall(install); err != nil {
		t.Fatalf("Uninstall failed: %v", err)
	}
	if inst.Verify(install) {
		t.Error("Verify should fail after uninstall")
	}
}

func TestStagedInstallerMissingPayload(t *testing.T) {
	install := t.TempDir()
	inst := NewStagedInstaller(Component{ID: "tools"}, t.TempDir(), []string{"plugins"})

	err := inst.Install(context.Background(), install, nil)
	var failed *errdefs.ComponentFailed
	if !errors.As(err, &failed) {
		t.Fatalf("Install error = %v, want component failure", err)
	}
}

func TestStagedInstallerUninstallIdempotent(t *testing.T) {
	inst, _, install := stagedFixture(t)
	if err := inst.Uninstall(install); err != nil {
		t.Fatalf("Uninstall on clean tree failed: %v", err)
	}
}
