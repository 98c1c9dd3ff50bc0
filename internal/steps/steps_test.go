package steps

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/pulsar-engine/installer/internal/component"
	"github.com/pulsar-engine/installer/internal/download"
	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

func TestCreateDirectoriesLaysOutTree(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pulsar")
	step := NewCreateDirectoriesStep(base)

	if err := step.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	for _, sub := range installSubdirs {
		info, err := os.Stat(filepath.Join(base, sub))
		if err != nil || !info.IsDir() {
			t.Errorf("subdir %s missing: %v", sub, err)
		}
	}
}

func TestCreateDirectoriesRollbackRemovesCreatedBase(t *testing.T) {
	base := filepath.Join(t.TempDir(), "pulsar")
	step := NewCreateDirectoriesStep(base)

	if err := step.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, err := os.Stat(base); !os.IsNotExist(err) {
		t.Error("base directory should be removed")
	}
}

func TestCreateDirectoriesRollbackKeepsPreexistingBase(t *testing.T) {
	base := t.TempDir()
	keeper := filepath.Join(base, "user-data.txt")
	if err := os.WriteFile(keeper, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("seeding base: %v", err)
	}

	step := NewCreateDirectoriesStep(base)
	if err := step.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}

	if _, err := os.Stat(keeper); err != nil {
		t.Error("pre-existing file should survive rollback")
	}
	if _, err := os.Stat(filepath.Join(base, "bin")); !os.IsNotExist(err) {
		t.Error("created subdir should be removed")
	}
}

func TestCreateDirectoriesRollbackWithoutExecute(t *testing.T) {
	base := t.TempDir()
	keeper := filepath.Join(base, "user-data.txt")
	if err := os.WriteFile(keeper, []byte("keep me"), 0o644); err != nil {
		t.Fatalf("seeding base: %v", err)
	}

	// Rollback may run on a step that never executed (e.g. after an earlier
	// gate failure); a pre-existing base must survive untouched.
	step := NewCreateDirectoriesStep(base)
	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, err := os.Stat(keeper); err != nil {
		t.Error("pre-existing file should survive rollback without execute")
	}
}

func TestDownloadAssetRollbackRemovesRetainedFile(t *testing.T) {
	payload := []byte("not what the checksum says")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(payload)
	}))
	defer srv.Close()

	dest := filepath.Join(t.TempDir(), "asset.tar.gz")
	step := NewDownloadAssetStep(download.NewManager(), download.Task{
		URL:              srv.URL,
		DestinationPath:  dest,
		ExpectedChecksum: hexDigest([]byte("something else")),
	})

	err := step.Execute(context.Background(), nil)
	var mismatch *errdefs.ChecksumMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("Execute error = %v, want checksum mismatch", err)
	}
	if _, statErr := os.Stat(dest); statErr != nil {
		t.Fatal("mismatched file should be retained until rollback")
	}

	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Error("rollback should remove the downloaded file")
	}
}

func TestRegisterStepSkippedWhenDisabled(t *testing.T) {
	step := NewRegisterStep(nil, "/opt/pulsar", "1.0.0", false)
	ok, err := step.CanExecute()
	if err != nil {
		t.Fatalf("CanExecute failed: %v", err)
	}
	if ok {
		t.Error("disabled register step should not be executable")
	}
}

func TestFinalizeWritesAndRollsBack(t *testing.T) {
	dir := t.TempDir()
	step := NewFinalizeStep(dir, "1.2.3", []string{"engine", "tools"}, true)

	if err := step.Execute(context.Background(), nil); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	var info installInfo
	if err := file.ReadJSON(filepath.Join(dir, installInfoName), &info); err != nil {
		t.Fatalf("reading install info: %v", err)
	}
	if info.Version != "1.2.3" || len(info.Components) != 2 {
		t.Errorf("install info = %+v", info)
	}
	if _, err := os.Stat(filepath.Join(dir, envSnippetName)); err != nil {
		t.Errorf("env snippet missing: %v", err)
	}

	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, installInfoName)); !os.IsNotExist(err) {
		t.Error("install info should be removed")
	}
	if _, err := os.Stat(filepath.Join(dir, envSnippetName)); !os.IsNotExist(err) {
		t.Error("env snippet should be removed")
	}
}

// fileInstaller drops one marker file per component, for exercising the
// component step end to end.
type fileInstaller struct {
	id   string
	size uint64
	fail bool
}

func (f *fileInstaller) ID() string          { return f.id }
func (f *fileInstaller) Name() string        { return f.id }
func (f *fileInstaller) Description() string { return f.id }
func (f *fileInstaller) SizeBytes() uint64   { return f.size }
func (f *fileInstaller) IsRequired() bool    { return false }

func (f *fileInstaller) Install(ctx context.Context, installPath string, sink progress.Sink) error {
	if f.fail {
		return errors.New("disk on fire")
	}
	return os.WriteFile(f.marker(installPath), []byte("ok"), 0o644)
}

func (f *fileInstaller) marker(installPath string) string {
	return filepath.Join(installPath, f.id+".installed")
}

func (f *fileInstaller) Uninstall(installPath string) error {
	return os.Remove(f.marker(installPath))
}

func (f *fileInstaller) Verify(installPath string) bool {
	_, err := os.Stat(f.marker(installPath))
	return err == nil
}

func TestInstallComponentsRollsBackCompletedOnes(t *testing.T) {
	dir := t.TempDir()
	a := &fileInstaller{id: "a", size: 100}
	b := &fileInstaller{id: "b", size: 50, fail: true}

	step := NewInstallComponentsStep([]component.Installer{a, b}, nil, dir)
	err := step.Execute(context.Background(), nil)
	var failed *errdefs.ComponentFailed
	if !errors.As(err, &failed) {
		t.Fatalf("Execute error = %v, want component failure", err)
	}
	if failed.Component != "b" {
		t.Errorf("failed component = %q, want b", failed.Component)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.installed")); statErr != nil {
		t.Fatal("component a should have installed before b failed")
	}

	if err := step.Rollback(); err != nil {
		t.Fatalf("Rollback failed: %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "a.installed")); !os.IsNotExist(statErr) {
		t.Error("rollback should uninstall component a")
	}
}

// End to end: a pipeline that creates the install tree, fails downloading a
// corrupt asset, and never reaches finalize. The tree must be gone afterwards
// and no installation record written.
func TestPipelineChecksumFailureUnwindsInstall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("corrupted payload"))
	}))
	defer srv.Close()

	base := filepath.Join(t.TempDir(), "pulsar")
	dest := filepath.Join(base, "pulsar.tar.gz")

	p := New(
		NewCreateDirectoriesStep(base),
		NewDownloadAssetStep(download.NewManager(), download.Task{
			URL:              srv.URL,
			DestinationPath:  dest,
			ExpectedChecksum: hexDigest([]byte("the real payload")),
		}),
		NewFinalizeStep(base, "1.0.0", []string{"engine"}, false),
	)

	err := p.Run(context.Background(), nil)
	var mismatch *errdefs.ChecksumMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("Run error = %v, want checksum mismatch", err)
	}
	if p.State() != Failed {
		t.Errorf("state = %s, want failed", p.State())
	}

	if _, statErr := os.Stat(base); !os.IsNotExist(statErr) {
		t.Error("install tree should be rolled back")
	}
	if _, statErr := os.Stat(filepath.Join(base, installInfoName)); !os.IsNotExist(statErr) {
		t.Error("installation record must not exist")
	}
}

func hexDigest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
