package component

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

// StagedInstaller places one component's files from an extracted payload
// staging directory into the install tree. Each component owns a set of
// relative paths; Install copies them, Uninstall removes them, Verify checks
// they all exist.
type StagedInstaller struct {
	meta       Component
	payloadDir string
	relPaths   []string
}

// NewStagedInstaller binds a catalog entry to its payload paths. relPaths are
// relative to both the payload directory and the install path.
func NewStagedInstaller(meta Component, payloadDir string, relPaths []string) *StagedInstaller {
	return &StagedInstaller{meta: meta, payloadDir: payloadDir, relPaths: relPaths}
}

func (s *StagedInstaller) ID() string          { return s.meta.ID }
func (s *StagedInstaller) Name() string        { return s.meta.DisplayName }
func (s *StagedInstaller) Description() string { return s.meta.Description }
func (s *StagedInstaller) SizeBytes() uint64   { return s.meta.SizeBytes }
func (s *StagedInstaller) IsRequired() bool    { return s.meta.Required }

// Install copies the component's paths from the payload into the install
// tree. A payload path that does not exist is a component failure, not a
// silent skip.
func (s *StagedInstaller) Install(ctx context.Context, installPath string, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}

	for i, rel := range s.relPaths {
		if err := ctx.Err(); err != nil {
			return err
		}

		src := filepath.Join(s.payloadDir, rel)
		dst := filepath.Join(installPath, rel)
		info, err := os.Stat(src)
		if err != nil {
			return &errdefs.ComponentFailed{
				Component: s.meta.ID,
				Reason:    "payload missing " + rel,
			}
		}

		if info.IsDir() {
			err = copyTree(ctx, src, dst)
		} else {
			err = file.CopyFile(src, dst)
		}
		if err != nil {
			return &errdefs.IoError{Path: dst, Err: err}
		}

		percent := float64(i+1) / float64(len(s.relPaths)) * 100
		sink(progress.New(percent).WithMessage("Installed " + rel))
	}
	return nil
}

// Uninstall removes the component's paths, tolerating ones already gone.
func (s *StagedInstaller) Uninstall(installPath string) error {
	for _, rel := range s.relPaths {
		target := filepath.Join(installPath, rel)
		if err := os.RemoveAll(target); err != nil && !os.IsNotExist(err) {
			return &errdefs.IoError{Path: target, Err: err}
		}
	}
	return nil
}

// Verify reports whether every path the component owns is present.
func (s *StagedInstaller) Verify(installPath string) bool {
	for _, rel := range s.relPaths {
		if _, err := os.Stat(filepath.Join(installPath, rel)); err != nil {
			return false
		}
	}
	return true
}

// copyTree mirrors a directory, preserving file permission bits. Symlinks in
// payloads are not expected and are skipped.
func copyTree(ctx context.Context, src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		switch {
		case d.IsDir():
			return file.EnsureDir(target, 0o755)
		case d.Type().IsRegular():
			return file.CopyFile(path, target)
		default:
			return nil
		}
	})
}
