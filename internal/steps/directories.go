package steps

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

// installSubdirs is the standard layout created under the install base.
var installSubdirs = []string{"bin", "lib", "assets", "plugins", "projects", "docs"}

// CreateDirectoriesStep lays out the install tree. Rollback removes the base
// directory only when the base did not exist at construction time; a
// pre-existing base is left in place and only the subdirectories are swept.
type CreateDirectoriesStep struct {
	basePath    string
	baseExisted bool
}

// NewCreateDirectoriesStep binds the install base directory and records
// whether it already exists, so Rollback needs no execution-time state.
func NewCreateDirectoriesStep(basePath string) *CreateDirectoriesStep {
	_, err := os.Stat(basePath)
	return &CreateDirectoriesStep{basePath: basePath, baseExisted: err == nil}
}

func (s *CreateDirectoriesStep) Name() string        { return "create-directories" }
func (s *CreateDirectoriesStep) Description() string { return "Creating installation directories" }

func (s *CreateDirectoriesStep) CanExecute() (bool, error) { return true, nil }

func (s *CreateDirectoriesStep) Execute(ctx context.Context, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}

	if err := file.EnsureDir(s.basePath, 0o755); err != nil {
		return &errdefs.IoError{Path: s.basePath, Err: err}
	}

	for i, sub := range installSubdirs {
		if err := ctx.Err(); err != nil {
			return err
		}
		dir := filepath.Join(s.basePath, sub)
		if err := file.EnsureDir(dir, 0o755); err != nil {
			return &errdefs.IoError{Path: dir, Err: err}
		}
		percent := float64(i+1) / float64(len(installSubdirs)) * 100
		sink(progress.New(percent).WithMessage("Created " + sub))
	}
	return nil
}

func (s *CreateDirectoriesStep) Rollback() error {
	if !s.baseExisted {
		if err := os.RemoveAll(s.basePath); err != nil && !os.IsNotExist(err) {
			return &errdefs.IoError{Path: s.basePath, Err: err}
		}
		return nil
	}
	for _, sub := range installSubdirs {
		dir := filepath.Join(s.basePath, sub)
		if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
			return &errdefs.IoError{Path: dir, Err: err}
		}
	}
	return nil
}
