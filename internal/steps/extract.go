package steps

import (
	"context"

	"github.com/pulsar-engine/installer/internal/extract"
	"github.com/pulsar-engine/installer/internal/progress"
)

// ExtractArchiveStep unpacks the downloaded archive into the install tree.
// The extracted files land under the base created by CreateDirectoriesStep,
// whose rollback removes the whole tree, so this step needs no rollback of
// its own.
type ExtractArchiveStep struct {
	archivePath string
	destDir     string
}

// NewExtractArchiveStep binds the archive and its destination directory.
func NewExtractArchiveStep(archivePath, destDir string) *ExtractArchiveStep {
	return &ExtractArchiveStep{archivePath: archivePath, destDir: destDir}
}

func (s *ExtractArchiveStep) Name() string        { return "extract-archive" }
func (s *ExtractArchiveStep) Description() string { return "Extracting files" }

func (s *ExtractArchiveStep) CanExecute() (bool, error) { return true, nil }

func (s *ExtractArchiveStep) Execute(ctx context.Context, sink progress.Sink) error {
	return extract.Extract(ctx, s.archivePath, s.destDir, sink)
}

func (s *ExtractArchiveStep) Rollback() error { return nil }
