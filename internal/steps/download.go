package steps

import (
	"context"
	"os"
	"time"

	"github.com/pulsar-engine/installer/internal/download"
	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
)

// defaultRetryWindow bounds the retry budget for one asset transfer.
const defaultRetryWindow = 5 * time.Minute

// DownloadAssetStep fetches one release asset with checksum verification.
// Transient transport failures are retried; a checksum mismatch is not.
// Rollback removes the destination file, including a retained mismatched one.
type DownloadAssetStep struct {
	manager     *download.Manager
	task        download.Task
	retryWindow time.Duration
}

// NewDownloadAssetStep binds the manager and the transfer task.
func NewDownloadAssetStep(manager *download.Manager, task download.Task) *DownloadAssetStep {
	return &DownloadAssetStep{manager: manager, task: task, retryWindow: defaultRetryWindow}
}

func (s *DownloadAssetStep) Name() string        { return "download-asset" }
func (s *DownloadAssetStep) Description() string { return "Downloading release files" }

func (s *DownloadAssetStep) CanExecute() (bool, error) { return true, nil }

func (s *DownloadAssetStep) Execute(ctx context.Context, sink progress.Sink) error {
	return download.WithRetry(ctx, s.retryWindow, func() error {
		return s.manager.Run(ctx, s.task, sink)
	})
}

func (s *DownloadAssetStep) Rollback() error {
	if err := os.Remove(s.task.DestinationPath); err != nil && !os.IsNotExist(err) {
		return &errdefs.IoError{Path: s.task.DestinationPath, Err: err}
	}
	return nil
}
