// Package errdefs holds the typed errors shared across the installer. Every
// public operation surfaces one of these kinds so callers can render a
// specific message without parsing error strings.
package errdefs

import (
	"fmt"

	"github.com/pulsar-engine/installer/internal/utils/convert"
)

// IoError wraps a filesystem failure with the path it occurred on.
type IoError struct {
	Path string
	Err  error
}

func (e *IoError) Error() string {
	return fmt.Sprintf("i/o error on %s: %v", e.Path, e.Err)
}

func (e *IoError) Unwrap() error { return e.Err }

// DownloadError reports a transport or HTTP-level failure. Status is zero
// when the request never produced a response.
type DownloadError struct {
	URL    string
	Status int
	Err    error
}

func (e *DownloadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("download of %s failed: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("download of %s failed: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// ChecksumMismatch reports a verification failure. Both digests are kept so
// diagnostics can show what was expected against what was actually read.
type ChecksumMismatch struct {
	File     string
	Expected string
	Actual   string
}

func (e *ChecksumMismatch) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s",
		e.File, e.Expected, e.Actual)
}

// InsufficientSpace reports that the install target's filesystem cannot
// hold the payload.
type InsufficientSpace struct {
	Needed    uint64
	Available uint64
}

func (e *InsufficientSpace) Error() string {
	return fmt.Sprintf("insufficient disk space: need %s, available %s",
		convert.HumanSize(e.Needed), convert.HumanSize(e.Available))
}

// RequirementsNotMet reports an unmet system requirement other than disk
// space, e.g. an unsupported architecture.
type RequirementsNotMet struct {
	Reason string
}

func (e *RequirementsNotMet) Error() string {
	return "system requirements not met: " + e.Reason
}

// InvalidPath reports an installation path that is not absolute or not
// writable.
type InvalidPath struct {
	Path string
}

func (e *InvalidPath) Error() string {
	return "invalid installation path: " + e.Path
}

// ComponentFailed reports a failure while installing a single component.
type ComponentFailed struct {
	Component string
	Reason    string
}

func (e *ComponentFailed) Error() string {
	return fmt.Sprintf("failed to install component %q: %s", e.Component, e.Reason)
}

// ConfigError reports an invalid installer configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// UnsupportedPlatform reports that the host platform cannot be installed to.
type UnsupportedPlatform struct {
	Reason string
}

func (e *UnsupportedPlatform) Error() string {
	return "platform not supported: " + e.Reason
}
