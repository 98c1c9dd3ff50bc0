// Package sysinfo detects host properties and gates installation on the
// minimum system requirements.
package sysinfo

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/pulsar-engine/installer/internal/errdefs"
)

// Requirements is the minimum system specification an installation needs.
// Constructed once at startup and treated as immutable.
type Requirements struct {
	MinDiskSpaceBytes      uint64
	MinRAMMb               uint32 // 0 means not checked
	SupportedOSVersions    []string
	SupportedArchitectures []string
}

// Detector reports host properties and validates install targets. The
// pipeline receives a Detector by injection; nothing in shared code branches
// on the platform at compile time.
type Detector interface {
	OSName() string
	Architecture() string
	OSVersion() string
	AvailableSpace(path string) (uint64, error)
	TotalRAMMb() (uint64, error)
	CheckRequirements(req Requirements, installPath string) error
	DefaultInstallPath() string
	ValidateInstallPath(path string) error
}

// HostDetector is the production Detector backed by gopsutil.
type HostDetector struct {
	osName    string
	osVersion string
	arch      string
}

// NewHostDetector probes the running host once and caches the identity
// fields. Probing failures degrade to runtime constants rather than failing
// construction; requirement checks re-query the dynamic values.
func NewHostDetector() *HostDetector {
	d := &HostDetector{
		osName: runtime.GOOS,
		arch:   normalizeArch(runtime.GOARCH),
	}
	if info, err := host.Info(); err == nil {
		if info.Platform != "" {
			d.osName = info.Platform
		}
		d.osVersion = info.PlatformVersion
	}
	return d
}

func (d *HostDetector) OSName() string       { return d.osName }
func (d *HostDetector) Architecture() string { return d.arch }
func (d *HostDetector) OSVersion() string    { return d.osVersion }

// AvailableSpace returns the free bytes of the filesystem holding path. The
// install target may not exist yet (and on Linux may be a file path, not a
// directory), so the query walks up to the deepest existing ancestor.
func (d *HostDetector) AvailableSpace(path string) (uint64, error) {
	probe, err := deepestExisting(path)
	if err != nil {
		return 0, &errdefs.IoError{Path: path, Err: err}
	}
	usage, err := disk.Usage(probe)
	if err != nil {
		return 0, &errdefs.IoError{Path: probe, Err: err}
	}
	return usage.Free, nil
}

// TotalRAMMb returns the host's physical memory in megabytes.
func (d *HostDetector) TotalRAMMb() (uint64, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return 0, fmt.Errorf("querying memory: %w", err)
	}
	return vm.Total / (1024 * 1024), nil
}

// CheckRequirements verifies req against the host, querying disk space at
// the install path. Space and architecture are independent checks; space is
// reported first because disk exhaustion is the more urgent blocker.
func (d *HostDetector) CheckRequirements(req Requirements, installPath string) error {
	available, err := d.AvailableSpace(installPath)
	if err != nil {
		return err
	}
	if available < req.MinDiskSpaceBytes {
		return &errdefs.InsufficientSpace{
			Needed:    req.MinDiskSpaceBytes,
			Available: available,
		}
	}

	if len(req.SupportedArchitectures) > 0 && !contains(req.SupportedArchitectures, d.arch) {
		return &errdefs.RequirementsNotMet{
			Reason: fmt.Sprintf("architecture %s is not supported (supported: %s)",
				d.arch, strings.Join(req.SupportedArchitectures, ", ")),
		}
	}

	if req.MinRAMMb > 0 {
		totalMb, err := d.TotalRAMMb()
		if err != nil {
			return err
		}
		if totalMb < uint64(req.MinRAMMb) {
			return &errdefs.RequirementsNotMet{
				Reason: fmt.Sprintf("requires %d MB RAM, host has %d MB", req.MinRAMMb, totalMb),
			}
		}
	}

	return nil
}

// DefaultInstallPath returns the conventional install location for the
// platform. On Linux this is a binary path rather than a directory.
func (d *HostDetector) DefaultInstallPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(`C:\Program Files`, "Pulsar")
	case "darwin":
		return filepath.Join("/Applications", "Pulsar.app")
	default:
		home, err := os.UserHomeDir()
		if err != nil {
			home = "/home/default"
		}
		return filepath.Join(home, ".local", "bin", "pulsar")
	}
}

// ValidateInstallPath rejects paths that are not absolute or whose nearest
// existing ancestor is not writable.
func (d *HostDetector) ValidateInstallPath(path string) error {
	if !filepath.IsAbs(path) {
		return &errdefs.InvalidPath{Path: path}
	}
	probe, err := deepestExisting(path)
	if err != nil {
		return &errdefs.IoError{Path: path, Err: err}
	}
	if info, err := os.Stat(probe); err == nil && !info.IsDir() {
		// Install target may be a file path; probe its directory.
		probe = filepath.Dir(probe)
	}
	if !isWritable(probe) {
		return &errdefs.InvalidPath{Path: path}
	}
	return nil
}

// deepestExisting walks up from path until it finds a component that exists.
func deepestExisting(path string) (string, error) {
	current := filepath.Clean(path)
	for {
		if _, err := os.Stat(current); err == nil {
			return current, nil
		} else if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", os.ErrNotExist
		}
		current = parent
	}
}

func isWritable(dir string) bool {
	probe, err := os.CreateTemp(dir, ".pulsar-write-probe-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return true
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// normalizeArch maps Go's GOARCH names onto the names release assets use.
func normalizeArch(goarch string) string {
	switch goarch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	default:
		return goarch
	}
}
