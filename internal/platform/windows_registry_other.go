//go:build !windows

package platform

import "github.com/pulsar-engine/installer/internal/errdefs"

func writeUninstallKey(string, string) error {
	return &errdefs.UnsupportedPlatform{Reason: "registry integration requires Windows"}
}

func deleteUninstallKey() error {
	return &errdefs.UnsupportedPlatform{Reason: "registry integration requires Windows"}
}
