//go:build windows

package platform

import (
	"golang.org/x/sys/windows/registry"
)

// writeUninstallKey registers the install in Add/Remove Programs.
func writeUninstallKey(installPath, version string) error {
	key, _, err := registry.CreateKey(registry.LOCAL_MACHINE, uninstallKeyPath, registry.ALL_ACCESS)
	if err != nil {
		return err
	}
	defer key.Close()

	values := map[string]string{
		"DisplayName":     AppName,
		"DisplayVersion":  version,
		"InstallLocation": installPath,
		"Publisher":       "Pulsar Engine",
	}
	for name, value := range values {
		if err := key.SetStringValue(name, value); err != nil {
			return err
		}
	}
	return nil
}

// deleteUninstallKey removes the Add/Remove Programs entry; a missing key is
// not an error.
func deleteUninstallKey() error {
	err := registry.DeleteKey(registry.LOCAL_MACHINE, uninstallKeyPath)
	if err == registry.ErrNotExist {
		return nil
	}
	return err
}
