package component

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
	sigsyaml "sigs.k8s.io/yaml"

	"github.com/pulsar-engine/installer/internal/component/schema"
	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/sysinfo"
)

const configSchemaName = "installer-config.schema.json"

// Config is the installer configuration gathered before a pipeline is
// constructed.
type Config struct {
	InstallPath             string             `yaml:"install_path" json:"install_path"`
	SelectedComponents      []string           `yaml:"selected_components" json:"selected_components"`
	CreateDesktopShortcut   bool               `yaml:"create_desktop_shortcut" json:"create_desktop_shortcut"`
	CreateStartMenuShortcut bool               `yaml:"create_start_menu_shortcut" json:"create_start_menu_shortcut"`
	AddToPath               bool               `yaml:"add_to_path" json:"add_to_path"`
	Requirements            RequirementsConfig `yaml:"requirements" json:"requirements"`
}

// RequirementsConfig is the serialized form of sysinfo.Requirements.
type RequirementsConfig struct {
	MinDiskSpaceBytes      uint64   `yaml:"min_disk_space_bytes" json:"min_disk_space_bytes"`
	MinRAMMb               uint32   `yaml:"min_ram_mb" json:"min_ram_mb"`
	SupportedOSVersions    []string `yaml:"supported_os_versions" json:"supported_os_versions"`
	SupportedArchitectures []string `yaml:"supported_architectures" json:"supported_architectures"`
}

// DefaultConfig returns a configuration with the Pulsar defaults and the
// given install path.
func DefaultConfig(installPath string) Config {
	return Config{
		InstallPath:             installPath,
		CreateDesktopShortcut:   true,
		CreateStartMenuShortcut: true,
		AddToPath:               true,
		Requirements: RequirementsConfig{
			MinDiskSpaceBytes: 2 * 1024 * 1024 * 1024,
			MinRAMMb:          4096,
			SupportedOSVersions: []string{
				"Windows 10+", "macOS 11+", "Linux (kernel 5.0+)",
			},
			SupportedArchitectures: []string{"x86_64", "aarch64"},
		},
	}
}

// SysRequirements converts the serialized requirements into the detector's
// form.
func (c Config) SysRequirements() sysinfo.Requirements {
	return sysinfo.Requirements{
		MinDiskSpaceBytes:      c.Requirements.MinDiskSpaceBytes,
		MinRAMMb:               c.Requirements.MinRAMMb,
		SupportedOSVersions:    c.Requirements.SupportedOSVersions,
		SupportedArchitectures: c.Requirements.SupportedArchitectures,
	}
}

// TotalSize recomputes the aggregate transfer size of the selected
// components against the catalog.
func (c Config) TotalSize(catalog *Catalog) uint64 {
	var total uint64
	for _, id := range c.SelectedComponents {
		if comp, ok := catalog.Get(id); ok {
			total += comp.SizeBytes
		}
	}
	return total
}

// Validate checks the preconditions required before a pipeline may be
// constructed: a non-empty selection and an absolute install path.
func (c Config) Validate() error {
	if len(c.SelectedComponents) == 0 {
		return &errdefs.ConfigError{Reason: "no components selected for installation"}
	}
	if !filepath.IsAbs(c.InstallPath) {
		return &errdefs.InvalidPath{Path: c.InstallPath}
	}
	return nil
}

// LoadConfig reads a YAML config file, validates it against the embedded
// JSON schema, and unmarshals it.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &errdefs.IoError{Path: path, Err: err}
	}

	jsonData, err := sigsyaml.YAMLToJSON(data)
	if err != nil {
		return Config{}, &errdefs.ConfigError{Reason: fmt.Sprintf("invalid YAML in %s: %v", path, err)}
	}
	if err := validateAgainstSchema(jsonData); err != nil {
		return Config{}, &errdefs.ConfigError{Reason: err.Error()}
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &errdefs.ConfigError{Reason: fmt.Sprintf("parsing %s: %v", path, err)}
	}
	return cfg, nil
}

// SaveConfig writes the configuration as YAML.
func (c Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return &errdefs.ConfigError{Reason: fmt.Sprintf("encoding config: %v", err)}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &errdefs.IoError{Path: path, Err: err}
	}
	return nil
}

func validateAgainstSchema(jsonData []byte) error {
	comp := jsonschema.NewCompiler()
	if err := comp.AddResource(configSchemaName, bytes.NewReader(schema.InstallerConfigSchema)); err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	sch, err := comp.Compile(configSchemaName)
	if err != nil {
		return fmt.Errorf("compiling schema: %w", err)
	}

	var doc interface{}
	if err := json.Unmarshal(jsonData, &doc); err != nil {
		return fmt.Errorf("invalid config JSON: %w", err)
	}
	if err := sch.Validate(doc); err != nil {
		return fmt.Errorf("config schema validation failed: %w", err)
	}
	return nil
}
