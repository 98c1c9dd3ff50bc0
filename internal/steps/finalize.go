package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pulsar-engine/installer/internal/errdefs"
	"github.com/pulsar-engine/installer/internal/progress"
	"github.com/pulsar-engine/installer/internal/utils/file"
)

const (
	installInfoName = "install_info.json"
	envSnippetName  = "pulsar-env.sh"
)

// installInfo is the record finalize writes into the install tree. It is the
// in-tree counterpart of the platform uninstall metadata: the uninstaller
// reads the platform copy, tooling inside the install reads this one.
type installInfo struct {
	Version     string   `json:"version"`
	InstallPath string   `json:"install_path"`
	InstallDate string   `json:"install_date"`
	Components  []string `json:"components"`
}

// FinalizeStep writes the installation record and, when the user opted into
// PATH integration, a shell snippet that prepends the bin directory.
type FinalizeStep struct {
	installDir string
	version    string
	components []string
	addToPath  bool
}

// NewFinalizeStep binds the install directory and what was installed.
func NewFinalizeStep(installDir, version string, components []string, addToPath bool) *FinalizeStep {
	return &FinalizeStep{
		installDir: installDir,
		version:    version,
		components: components,
		addToPath:  addToPath,
	}
}

func (s *FinalizeStep) Name() string        { return "finalize" }
func (s *FinalizeStep) Description() string { return "Finalizing installation" }

func (s *FinalizeStep) CanExecute() (bool, error) { return true, nil }

func (s *FinalizeStep) Execute(ctx context.Context, sink progress.Sink) error {
	if sink == nil {
		sink = progress.Discard
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	info := installInfo{
		Version:     s.version,
		InstallPath: s.installDir,
		InstallDate: time.Now().UTC().Format(time.RFC3339),
		Components:  append([]string(nil), s.components...),
	}
	infoPath := filepath.Join(s.installDir, installInfoName)
	if err := file.WriteJSON(infoPath, info); err != nil {
		return &errdefs.IoError{Path: infoPath, Err: err}
	}
	sink(progress.New(50).WithMessage("Wrote installation record"))

	if s.addToPath {
		snippet := fmt.Sprintf("# Added by the Pulsar installer.\nexport PATH=%q:$PATH\n",
			filepath.Join(s.installDir, "bin"))
		snippetPath := filepath.Join(s.installDir, envSnippetName)
		if err := os.WriteFile(snippetPath, []byte(snippet), 0o644); err != nil {
			return &errdefs.IoError{Path: snippetPath, Err: err}
		}
	}

	sink(progress.New(100).WithMessage("Installation finalized"))
	return nil
}

func (s *FinalizeStep) Rollback() error {
	for _, name := range []string{installInfoName, envSnippetName} {
		path := filepath.Join(s.installDir, name)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return &errdefs.IoError{Path: path, Err: err}
		}
	}
	return nil
}
