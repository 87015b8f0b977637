package apk

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
)

// Installed file names. The gadget always lands under its canonical name;
// the companions derive from it by suffix substitution.
const (
	GadgetName   = "libfrida-gadget.so"
	ConfigName   = "libfrida-gadget.config.so"
	HookFileName = "libhook.js.so"
)

// Installer copies the native payload bundle into every ABI directory an
// architecture maps to. All paths are optional except the gadget itself.
type Installer struct {
	GadgetPath   string // the native library
	ConfigPath   string // optional gadget configuration
	AutoloadPath string // optional auto-load script
}

// Install places the bundle under treeRoot for arch. Previously installed
// files of each kind are removed first, but only for the kinds a
// replacement was supplied for: a new config does not disturb an old
// auto-load script and vice versa. Directories already written before a
// failure stay written; there is no rollback.
func (in Installer) Install(treeRoot string, arch Arch, logger *log.Logger) error {
	dirs, err := PlanLibDirs(treeRoot, arch, logger)
	if err != nil {
		return fmt.Errorf("planning lib folders: %w", err)
	}

	for _, dir := range dirs {
		in.removeExisting(dir)

		target := filepath.Join(dir, GadgetName)
		logger.Debug("Copying gadget", "to", target)
		if err := copyFile(in.GadgetPath, target); err != nil {
			return fmt.Errorf("installing gadget: %w", err)
		}

		if in.ConfigPath != "" {
			if err := copyFile(in.ConfigPath, filepath.Join(dir, ConfigName)); err != nil {
				return fmt.Errorf("installing gadget config: %w", err)
			}
		}
		if in.AutoloadPath != "" {
			if err := copyFile(in.AutoloadPath, filepath.Join(dir, HookFileName)); err != nil {
				return fmt.Errorf("installing auto-load script: %w", err)
			}
		}
	}

	return nil
}

// removeExisting deletes a previously installed gadget and, independently,
// each companion kind that is about to be replaced.
func (in Installer) removeExisting(dir string) {
	os.Remove(filepath.Join(dir, GadgetName))
	if in.ConfigPath != "" {
		os.Remove(filepath.Join(dir, ConfigName))
	}
	if in.AutoloadPath != "" {
		os.Remove(filepath.Join(dir, HookFileName))
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
