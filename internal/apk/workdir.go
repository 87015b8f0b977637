package apk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// workDirName namespaces all per-run trees under the system temp dir.
const workDirName = "apkpatcher_tmp"

// NewWorkDir prepares an empty per-application working directory under the
// system temp dir. The directory is exclusively owned by one run: a stale
// tree from an earlier run of the same APK is destroyed first. On failure
// later in the pipeline the tree is intentionally left behind for
// inspection.
func NewWorkDir(apkPath string, logger *log.Logger) (string, error) {
	name := filepath.Base(apkPath)
	name = strings.TrimSuffix(name, ".apk")
	name = strings.ReplaceAll(name, ".", "_")

	dir := filepath.Join(os.TempDir(), workDirName, name)

	if _, err := os.Stat(dir); err == nil {
		logger.Debug("Stale working directory exists, removing", "path", dir)
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("removing stale working directory: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating working directory: %w", err)
	}

	return dir, nil
}
