package tools

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/nxadm/tail"
)

// Decode unpacks an APK into destDir with apktool. Resource decoding is
// optional: it is only needed when the manifest must be edited afterwards,
// and it is the step most likely to fail on apps with framework-dependent
// resources.
func Decode(apkPath, destDir string, withResources bool, logger *log.Logger) error {
	if withResources {
		logger.Info("Extracting apk (with resources)", "apk", apkPath, "dest", destDir)
		logger.Debug("Resource decoding may warn about framework dependencies")
		_, err := run(logger, "apktool", "d", "-o", destDir, apkPath, "-f")
		return err
	}

	logger.Info("Extracting apk (without resources)", "apk", apkPath, "dest", destDir)
	_, err := run(logger, "apktool", "-r", "d", "-o", destDir, apkPath, "-f")
	return err
}

// Build repacks a decompiled tree into targetPath. Repacking is by far the
// slowest external step, so apktool's output is captured to a log file and
// followed live, surfacing build progress at debug level while the command
// runs.
func Build(treeRoot, targetPath string, logger *log.Logger) error {
	logger.Info("Repackaging apk", "target", targetPath)
	logger.Debug("This may take some time...")

	logFile, err := os.CreateTemp("", "apkpatcher-apktool-*.log")
	if err != nil {
		return fmt.Errorf("creating apktool log file: %w", err)
	}
	logPath := logFile.Name()
	defer os.Remove(logPath)

	cmd := exec.Command("apktool", "b", "-o", targetPath, treeRoot)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	follower, tailErr := tail.TailFile(logPath, tail.Config{Follow: true, Logger: tail.DiscardingLogger})
	if tailErr == nil {
		done := make(chan struct{})
		defer func() {
			follower.Stop()
			<-done
		}()
		go func() {
			defer close(done)
			for line := range follower.Lines {
				if text := strings.TrimSpace(line.Text); text != "" {
					logger.Debug("apktool", "line", text)
				}
			}
		}()
	}

	runErr := cmd.Run()

	// Give the follower a beat to drain the last buffered lines.
	time.Sleep(50 * time.Millisecond)
	logFile.Close()

	if runErr != nil {
		out, _ := os.ReadFile(logPath)
		return &ToolError{
			Tool:   "apktool",
			Args:   []string{"b", "-o", targetPath, treeRoot},
			Output: string(out),
			Err:    runErr,
		}
	}
	return nil
}

// DefaultOutputPath derives the patched APK name from the input name:
// <name>_patched.apk in the current directory, timestamp-suffixed when a
// previous run already left one there.
func DefaultOutputPath(apkPath string) string {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	name := strings.TrimSuffix(filepath.Base(apkPath), ".apk")
	target := filepath.Join(cwd, name+"_patched.apk")

	if _, err := os.Stat(target); err == nil {
		target = filepath.Join(cwd, fmt.Sprintf("%s_patched_%d.apk", name, time.Now().Unix()))
	}
	return target
}
