// Package tools wraps the external programs the patcher depends on:
// apktool for unpack/repack, aapt for manifest dumps, the JDK signing
// tools, zipalign and adb. Every invocation is blocking and synchronous
// with no retry; a non-zero exit is fatal to the run.
package tools

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// ErrMissingDependency marks a required external tool that is absent from
// PATH. It is checked up front, before any mutation.
var ErrMissingDependency = errors.New("required external tool not found")

// ToolError reports a failed external tool invocation. The stage output it
// would have produced is considered invalid.
type ToolError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Tool, strings.Join(e.Args, " "), e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// run executes a tool and returns its combined output. Failures include
// the captured output, which is usually the only clue apktool or jarsigner
// leave behind.
func run(logger *log.Logger, tool string, args ...string) (string, error) {
	logger.Debug("Running external tool", "tool", tool, "args", args)

	out, err := exec.Command(tool, args...).CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", fmt.Errorf("%s: %w", tool, ErrMissingDependency)
		}
		return "", &ToolError{Tool: tool, Args: args, Output: string(out), Err: err}
	}
	return string(out), nil
}
