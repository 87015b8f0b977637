package tools

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"
)

// Dependency is one external tool the pipeline needs, plus the cheapest
// probe that proves it works.
type Dependency struct {
	Name  string
	Probe []string
	// Accept, when set, must match the probe output; zipalign exits
	// non-zero when run bare, so presence is judged from its usage text.
	Accept string
}

// required lists everything a full patch run touches.
var required = []Dependency{
	{Name: "frida", Probe: []string{"--version"}},
	{Name: "aapt", Probe: []string{"version"}},
	{Name: "apktool", Probe: []string{"--version"}},
	{Name: "zipalign", Probe: nil, Accept: "zip alignment"},
	{Name: "keytool", Probe: []string{"-help"}},
	{Name: "jarsigner", Probe: []string{"-help"}},
	{Name: "adb", Probe: []string{"version"}},
}

// CheckResult is the outcome of probing one dependency.
type CheckResult struct {
	Dependency Dependency
	Err        error
}

// CheckDependencies probes every required tool and returns one result per
// tool, present or not. Nothing is mutated here; callers abort before any
// pipeline work when a result carries an error.
func CheckDependencies(logger *log.Logger) []CheckResult {
	results := make([]CheckResult, 0, len(required))
	for _, dep := range required {
		results = append(results, CheckResult{Dependency: dep, Err: probe(logger, dep)})
	}
	return results
}

// Satisfied reports whether every required dependency resolved.
func Satisfied(results []CheckResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return false
		}
	}
	return true
}

func probe(logger *log.Logger, dep Dependency) error {
	if _, err := exec.LookPath(dep.Name); err != nil {
		return fmt.Errorf("%s: %w", dep.Name, ErrMissingDependency)
	}

	if dep.Accept != "" {
		// Tools like zipalign print usage and exit non-zero when run
		// without arguments; judge presence from the output instead.
		out, _ := exec.Command(dep.Name, dep.Probe...).CombinedOutput()
		if !strings.Contains(strings.ToLower(string(out)), dep.Accept) {
			return fmt.Errorf("%s: unexpected probe output: %w", dep.Name, ErrMissingDependency)
		}
		return nil
	}

	if _, err := run(logger, dep.Name, dep.Probe...); err != nil {
		return err
	}
	return nil
}

// FridaVersion returns the version string of the locally installed frida
// CLI, which pins the gadget release to download.
func FridaVersion(logger *log.Logger) (string, error) {
	out, err := run(logger, "frida", "--version")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}
