package tools

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
)

// DumpPermissions returns the permission names an APK declares, straight
// from "aapt dump permissions".
func DumpPermissions(apkPath string, logger *log.Logger) ([]string, error) {
	out, err := run(logger, "aapt", "dump", "permissions", apkPath)
	if err != nil {
		return nil, err
	}
	return parsePermissions(out), nil
}

// HasPermission reports whether the APK declares the given permission.
func HasPermission(apkPath, permission string, logger *log.Logger) (bool, error) {
	perms, err := DumpPermissions(apkPath, logger)
	if err != nil {
		return false, err
	}
	for _, p := range perms {
		if p == permission {
			logger.Debug("App declares permission", "permission", permission)
			return true, nil
		}
	}
	logger.Debug("App lacks permission", "permission", permission)
	return false, nil
}

// EntrypointClass extracts the launchable-activity class name from
// "aapt dump badging". That class's static initializer is where the
// gadget load gets injected.
func EntrypointClass(apkPath string, logger *log.Logger) (string, error) {
	out, err := run(logger, "aapt", "dump", "badging", apkPath)
	if err != nil {
		return "", err
	}

	class := parseLaunchableActivity(out)
	if class == "" {
		return "", fmt.Errorf("no launchable-activity in badging dump for %s", apkPath)
	}
	logger.Debug("Found application entrypoint class", "class", class)
	return class, nil
}

// parsePermissions understands both aapt dialects:
//
//	uses-permission: name='android.permission.INTERNET'
//	uses-permission:'android.permission.INTERNET'
func parsePermissions(dump string) []string {
	var perms []string
	for _, line := range strings.Split(dump, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "uses-permission:") &&
			!strings.HasPrefix(line, "permission:") {
			continue
		}
		rest := line[strings.Index(line, ":")+1:]
		if name := unquoteAttr(rest); name != "" {
			perms = append(perms, name)
		}
	}
	return perms
}

func parseLaunchableActivity(dump string) string {
	for _, line := range strings.Split(dump, "\n") {
		if !strings.Contains(line, "launchable-activity:") {
			continue
		}
		idx := strings.Index(line, "name=")
		if idx < 0 {
			continue
		}
		field := strings.Fields(line[idx:])[0]
		field = strings.TrimPrefix(field, "name=")
		return strings.Trim(field, `'"`)
	}
	return ""
}

// unquoteAttr pulls the value out of "name='x'" or a bare "'x'" tail.
func unquoteAttr(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "name=")
	return strings.Trim(s, `'"`)
}
