package patcher

import (
	"fmt"
	"strings"
)

// Report renders a run summary as markdown, suitable for glamour.
func Report(res *Result) string {
	var b strings.Builder
	b.WriteString("# Patch complete\n\n")
	fmt.Fprintf(&b, "Patched APK written to `%s`.\n\n", res.OutputPath)
	b.WriteString("| | |\n|---|---|\n")
	fmt.Fprintf(&b, "| Entrypoint | `%s` |\n", res.Entrypoint)
	fmt.Fprintf(&b, "| Gadget architecture | %s |\n", res.Arch)
	fmt.Fprintf(&b, "| Library directories | %s |\n", strings.Join(res.ABIDirs, ", "))
	if res.PermissionAdded {
		b.WriteString("| Manifest | INTERNET permission added |\n")
	} else {
		b.WriteString("| Manifest | unchanged |\n")
	}
	if res.AlreadyPatched {
		b.WriteString("| Loader | already present, payload refreshed |\n")
	} else {
		b.WriteString("| Loader | injected |\n")
	}
	b.WriteString("\nInstall it with `adb install -r` and attach with `frida -U Gadget`.\n")
	return b.String()
}
