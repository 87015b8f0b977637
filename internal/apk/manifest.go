package apk

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestName is the manifest file apktool leaves at the tree root.
const ManifestName = "AndroidManifest.xml"

// PermissionInternet is what the gadget needs to reach its controller.
const PermissionInternet = "android.permission.INTERNET"

// InjectPermission inserts a uses-permission declaration right after the
// manifest root element's opening tag, leaving everything else verbatim.
// It is not idempotent; callers check permission presence first via
// "aapt dump permissions".
func InjectPermission(manifest, permission string) (string, error) {
	start := strings.Index(manifest, "<manifest ")
	if start < 0 {
		return "", &StructureError{Missing: "<manifest "}
	}
	closing := strings.Index(manifest[start:], ">")
	if closing < 0 {
		return "", &StructureError{Missing: "manifest tag closing bracket"}
	}
	end := start + closing

	tag := fmt.Sprintf(`<uses-permission android:name=%q/>`, permission)
	return manifest[:end+1] + "\n    " + tag + manifest[end+1:], nil
}

// InjectPermissionFile applies InjectPermission to the manifest at the
// tree root, overwriting it in place.
func InjectPermissionFile(treeRoot, permission string) error {
	path := filepath.Join(treeRoot, ManifestName)
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}

	patched, err := InjectPermission(string(raw), permission)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

// StructureError reports manifest text missing a structural landmark.
type StructureError struct {
	Missing string
}

func (e *StructureError) Error() string {
	return fmt.Sprintf("malformed manifest: missing %q", e.Missing)
}
