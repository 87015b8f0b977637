package apk

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInjectPermission(t *testing.T) {
	manifest := `<?xml version="1.0" encoding="utf-8"?>
<manifest xmlns:android="http://schemas.android.com/apk/res/android" package="com.example.app">
    <application android:label="Example">
        <activity android:name=".MainActivity"/>
    </application>
</manifest>
`

	out, err := InjectPermission(manifest, PermissionInternet)
	if err != nil {
		t.Fatalf("InjectPermission failed: %v", err)
	}

	tag := `<uses-permission android:name="android.permission.INTERNET"/>`
	if got := strings.Count(out, tag); got != 1 {
		t.Fatalf("permission tag count = %d, want 1", got)
	}

	// The declaration sits on its own line right after the root tag's
	// closing bracket.
	rootEnd := strings.Index(out, `package="com.example.app">`)
	tagIdx := strings.Index(out, tag)
	appIdx := strings.Index(out, "<application")
	if !(rootEnd < tagIdx && tagIdx < appIdx) {
		t.Errorf("tag at %d, want between root tag end %d and application %d", tagIdx, rootEnd, appIdx)
	}

	// Removing the injected line restores the document exactly.
	restored := strings.Replace(out, "\n    "+tag, "", 1)
	if restored != manifest {
		t.Error("document outside the injected line was modified")
	}
}

func TestInjectPermissionStructuralErrors(t *testing.T) {
	tests := []struct {
		name     string
		manifest string
	}{
		{
			name:     "no manifest tag",
			manifest: `<?xml version="1.0"?><html></html>`,
		},
		{
			name:     "unclosed manifest tag",
			manifest: `<manifest xmlns:android="http://schemas.android.com/apk/res/android"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := InjectPermission(tt.manifest, PermissionInternet)
			var serr *StructureError
			if !errors.As(err, &serr) {
				t.Fatalf("got err %v, want StructureError", err)
			}
		})
	}
}

func TestInjectPermissionFile(t *testing.T) {
	tree := t.TempDir()
	path := filepath.Join(tree, ManifestName)
	manifest := `<manifest xmlns:android="http://schemas.android.com/apk/res/android"></manifest>`
	if err := os.WriteFile(path, []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := InjectPermissionFile(tree, PermissionInternet); err != nil {
		t.Fatalf("InjectPermissionFile failed: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `<uses-permission android:name="android.permission.INTERNET"/>`) {
		t.Error("permission not written to manifest file")
	}
}

func TestNewWorkDirReplacesStale(t *testing.T) {
	t.Setenv("TMPDIR", t.TempDir())

	dir, err := NewWorkDir("/apks/com.example.app.apk", discardLogger())
	if err != nil {
		t.Fatalf("NewWorkDir failed: %v", err)
	}
	if base := filepath.Base(dir); base != "com_example_app" {
		t.Errorf("workdir base = %q, want com_example_app", base)
	}

	// Leave a stale file behind and re-create: the tree must come back
	// empty.
	stale := filepath.Join(dir, "smali", "leftover.smali")
	writeFile(t, stale, "stale")

	dir2, err := NewWorkDir("/apks/com.example.app.apk", discardLogger())
	if err != nil {
		t.Fatalf("second NewWorkDir failed: %v", err)
	}
	if dir2 != dir {
		t.Errorf("workdir moved: %s vs %s", dir2, dir)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale content survived workdir recreation")
	}
}
