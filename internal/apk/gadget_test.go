package apk

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(raw)
}

func TestInstallerPlacesBundle(t *testing.T) {
	tree := t.TempDir()
	src := t.TempDir()

	in := Installer{
		GadgetPath:   writeFile(t, filepath.Join(src, "frida-gadget-arm64.so"), "gadget-bytes"),
		ConfigPath:   writeFile(t, filepath.Join(src, "gadget.config"), "config-bytes"),
		AutoloadPath: writeFile(t, filepath.Join(src, "hook.js"), "hook-bytes"),
	}

	if err := in.Install(tree, ArchARM64, discardLogger()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	dir := filepath.Join(tree, "lib", "arm64-v8a")
	if got := readFile(t, filepath.Join(dir, GadgetName)); got != "gadget-bytes" {
		t.Errorf("gadget content = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, ConfigName)); got != "config-bytes" {
		t.Errorf("config content = %q", got)
	}
	if got := readFile(t, filepath.Join(dir, HookFileName)); got != "hook-bytes" {
		t.Errorf("hook content = %q", got)
	}
}

func TestInstallerArm32BothDirs(t *testing.T) {
	tree := t.TempDir()
	src := t.TempDir()

	in := Installer{
		GadgetPath: writeFile(t, filepath.Join(src, "frida-gadget-arm.so"), "gadget-bytes"),
	}
	if err := in.Install(tree, ArchARM32, discardLogger()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	for _, abi := range []string{"armeabi", "armeabi-v7a"} {
		path := filepath.Join(tree, "lib", abi, GadgetName)
		if _, err := os.Stat(path); err != nil {
			t.Errorf("gadget missing under %s: %v", abi, err)
		}
	}
}

func TestInstallerRemovesOnlyReplacedCompanions(t *testing.T) {
	tree := t.TempDir()
	src := t.TempDir()
	dir := filepath.Join(tree, "lib", "arm64-v8a")

	// A previous run installed all three files.
	writeFile(t, filepath.Join(dir, GadgetName), "old-gadget")
	writeFile(t, filepath.Join(dir, ConfigName), "old-config")
	writeFile(t, filepath.Join(dir, HookFileName), "old-hook")

	// This run supplies a new config but no auto-load script.
	in := Installer{
		GadgetPath: writeFile(t, filepath.Join(src, "frida-gadget-arm64.so"), "new-gadget"),
		ConfigPath: writeFile(t, filepath.Join(src, "gadget.config"), "new-config"),
	}
	if err := in.Install(tree, ArchARM64, discardLogger()); err != nil {
		t.Fatalf("Install failed: %v", err)
	}

	if got := readFile(t, filepath.Join(dir, GadgetName)); got != "new-gadget" {
		t.Errorf("gadget content = %q, want new-gadget", got)
	}
	if got := readFile(t, filepath.Join(dir, ConfigName)); got != "new-config" {
		t.Errorf("config content = %q, want new-config", got)
	}
	// The auto-load companion from the previous run must survive.
	if got := readFile(t, filepath.Join(dir, HookFileName)); got != "old-hook" {
		t.Errorf("hook content = %q, want old-hook", got)
	}
}

func TestInstallerUnknownArch(t *testing.T) {
	src := t.TempDir()
	in := Installer{
		GadgetPath: writeFile(t, filepath.Join(src, "gadget-mips.so"), "gadget"),
	}
	err := in.Install(t.TempDir(), ArchUnknown, discardLogger())
	if !errors.Is(err, ErrUnknownArch) {
		t.Fatalf("got err %v, want ErrUnknownArch", err)
	}
}
