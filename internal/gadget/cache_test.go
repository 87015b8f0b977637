package gadget

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}

func cacheWithGadgets(t *testing.T, version string, names ...string) string {
	t.Helper()
	cache := t.TempDir()
	dir := filepath.Join(cache, version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("so"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return cache
}

func TestRecommended(t *testing.T) {
	cache := cacheWithGadgets(t, "16.2.1",
		"frida-gadget-16.2.1-android-arm.so",
		"frida-gadget-16.2.1-android-arm64.so",
		"frida-gadget-16.2.1-android-x86.so",
		"frida-gadget-16.2.1-android-x86_64.so",
	)

	tests := []struct {
		abi  string
		want string
	}{
		{"armeabi-v7a", "frida-gadget-16.2.1-android-arm.so"},
		{"armeabi", "frida-gadget-16.2.1-android-arm.so"},
		{"arm64-v8a", "frida-gadget-16.2.1-android-arm64.so"},
		{"x86", "frida-gadget-16.2.1-android-x86.so"},
		{"x86_64", "frida-gadget-16.2.1-android-x86_64.so"},
	}

	for _, tt := range tests {
		t.Run(tt.abi, func(t *testing.T) {
			got, err := Recommended(cache, "16.2.1", tt.abi, discardLogger())
			if err != nil {
				t.Fatalf("Recommended failed: %v", err)
			}
			if filepath.Base(got) != tt.want {
				t.Errorf("gadget = %q, want %q", filepath.Base(got), tt.want)
			}
		})
	}
}

func TestRecommendedUnsupportedABI(t *testing.T) {
	cache := cacheWithGadgets(t, "16.2.1", "frida-gadget-16.2.1-android-arm.so")

	if _, err := Recommended(cache, "16.2.1", "mips", discardLogger()); err == nil {
		t.Fatal("expected error for unsupported abi")
	}
}

func TestRecommendedMissingCache(t *testing.T) {
	if _, err := Recommended(t.TempDir(), "16.2.1", "arm64-v8a", discardLogger()); err == nil {
		t.Fatal("expected error when version cache is absent")
	}
}

func TestCachedSorted(t *testing.T) {
	cache := cacheWithGadgets(t, "16.2.1",
		"frida-gadget-16.2.1-android-x86.so",
		"frida-gadget-16.2.1-android-arm.so",
	)

	files, err := Cached(cache, "16.2.1")
	if err != nil {
		t.Fatalf("Cached failed: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("file count = %d, want 2", len(files))
	}
	if !strings.Contains(files[0], "arm") || !strings.Contains(files[1], "x86") {
		t.Errorf("files not sorted: %v", files)
	}
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteDefaultConfig(dir)
	if err != nil {
		t.Fatalf("WriteDefaultConfig failed: %v", err)
	}
	if filepath.Base(path) != "generatedConfigFile.config" {
		t.Errorf("config name = %q", filepath.Base(path))
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		t.Fatalf("generated config is not valid JSON: %v", err)
	}
	if cfg.Interaction.Type != "script" || cfg.Interaction.Path != "./libhook.js.so" {
		t.Errorf("unexpected default config: %+v", cfg)
	}
}
