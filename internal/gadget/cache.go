package gadget

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/deathmemory/apkpatcher/internal/apk"
)

// DefaultCacheDir is where downloaded gadgets live, one subdirectory per
// frida version.
func DefaultCacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".apkpatcher", "gadgets"), nil
}

// Update downloads every android gadget of the release matching
// fridaVersion into <cacheDir>/<version>/. Assets whose extracted form is
// already cached are skipped.
func Update(feed *Feed, fridaVersion, cacheDir string, logger *log.Logger) error {
	logger.Info("Updating frida gadgets", "version", fridaVersion)

	rel, err := feed.ReleaseFor(fridaVersion)
	if err != nil {
		return err
	}

	gadgets := AndroidGadgets(rel)
	if len(gadgets) == 0 {
		return fmt.Errorf("release %s carries no android gadgets", rel.Tag)
	}

	versionDir := filepath.Join(cacheDir, fridaVersion)
	if err := os.MkdirAll(versionDir, 0o755); err != nil {
		return fmt.Errorf("creating gadget cache: %w", err)
	}

	for _, asset := range gadgets {
		extracted := filepath.Join(versionDir, strings.TrimSuffix(asset.Name, ".xz"))
		if _, err := os.Stat(extracted); err == nil {
			logger.Debug("Gadget already cached, skipping", "asset", asset.Name)
			continue
		}
		if _, err := feed.Download(asset, versionDir, logger); err != nil {
			return err
		}
	}

	logger.Info("Gadgets were updated", "dir", versionDir)
	return nil
}

// Cached lists the gadget files cached for a frida version, sorted by
// name. An empty result with a nil error means the cache exists but holds
// nothing for that version.
func Cached(cacheDir, fridaVersion string) ([]string, error) {
	versionDir := filepath.Join(cacheDir, fridaVersion)
	entries, err := os.ReadDir(versionDir)
	if err != nil {
		return nil, fmt.Errorf("gadget cache for %s not found (run update first): %w", fridaVersion, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			files = append(files, filepath.Join(versionDir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Recommended picks the cached gadget matching a device ABI. The ABI is
// mapped to an architecture and each cached file's name is resolved the
// same way payload names are resolved everywhere else.
func Recommended(cacheDir, fridaVersion, abi string, logger *log.Logger) (string, error) {
	arch := apk.ArchForABI(abi)
	if arch == apk.ArchUnknown {
		return "", fmt.Errorf("device reports unsupported abi %q", abi)
	}

	files, err := Cached(cacheDir, fridaVersion)
	if err != nil {
		return "", err
	}

	for _, file := range files {
		if apk.ResolveArch(file) == arch {
			logger.Info("Gadget selected for device", "abi", abi, "gadget", filepath.Base(file))
			return file, nil
		}
	}

	return "", fmt.Errorf("no cached gadget for abi %q (version %s)", abi, fridaVersion)
}
