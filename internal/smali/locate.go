package smali

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrClassNotFound is returned when no smali root holds the requested class.
var ErrClassNotFound = errors.New("class not found in any smali root")

// smaliRootPrefix names the decompiled dex roots apktool emits: "smali",
// then "smali_classes2", "smali_classes3", ... for multi-dex packages.
const smaliRootPrefix = "smali"

// LocateEntrypoint resolves a fully qualified, dot-separated class name to
// the smali file holding its disassembly. Roots are probed in lexicographic
// order so that a class present under several roots always resolves the
// same way regardless of directory enumeration order.
func LocateEntrypoint(treeRoot, className string) (string, error) {
	entries, err := os.ReadDir(treeRoot)
	if err != nil {
		return "", fmt.Errorf("reading decompiled tree %s: %w", treeRoot, err)
	}

	var roots []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), smaliRootPrefix) {
			roots = append(roots, entry.Name())
		}
	}
	sort.Strings(roots)

	rel := strings.ReplaceAll(className, ".", string(os.PathSeparator)) + ".smali"
	for _, root := range roots {
		candidate := filepath.Join(treeRoot, root, rel)
		if info, err := os.Stat(candidate); err == nil && info.Mode().IsRegular() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("%s: %w", className, ErrClassNotFound)
}

// InjectIntoFile applies InsertLoadLibrary to the class file at path,
// overwriting it in place. The original text is not retained. An
// ErrAlreadyApplied from the injector propagates unchanged so callers can
// treat it as a no-op.
func InjectIntoFile(path, libName string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	patched, err := InsertLoadLibrary(string(raw), libName)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(patched), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
