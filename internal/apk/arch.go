// Package apk mutates a decompiled application tree in place: native
// library placement, manifest permission injection and working-directory
// lifecycle. The tree itself is produced and consumed by external tools.
package apk

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Arch is a target CPU architecture, derived from payload file names and
// never stored anywhere.
type Arch string

const (
	ArchARM32   Arch = "arm32"
	ArchARM64   Arch = "arm64"
	ArchX86     Arch = "x86"
	ArchX86_64  Arch = "x86_64"
	ArchUnknown Arch = ""
)

// ErrUnknownArch means the payload name matched no known architecture.
// Nothing can be placed without one, so callers must treat this as fatal.
var ErrUnknownArch = errors.New("could not resolve architecture from payload name")

// libRoot is the library directory relative to the decompiled tree root.
const libRoot = "lib"

// ResolveArch derives the architecture from a payload file name. Matching
// is on name substrings, first rule wins: "arm64" beats the bare "arm"
// rule, "x86_64" beats "x86", and "i386" is an alias for x86. Always
// compares string contents, never identities.
func ResolveArch(payloadName string) Arch {
	name := filepath.Base(payloadName)
	switch {
	case strings.Contains(name, "arm64"):
		return ArchARM64
	case strings.Contains(name, "arm") && !strings.Contains(name, "64"):
		return ArchARM32
	case strings.Contains(name, "x86_64"):
		return ArchX86_64
	case strings.Contains(name, "i386"),
		strings.Contains(name, "x86") && !strings.Contains(name, "64"):
		return ArchX86
	default:
		return ArchUnknown
	}
}

// ArchForABI maps an Android ABI string (as reported by
// "getprop ro.product.cpu.abi") to an Arch.
func ArchForABI(abi string) Arch {
	switch abi {
	case "armeabi", "armeabi-v7a":
		return ArchARM32
	case "arm64-v8a":
		return ArchARM64
	case "x86":
		return ArchX86
	case "x86_64":
		return ArchX86_64
	default:
		// Vendor ROMs report things like "arm64-v8a,armeabi-v7a".
		if strings.Contains(abi, "arm64") {
			return ArchARM64
		}
		return ArchUnknown
	}
}

// ABIDirs returns the ABI directory names that must carry the payload for
// an architecture. 32-bit ARM legally has two: the deprecated "armeabi"
// alias plus "armeabi-v7a". Unknown yields nil.
func ABIDirs(arch Arch) []string {
	switch arch {
	case ArchARM32:
		return []string{"armeabi", "armeabi-v7a"}
	case ArchARM64:
		return []string{"arm64-v8a"}
	case ArchX86:
		return []string{"x86"}
	case ArchX86_64:
		return []string{"x86_64"}
	default:
		return nil
	}
}

// PlanLibDirs creates (idempotently) and returns the absolute library
// directories under treeRoot that must receive the payload for arch.
// An unresolved architecture yields ErrUnknownArch: there is no safe
// directory to guess.
func PlanLibDirs(treeRoot string, arch Arch, logger *log.Logger) ([]string, error) {
	names := ABIDirs(arch)
	if len(names) == 0 {
		return nil, ErrUnknownArch
	}

	libs := filepath.Join(treeRoot, libRoot)
	if _, err := os.Stat(libs); os.IsNotExist(err) {
		logger.Debug("No lib folder in tree, creating", "path", libs)
	}

	dirs := make([]string, 0, len(names))
	for _, name := range names {
		dir := filepath.Join(libs, name)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			logger.Debug("Creating lib folder", "path", dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating %s: %w", dir, err)
		}
		dirs = append(dirs, dir)
	}

	return dirs, nil
}
