// Package patcher sequences the patch pipeline over one APK: unpack,
// manifest and smali injection, gadget placement, repack, sign. Stages run
// strictly in order and fail fast; partial state in the working directory
// is deliberately left behind for inspection.
package patcher

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/deathmemory/apkpatcher/internal/apk"
	"github.com/deathmemory/apkpatcher/internal/gadget"
	"github.com/deathmemory/apkpatcher/internal/smali"
	"github.com/deathmemory/apkpatcher/internal/tools"
	"github.com/deathmemory/apkpatcher/internal/ui/colorize"
)

// LoadedLibrary is the name the injected code passes to
// System.loadLibrary; it must agree with the installed gadget file name
// (lib<name>.so).
const LoadedLibrary = "frida-gadget"

// Options configures one patch run.
type Options struct {
	APKPath        string
	GadgetPath     string
	ConfigPath     string // optional gadget config to bundle
	AutoloadPath   string // optional auto-load script to bundle
	OutputPath     string // empty means derive from the APK name
	ForceResources bool   // decode resources even when the manifest needs no edit
}

// Result describes what one run actually did.
type Result struct {
	OutputPath      string
	Entrypoint      string
	SmaliPath       string
	Arch            apk.Arch
	ABIDirs         []string
	PermissionAdded bool
	AlreadyPatched  bool
}

// Run executes the whole pipeline. The returned Result is only valid when
// err is nil.
func Run(opts Options, logger *log.Logger) (*Result, error) {
	res := &Result{}

	// Resolve and sanity-check the payload before touching anything.
	res.Arch = apk.ResolveArch(opts.GadgetPath)
	if res.Arch == apk.ArchUnknown {
		return nil, fmt.Errorf("gadget %s: %w", opts.GadgetPath, apk.ErrUnknownArch)
	}
	res.ABIDirs = apk.ABIDirs(res.Arch)

	if err := gadget.Validate(opts.GadgetPath, res.Arch); err != nil {
		return nil, err
	}

	workDir, err := apk.NewWorkDir(opts.APKPath, logger)
	if err != nil {
		return nil, err
	}

	hasInternet, err := tools.HasPermission(opts.APKPath, apk.PermissionInternet, logger)
	if err != nil {
		return nil, err
	}

	// Resource decoding is only needed when the manifest will be edited.
	withResources := !hasInternet || opts.ForceResources
	if err := tools.Decode(opts.APKPath, workDir, withResources, logger); err != nil {
		return nil, err
	}

	if !hasInternet {
		logger.Info("Injecting permission in manifest", "permission", apk.PermissionInternet)
		if err := apk.InjectPermissionFile(workDir, apk.PermissionInternet); err != nil {
			return nil, err
		}
		res.PermissionAdded = true
	}

	res.Entrypoint, err = tools.EntrypointClass(opts.APKPath, logger)
	if err != nil {
		return nil, err
	}

	res.SmaliPath, err = smali.LocateEntrypoint(workDir, res.Entrypoint)
	if err != nil {
		return nil, err
	}
	logger.Info("Found application entrypoint", "file", res.SmaliPath)

	switch err := smali.InjectIntoFile(res.SmaliPath, LoadedLibrary); {
	case errors.Is(err, smali.ErrAlreadyApplied):
		logger.Info("Gadget loader already present in entrypoint, skipping injection")
		res.AlreadyPatched = true
	case err != nil:
		return nil, err
	default:
		logger.Info("Gadget loader injected into entrypoint")
		previewInjection(res.SmaliPath, logger)
	}

	installer := apk.Installer{
		GadgetPath:   opts.GadgetPath,
		ConfigPath:   opts.ConfigPath,
		AutoloadPath: opts.AutoloadPath,
	}
	if err := installer.Install(workDir, res.Arch, logger); err != nil {
		return nil, err
	}

	res.OutputPath = opts.OutputPath
	if res.OutputPath == "" {
		res.OutputPath = tools.DefaultOutputPath(opts.APKPath)
	}

	if err := tools.Build(workDir, res.OutputPath, logger); err != nil {
		return nil, err
	}

	if err := tools.SignAndAlign(res.OutputPath, logger); err != nil {
		return nil, err
	}

	return res, nil
}

// previewInjection shows the patched region at debug level. Purely
// cosmetic; failures are ignored.
func previewInjection(smaliPath string, logger *log.Logger) {
	raw, err := os.ReadFile(smaliPath)
	if err != nil {
		return
	}
	idx := strings.Index(string(raw), "loadLibrary")
	if idx < 0 {
		return
	}
	logger.Debug("Injected region:\n" + colorize.Region(string(raw), idx, 5))
}
