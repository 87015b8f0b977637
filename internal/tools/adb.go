package tools

import (
	"strings"

	"github.com/charmbracelet/log"
)

// DeviceABI blocks until a device is visible to adb and returns its
// primary CPU ABI, e.g. "arm64-v8a". Used to pick the matching gadget
// when none was given explicitly.
func DeviceABI(logger *log.Logger) (string, error) {
	logger.Info("Waiting for device")
	if _, err := run(logger, "adb", "wait-for-device"); err != nil {
		return "", err
	}

	out, err := run(logger, "adb", "shell", "getprop", "ro.product.cpu.abi")
	if err != nil {
		return "", err
	}

	abi := strings.TrimSpace(out)
	logger.Info("Device ABI identified", "abi", abi)
	return abi, nil
}
