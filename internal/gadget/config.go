package gadget

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Interaction tells the gadget how to behave at load time. Script mode
// runs a bundled hook file; listen mode waits for a controller.
type Interaction struct {
	Type    string `json:"type" jsonschema:"title=Interaction Type,description=How the gadget interacts: script or listen,enum=script,enum=listen"`
	Path    string `json:"path,omitempty" jsonschema:"title=Script Path,description=Path of the auto-load script relative to the gadget"`
	Address string `json:"address,omitempty" jsonschema:"title=Listen Address,description=Interface the gadget listens on in listen mode"`
	Port    int    `json:"port,omitempty" jsonschema:"title=Listen Port,description=Port the gadget listens on in listen mode"`
}

// Config is the gadget configuration file installed next to the library
// as libfrida-gadget.config.so.
type Config struct {
	Interaction Interaction `json:"interaction" jsonschema:"title=Interaction,description=Load-time behavior of the gadget"`
}

// DefaultConfig wires the gadget to the auto-load script under its
// installed name.
func DefaultConfig() Config {
	return Config{
		Interaction: Interaction{
			Type: "script",
			Path: "./libhook.js.so",
		},
	}
}

// WriteDefaultConfig materializes DefaultConfig as
// generatedConfigFile.config in dir and returns the path, for users who
// supply an auto-load script but no config of their own.
func WriteDefaultConfig(dir string) (string, error) {
	data, err := json.MarshalIndent(DefaultConfig(), "", "    ")
	if err != nil {
		return "", fmt.Errorf("encoding gadget config: %w", err)
	}

	path := filepath.Join(dir, "generatedConfigFile.config")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("writing gadget config: %w", err)
	}
	return path, nil
}
