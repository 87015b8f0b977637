package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/deathmemory/apkpatcher/internal/gadget"
)

// PatcherConfig represents the apkpatcher configuration file
type PatcherConfig struct {
	Gadget     string        `json:"gadget,omitempty" jsonschema:"title=Gadget,description=Default gadget library to inject"`
	GadgetsDir string        `json:"gadgets-dir,omitempty" jsonschema:"title=Gadgets Directory,description=Directory holding downloaded gadget libraries"`
	Feed       string        `json:"release-feed,omitempty" jsonschema:"title=Release Feed,description=URL of the frida release feed"`
	Runtime    gadget.Config `json:"runtime,omitempty" jsonschema:"title=Runtime,description=Gadget runtime configuration bundled into patched APKs"`
}

var schemaCmd = &cobra.Command{
	Use:    "schema",
	Short:  "Generate JSON schema for configuration",
	Long:   "Generate JSON schema for the apkpatcher configuration",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		reflector := new(jsonschema.Reflector)
		bts, err := json.MarshalIndent(reflector.Reflect(&PatcherConfig{}), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal schema: %w", err)
		}
		fmt.Println(string(bts))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}
