package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/deathmemory/apkpatcher/internal/gadget"
	"github.com/deathmemory/apkpatcher/internal/tools"
)

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Download gadget libraries matching the local frida version",
	Long: `update queries the frida release feed for the version installed on
this machine and downloads every Android gadget published for it into the
local cache. Gadgets already cached are skipped.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		defer logger.Close()

		version, err := tools.FridaVersion(logger.Logger)
		if err != nil {
			return err
		}
		logger.Info("Updating gadget cache", "frida", version)

		cacheDir, err := gadgetCacheDir()
		if err != nil {
			return err
		}
		feed := &gadget.Feed{URL: viper.GetString("release-feed")}
		return gadget.Update(feed, version, cacheDir, logger.Logger)
	},
}

func init() {
	rootCmd.AddCommand(updateCmd)
}
