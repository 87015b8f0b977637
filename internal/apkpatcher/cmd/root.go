package cmd

import (
	"context"
	"fmt"
	"os"
	pathpkg "path/filepath"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	applog "github.com/deathmemory/apkpatcher/internal/apkpatcher/log"
	"github.com/deathmemory/apkpatcher/internal/apkpatcher/styles"
	"github.com/deathmemory/apkpatcher/internal/gadget"
	"github.com/deathmemory/apkpatcher/internal/logging"
	"github.com/deathmemory/apkpatcher/internal/patcher"
	"github.com/deathmemory/apkpatcher/internal/tools"
)

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase verbosity (repeat for more detail)")

	rootCmd.Flags().StringP("apk", "a", "", "APK file to patch (may also be given as the positional argument)")
	rootCmd.Flags().StringP("gadget", "g", "", "Gadget shared library to inject (default: pick from the local cache for the connected device)")
	rootCmd.Flags().StringP("output-file", "o", "", "Path for the patched APK (default: <apk>_patched.apk in the current directory)")
	rootCmd.Flags().String("gadget-config", "", "Gadget configuration file to bundle next to the gadget")
	rootCmd.Flags().String("autoload-script", "", "Script to bundle and auto-load when the gadget starts")
	rootCmd.Flags().Bool("force-resources", false, "Decode and rebuild resources even when the manifest needs no changes")

	_ = viper.BindPFlag("gadget", rootCmd.Flags().Lookup("gadget"))
}

func initConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(pathpkg.Join(home, ".config", "apkpatcher"))
	}
	viper.SetEnvPrefix("APKPATCHER")
	viper.AutomaticEnv()
	// A missing config file is the normal case.
	_ = viper.ReadInConfig()
}

var rootCmd = &cobra.Command{
	Use:   "apkpatcher [apk]",
	Short: "Inject the Frida gadget into Android APKs",
	Long: `apkpatcher unpacks an APK, wires a Frida gadget library into the
application entrypoint, grants the INTERNET permission when missing, and
repacks and signs the result. The patched app loads the gadget at startup
without requiring root on the device.`,
	Example: `
# Patch an APK with a specific gadget library
apkpatcher -g frida-gadget-17.0.1-android-arm64.so app.apk

# Let apkpatcher pick a cached gadget matching the connected device
apkpatcher app.apk

# Bundle an auto-load script with the gadget
apkpatcher -g frida-gadget-17.0.1-android-arm64.so --autoload-script hook.js app.apk
  `,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		verbose, _ := cmd.Flags().GetCount("verbose")
		applog.Setup(verbose >= 3 || logging.IsDebug())
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		defer logger.Close()

		apkPath, _ := cmd.Flags().GetString("apk")
		if apkPath == "" && len(args) > 0 {
			apkPath = args[0]
		}
		if apkPath == "" {
			return fmt.Errorf("no APK given: pass one as an argument or with --apk")
		}
		if _, err := os.Stat(apkPath); err != nil {
			return fmt.Errorf("cannot access %s: %w", apkPath, err)
		}

		if err := requireDependencies(logger.Logger); err != nil {
			return err
		}

		gadgetPath, _ := cmd.Flags().GetString("gadget")
		if gadgetPath == "" {
			gadgetPath = viper.GetString("gadget")
		}
		if gadgetPath == "" {
			var err error
			gadgetPath, err = pickCachedGadget(logger.Logger)
			if err != nil {
				return err
			}
		}

		configPath, _ := cmd.Flags().GetString("gadget-config")
		autoloadPath, _ := cmd.Flags().GetString("autoload-script")
		if autoloadPath != "" && configPath == "" {
			// The gadget only loads the bundled script when a config
			// tells it to, so synthesize the standard one.
			var err error
			configPath, err = gadget.WriteDefaultConfig(os.TempDir())
			if err != nil {
				return err
			}
			logger.Debug("Generated default gadget config", "path", configPath)
		}

		outputPath, _ := cmd.Flags().GetString("output-file")
		forceResources, _ := cmd.Flags().GetBool("force-resources")

		res, err := patcher.Run(patcher.Options{
			APKPath:        apkPath,
			GadgetPath:     gadgetPath,
			ConfigPath:     configPath,
			AutoloadPath:   autoloadPath,
			OutputPath:     outputPath,
			ForceResources: forceResources,
		}, logger.Logger)
		if err != nil {
			return err
		}

		printReport(res)
		return nil
	},
}

// newLogger maps repeated -v flags onto the log level; the environment
// still wins when APKPATCHER_LOG_LEVEL is set.
func newLogger(cmd *cobra.Command) *logging.LoggerCloser {
	logger := logging.NewLogger()
	if os.Getenv("APKPATCHER_LOG_LEVEL") == "" {
		verbose, _ := cmd.Flags().GetCount("verbose")
		logger.SetLevel(logging.LevelForVerbosity(1 + verbose))
	}
	return logger
}

// requireDependencies aborts the run when an external tool is missing.
// Every failing probe is reported before returning, so a user with three
// missing tools learns about all three at once.
func requireDependencies(logger *log.Logger) error {
	results := tools.CheckDependencies(logger)
	for _, r := range results {
		if r.Err != nil {
			logger.Error("Missing dependency", "tool", r.Dependency.Name, "error", r.Err)
		}
	}
	if !tools.Satisfied(results) {
		return fmt.Errorf("%w: run `apkpatcher doctor` for details", tools.ErrMissingDependency)
	}
	return nil
}

func printReport(res *patcher.Result) {
	md := patcher.Report(res)
	if !term.IsTerminal(os.Stdout.Fd()) {
		fmt.Println(md)
		return
	}
	width, _, err := term.GetSize(os.Stdout.Fd())
	if err != nil || width <= 0 || width > 120 {
		width = 80
	}
	out, err := styles.GetMarkdownRenderer(width).Render(md)
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}

func Execute() {
	// Bypass fang's markdown rendering when output is being piped.
	if !term.IsTerminal(os.Stdout.Fd()) {
		if err := rootCmd.Execute(); err != nil {
			os.Exit(1)
		}
		return
	}
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}
