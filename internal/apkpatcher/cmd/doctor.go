package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/deathmemory/apkpatcher/internal/tools"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that all required external tools are available",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger(cmd)
		defer logger.Close()

		ok := color.New(color.FgGreen).SprintFunc()
		bad := color.New(color.FgRed, color.Bold).SprintFunc()

		results := tools.CheckDependencies(logger.Logger)
		for _, r := range results {
			if r.Err != nil {
				fmt.Printf("%s %-10s %v\n", bad("✗"), r.Dependency.Name, r.Err)
				continue
			}
			fmt.Printf("%s %-10s\n", ok("✓"), r.Dependency.Name)
		}
		if !tools.Satisfied(results) {
			return tools.ErrMissingDependency
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
