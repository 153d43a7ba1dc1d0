package cmd

import (
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/config"
	"cpuvalue/internal/report"
	"os"

	"github.com/spf13/cobra"
)

var candidatesFlags struct {
	refresh bool
	refine  bool
}

func init() {
	flags := candidatesCmd.Flags()
	flags.BoolVar(&candidatesFlags.refresh, "refresh", false, "fetch the benchmark catalog even when it is cached")
	flags.BoolVar(&candidatesFlags.refine, "refine", false, "look up the single-socket hashrate of every candidate")
	rootCmd.AddCommand(candidatesCmd)
}

var candidatesCmd = &cobra.Command{
	Use:   "candidates",
	Short: "List the processors that pass the filter and would be searched.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		err := g.Config.Override(config.Config{
			Refine: config.RefineConfig{Enabled: candidatesFlags.refine},
		})
		if err != nil {
			return err
		}

		candidates, err := loadCandidates(ctx, g, candidatesFlags.refresh)
		if err != nil {
			return err
		}
		report.Candidates(os.Stdout, candidates, g.Config.Filter)
		return nil
	},
}
