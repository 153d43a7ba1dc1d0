package cmd

import (
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/pipeline"
	"os"

	"github.com/spf13/cobra"
)

var reportFlags struct {
	checkpoint bool
	notify     bool
	limit      int
}

func init() {
	flags := reportCmd.Flags()
	flags.BoolVar(&reportFlags.checkpoint, "checkpoint", false, "report the partial results of the checkpoint instead")
	flags.BoolVar(&reportFlags.notify, "notify", false, "mail the ranking")
	flags.IntVar(&reportFlags.limit, "limit", 0, "number of ranked processors to print, 0 prints all of them")
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the vendor options and value ranking of the last search.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)
		store := pipeline.NewStore(g.Config.StateDir, g.Tel)

		var state pipeline.State
		var err error
		if reportFlags.checkpoint {
			state, err = store.LoadCheckpoint()
		} else {
			state, err = store.LoadResults()
		}
		if err != nil {
			return err
		}
		return renderResults(ctx, os.Stdout, g, state, reportFlags.limit, reportFlags.notify)
	},
}
