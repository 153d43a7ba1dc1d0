package cmd

import (
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/config"
	"cpuvalue/internal/report"
	"cpuvalue/pkg/migrations"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var historyDb string

func init() {
	historyCmd.Flags().StringVar(&historyDb, "db", "", "sqlite file or libsql url of the price history")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [cpu]",
	Short: "Show the prices recorded for a processor, or the recorded runs.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		if historyDb != "" {
			g.Config.History = config.HistoryConfig{File: historyDb}
			if migrations.IsRemote(historyDb) {
				g.Config.History = config.HistoryConfig{Url: historyDb}
			}
		}
		store, database, err := openHistory(g)
		if err != nil {
			return err
		}
		if database == nil {
			return fmt.Errorf("no price history configured, set history.file in %s or pass --db", configPath)
		}
		defer database.Close()

		if len(args) == 0 {
			runs, err := store.Runs(ctx)
			if err != nil {
				return err
			}
			report.Runs(os.Stdout, runs)
			return nil
		}

		observations, err := store.ForCPU(ctx, args[0])
		if err != nil {
			return err
		}
		report.History(os.Stdout, args[0], observations)
		return nil
	},
}
