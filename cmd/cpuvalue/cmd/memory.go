package cmd

import (
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/config"
	"cpuvalue/internal/memsearch"
	"cpuvalue/internal/report"
	"cpuvalue/pkg/serviceutil"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var memoryFlags struct {
	offset int
	window int
	limit  int
	exact  bool
}

func init() {
	flags := memoryCmd.Flags()
	flags.IntVar(&memoryFlags.offset, "offset", 0, "index of the first benchmark to inspect")
	flags.IntVar(&memoryFlags.window, "window", 0, "number of benchmarks to inspect")
	flags.IntVar(&memoryFlags.limit, "limit", 0, "number of matches to print")
	flags.BoolVar(&memoryFlags.exact, "exact", false, "use the cpu name as given instead of the closest catalog entry")
	rootCmd.AddCommand(memoryCmd)
}

// minimum Jaro-Winkler similarity for a catalog entry to stand in for the
// requested cpu name.
const minSimilarity = 0.8

var memoryCmd = &cobra.Command{
	Use:   "memory <cpu> <memory part number>",
	Short: "Find the best benchmarks of a processor run with a specific memory module.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		err := g.Config.Override(config.Config{
			Memory: config.MemoryConfig{
				Offset: memoryFlags.offset,
				Window: memoryFlags.window,
				Limit:  memoryFlags.limit,
			},
		})
		if err != nil {
			return err
		}

		cpu := args[0]
		product := args[1]
		if !memoryFlags.exact {
			rows, err := loadRows(ctx, g, false)
			if err != nil {
				return err
			}
			row, similarity, ok := catalog.Closest(rows, cpu)
			if !ok || similarity < minSimilarity {
				return fmt.Errorf("no processor in the catalog resembles %q, pass --exact to use it anyway", cpu)
			}
			if row.CPU != cpu {
				slog.Info("using closest catalog entry", "requested", cpu, "cpu", row.CPU, "similarity", similarity)
			}
			cpu = row.CPU
		}

		bar := newProgressBar("Inspecting benchmarks", g.Config.Memory.Window)
		finder := memsearch.NewFinder(g.Xmrig, memsearch.Options{
			Offset:   g.Config.Memory.Offset,
			Window:   g.Config.Memory.Window,
			Limit:    g.Config.Memory.Limit,
			Delay:    config.Seconds(g.Config.Memory.DelaySeconds),
			Progress: bar.Update,
		}, g.Clock, g.Tel)

		result, err := finder.Find(ctx, cpu, product)
		bar.Finish(err == nil)
		if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
			report.Memory(os.Stdout, cpu, product, result)
			return serviceutil.Exit(serviceutil.EXIT_STOPPED, err)
		}
		if err != nil {
			return err
		}

		report.Memory(os.Stdout, cpu, product, result)
		return nil
	},
}
