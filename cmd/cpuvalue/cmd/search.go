package cmd

import (
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/config"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/report"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"cpuvalue/pkg/serviceutil"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var searchFlags struct {
	mode             string
	refresh          bool
	refine           bool
	bypassCloudflare bool
	notify           bool
	limit            int
}

func init() {
	flags := searchCmd.Flags()
	flags.StringVar(&searchFlags.mode, "mode", string(pipeline.MODE_AUTO), "auto, fresh, resume or report")
	flags.BoolVar(&searchFlags.refresh, "refresh", false, "fetch the benchmark catalog even when it is cached")
	flags.BoolVar(&searchFlags.refine, "refine", false, "look up the single-socket hashrate of every candidate")
	flags.BoolVar(&searchFlags.bypassCloudflare, "bypass-cloudflare", false, "send search requests through the cloudflare bypass transport")
	flags.BoolVar(&searchFlags.notify, "notify", false, "mail the ranking once the search is done")
	flags.IntVar(&searchFlags.limit, "limit", 0, "number of ranked processors to print, 0 prints all of them")
	rootCmd.AddCommand(searchCmd)
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search prices for every candidate processor and rank them by value.",
	Long: `Search prices for every candidate processor and rank them by value.

A rate limited or interrupted search writes a checkpoint and exits with code 2,
running the command again resumes from the checkpoint.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		g := globals.Get(ctx)

		err := g.Config.Override(config.Config{
			Refine: config.RefineConfig{Enabled: searchFlags.refine},
			Search: config.SearchConfig{BypassCloudflare: searchFlags.bypassCloudflare},
		})
		if err != nil {
			return err
		}

		requested, err := pipeline.ParseMode(searchFlags.mode)
		if err != nil {
			return err
		}
		store := pipeline.NewStore(g.Config.StateDir, g.Tel)
		mode, err := pipeline.ResolveMode(requested, store)
		if err != nil {
			return err
		}
		slog.Info("resolved search mode", "requested", requested, "mode", mode)

		var state pipeline.State
		switch mode {
		case pipeline.MODE_REPORT:
			state, err = store.LoadResults()
			if err != nil {
				return err
			}
			return renderResults(ctx, os.Stdout, g, state, searchFlags.limit, searchFlags.notify)
		case pipeline.MODE_RESUME:
			state, err = store.LoadCheckpoint()
			if err != nil {
				return err
			}
			slog.Info("resuming from checkpoint", "done", len(state.Archive), "candidates", len(state.Candidates))
		case pipeline.MODE_FRESH:
			candidates, err := loadCandidates(ctx, g, searchFlags.refresh)
			if err != nil {
				return err
			}
			err = store.DeleteCheckpoint()
			if err != nil {
				return err
			}
			state = pipeline.NewState(candidates)
		}

		var recorder pipeline.Recorder
		historyStore, database, err := openHistory(g)
		if err != nil {
			return fmt.Errorf("open price history: %w", err)
		}
		if database != nil {
			defer database.Close()
			run, err := historyStore.StartRun(ctx)
			if err != nil {
				return fmt.Errorf("start price history run: %w", err)
			}
			slog.Info("recording prices", "run", run.ID())
			recorder = run
		}

		searchOpts := g.Config.SearchOptions()
		searchOpts.HttpOutput = g.HttpOutput
		engine := search.NewEngine(searchOpts, g.Clock, g.Tel)
		classifier := vendors.NewClassifier(g.Config.Vendors.Approved, g.Config.Vendors.Unverified)

		bar := newProgressBar("Searching for prices", len(state.Candidates))
		bar.Update(len(state.Archive), len(state.Candidates))
		opts := pipeline.Options{
			Recorder: recorder,
			Progress: bar.Update,
		}

		orchestrator := pipeline.NewOrchestrator(engine, classifier, store, opts, g.Tel)
		outcome, err := orchestrator.Run(ctx, state)
		bar.Finish(err == nil && outcome.Status == pipeline.STATUS_DONE)
		if err != nil {
			return err
		}

		if outcome.Status != pipeline.STATUS_DONE {
			return serviceutil.Exit(
				serviceutil.EXIT_STOPPED,
				fmt.Errorf("%s: %w", report.Summary(outcome), outcome.Cause),
			)
		}

		slog.Info(report.Summary(outcome))
		return renderResults(ctx, os.Stdout, g, outcome.State, searchFlags.limit, searchFlags.notify)
	},
}
