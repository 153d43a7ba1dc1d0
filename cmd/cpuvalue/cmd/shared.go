package cmd

import (
	"context"
	"cpuvalue/cmd/cpuvalue/globals"
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/config"
	"cpuvalue/internal/history"
	"cpuvalue/internal/notify"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/ranking"
	"cpuvalue/internal/refine"
	"cpuvalue/internal/report"
	"cpuvalue/internal/xmrig"
	"cpuvalue/pkg/serviceutil"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

func loadRows(ctx context.Context, g *globals.Value, refresh bool) ([]catalog.Row, error) {
	loader := catalog.NewLoader(g.Xmrig, g.Config.Catalog.CacheFile, g.Tel)
	return loader.Load(ctx, refresh)
}

// loadCandidates loads and filters the catalog, refining the candidates
// when enabled.
func loadCandidates(ctx context.Context, g *globals.Value, refresh bool) ([]catalog.Candidate, error) {
	rows, err := loadRows(ctx, g, refresh)
	if err != nil {
		return nil, err
	}

	candidates, invalid := catalog.Filter(rows, g.Config.Filter)
	for _, err := range invalid {
		g.Tel.ReportWarning("catalog.filter", err)
	}
	slog.Info("filtered catalog", "rows", len(rows), "candidates", len(candidates))

	if !g.Config.Refine.Enabled || len(candidates) == 0 {
		return candidates, nil
	}

	bar := newProgressBar("Refining hashrates", len(candidates))
	refiner := refine.NewRefiner(
		progressSource{inner: g.Xmrig, bar: bar},
		config.Seconds(g.Config.Refine.DelaySeconds),
		g.Clock,
		g.Tel,
	)
	refined, failures, err := refiner.Refine(ctx, candidates)
	bar.Finish(err == nil && len(failures) == 0)
	if err != nil {
		// nothing was persisted yet, rerunning starts over
		return nil, serviceutil.Exit(serviceutil.EXIT_STOPPED, err)
	}
	if len(failures) > 0 {
		slog.Warn("some candidates could not be refined", "failed", len(failures), "candidates", len(candidates))
	}
	return refined, nil
}

// openHistory opens the configured price history, it returns a nil
// database when no history is configured.
func openHistory(g *globals.Value) (history.Store, *sql.DB, error) {
	if !g.Config.History.Enabled() {
		return history.Store{}, nil, nil
	}
	path, err := g.Config.History.Path()
	if err != nil {
		return history.Store{}, nil, err
	}
	database, err := history.Open(path)
	if err != nil {
		return history.Store{}, nil, err
	}
	return history.NewStore(database, g.Clock, g.Tel), database, nil
}

// renderResults prints the vendor options of every candidate followed by
// the value ranking, the ranking is mailed when `mail` is set.
func renderResults(ctx context.Context, out io.Writer, g *globals.Value, state pipeline.State, limit int, mail bool) error {
	report.Archive(out, state.Archive)
	fmt.Fprintln(out)

	entries := ranking.Rank(state.Archive, g.Config.Vendors.Exclusive)
	if limit <= 0 {
		limit = g.Config.RankingLimit
	}
	report.Ranking(out, entries, limit)
	skipped := len(state.Archive) - len(entries)
	if skipped > 0 {
		slog.Info("processors without an exclusive vendor were left out of the ranking", "count", skipped)
	}

	if !mail {
		return nil
	}
	if !g.Config.Notify.Enabled() {
		return fmt.Errorf("cannot mail the ranking: notify.smtp and notify.to are not configured")
	}
	return notify.NewNotifier(g.Config.Notify, g.Tel).SendRanking(ctx, entries)
}

type progressBar struct {
	writer  progress.Writer
	tracker *progress.Tracker
}

func newProgressBar(message string, total int) *progressBar {
	writer := progress.NewWriter()
	writer.SetOutputWriter(os.Stderr)
	writer.SetAutoStop(false)
	writer.SetTrackerLength(30)
	writer.SetMessageLength(28)
	writer.SetUpdateFrequency(time.Millisecond * 250)
	writer.SetStyle(progress.StyleDefault)
	writer.Style().Visibility.ETA = true

	tracker := &progress.Tracker{
		Message: message,
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	writer.AppendTracker(tracker)
	go writer.Render()

	return &progressBar{writer: writer, tracker: tracker}
}

func (p *progressBar) Update(done, total int) {
	p.tracker.UpdateTotal(int64(total))
	p.tracker.SetValue(int64(done))
}

func (p *progressBar) Increment() {
	p.tracker.Increment(1)
}

func (p *progressBar) Finish(ok bool) {
	if ok {
		p.tracker.MarkAsDone()
	} else {
		p.tracker.MarkAsErrored()
	}
	// let the writer draw the final state before stopping it
	time.Sleep(time.Millisecond * 300)
	p.writer.Stop()
	for p.writer.IsRenderInProgress() {
		time.Sleep(time.Millisecond * 50)
	}
}

// progressSource advances a progress bar on every refine lookup.
type progressSource struct {
	inner refine.Source
	bar   *progressBar
}

func (s progressSource) CPUBenchmarks(ctx context.Context, cpu string) ([]xmrig.Benchmark, error) {
	defer s.bar.Increment()
	return s.inner.CPUBenchmarks(ctx, cpu)
}
