package report

import (
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/history"
	"cpuvalue/internal/memsearch"
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/ranking"
	"cpuvalue/internal/search"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func NewTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	if out != nil {
		t.SetOutputMirror(out)
	}
	return t
}

func FormatPrice(price int) string {
	if price == search.PriceUnparsable {
		return "N/A"
	}
	return "$" + strconv.Itoa(price)
}

func formatHashrate(hashrate float64) string {
	return strconv.FormatFloat(hashrate, 'f', 0, 64)
}

var rightAligned = []table.ColumnConfig{
	{Name: "Price", Align: text.AlignRight},
	{Name: "Hashrate", Align: text.AlignRight},
	{Name: "Per Unit", Align: text.AlignRight},
	{Name: "Samples", Align: text.AlignRight},
	{Name: "Score", Align: text.AlignRight},
}

// Archive renders the vendor options found for every candidate, approved
// listings first.
func Archive(out io.Writer, records []pipeline.Record) {
	t := NewTable(out)
	t.SetColumnConfigs(rightAligned)
	t.AppendHeader(table.Row{"Rank", "CPU", "Hashrate", "Tier", "Price", "Source", "Title"})

	for i, record := range records {
		if i > 0 {
			t.AppendSeparator()
		}
		c := record.Candidate
		head := table.Row{c.Rank, c.Name, formatHashrate(c.EffectiveHashrate())}

		tiers := []struct {
			name     string
			listings []search.Listing
		}{
			{"approved", record.Approved},
			{"unverified", record.Unverified},
			{"unknown", record.Unknown},
		}
		rows := 0
		for _, tier := range tiers {
			for _, l := range tier.listings {
				row := table.Row{"", "", ""}
				if rows == 0 {
					row = head
				}
				t.AppendRow(append(row, tier.name, FormatPrice(l.Price), l.Source, l.Title))
				rows++
			}
		}
		if rows == 0 {
			t.AppendRow(append(head, "-", "-", "-", "no listings"))
		}
	}

	t.SetCaption("%d processors", len(records))
	t.Render()
}

// Ranking renders the value ranking, `limit` <= 0 renders every entry.
func Ranking(out io.Writer, entries []ranking.Entry, limit int) {
	RankingTable(out, entries, limit).Render()
}

func RankingTable(out io.Writer, entries []ranking.Entry, limit int) table.Writer {
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	t := NewTable(out)
	t.SetColumnConfigs(rightAligned)
	t.AppendHeader(table.Row{"#", "CPU", "Score", "Hashrate", "Price", "Source", "Link"})
	for i, e := range entries {
		t.AppendRow(table.Row{
			i + 1,
			e.Name,
			strconv.FormatFloat(e.Score, 'f', 3, 64),
			formatHashrate(e.Hashrate),
			FormatPrice(e.Price),
			e.Source,
			e.Link,
		})
	}
	t.SetCaption("Higher score is better, score = hashrate / price")
	return t
}

func Candidates(out io.Writer, candidates []catalog.Candidate, policy catalog.Policy) {
	t := NewTable(out)
	t.SetColumnConfigs(rightAligned)
	t.AppendHeader(table.Row{"Rank", "CPU", "Hashrate", "Per Unit", "Samples"})
	for _, c := range candidates {
		perUnit := "-"
		if c.PerUnitHashrate != nil {
			perUnit = formatHashrate(*c.PerUnitHashrate)
		} else if c.Unrefined {
			perUnit = "unrefined"
		}
		t.AppendRow(table.Row{c.Rank, c.Name, formatHashrate(c.Hashrate), perUnit, c.Samples})
	}
	t.SetCaption(
		"%d processors, hashrate %s-%s, samples >= %d",
		len(candidates),
		formatHashrate(policy.HashrateMin),
		formatHashrate(policy.HashrateMax),
		policy.MinSamples,
	)
	t.Render()
}

func History(out io.Writer, cpu string, observations []history.Observation) {
	t := NewTable(out)
	t.SetColumnConfigs(rightAligned)
	t.SetTitle(cpu)
	t.AppendHeader(table.Row{"Date", "Run", "Tier", "Price", "Source", "Title"})
	for _, o := range observations {
		t.AppendRow(table.Row{
			o.Observed.Format(time.DateTime),
			o.RunID,
			o.Tier,
			FormatPrice(o.Listing.Price),
			o.Listing.Source,
			o.Listing.Title,
		})
	}
	t.SetCaption("%d observations", len(observations))
	t.Render()
}

func Runs(out io.Writer, runs []history.Run) {
	t := NewTable(out)
	t.AppendHeader(table.Row{"Run", "Started", "Observations"})
	for _, r := range runs {
		t.AppendRow(table.Row{r.ID, r.Started.Format(time.DateTime), r.Observations})
	}
	t.Render()
}

func Memory(out io.Writer, cpu, product string, result memsearch.Result) {
	t := NewTable(out)
	t.SetColumnConfigs(rightAligned)
	t.SetTitle("%s with %s", cpu, product)
	t.AppendHeader(table.Row{"#", "Benchmark", "Hashrate", "Manufacturer", "Speed", "Link"})
	for i, m := range result.Matches {
		t.AppendRow(table.Row{
			i + 1,
			m.Benchmark.ID,
			formatHashrate(m.Benchmark.Hashrate),
			m.Module.Manufacturer,
			m.Module.Speed,
			"https://xmrig.com/benchmark/" + m.Benchmark.ID,
		})
	}
	t.SetCaption(
		"%d matches in %d benchmarks, %d without inventory, %d failed",
		result.Total, result.Inspected, result.NoInventory, len(result.Failed),
	)
	t.Render()
}

// Summary is a one line description of how a search run ended.
func Summary(outcome pipeline.Outcome) string {
	state := outcome.State
	switch outcome.Status {
	case pipeline.STATUS_DONE:
		return fmt.Sprintf("searched %d processors", len(state.Candidates))
	default:
		return fmt.Sprintf(
			"%s after %d of %d processors, run again to resume",
			outcome.Status, len(state.Archive), len(state.Candidates),
		)
	}
}
