package report

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"go.viam.com/ptsp/motionplan/tourplanning"
)

// SummaryTable renders the counters and leg time statistics of a run as a text table.
func SummaryTable(sum *tourplanning.Summary) string {
	t := table.NewWriter()
	t.SetTitle("Run " + sum.RunID.String())
	t.AppendHeader(table.Row{"Metric", "Value"})
	if sum.Found() {
		t.AppendRow(table.Row{"Best time", fmt.Sprintf("%.4f", sum.BestTime)})
		t.AppendRow(table.Row{"Ordering", formatOrdering(sum.Ordering)})
	} else {
		t.AppendRow(table.Row{"Best time", "no tour found"})
	}
	t.AppendRow(table.Row{"Orderings tried", sum.Orderings})
	t.AppendSeparator()
	t.AppendRow(table.Row{"Cached leg lists", sum.CachedLegLists})
	t.AppendRow(table.Row{"Cached failed legs", sum.CachedFailures})
	t.AppendRow(table.Row{"Legs tested", sum.LegsTested})
	t.AppendRow(table.Row{"Legs reused", sum.LegsReused})
	t.AppendRow(table.Row{"Legs skipped", sum.LegsSkipped})
	t.AppendRow(table.Row{"Successful DIRT runs", sum.Successes})
	t.AppendRow(table.Row{"Failed DIRT runs", sum.Failures})
	if legStats, err := sum.LegTimeStats(); err == nil {
		t.AppendSeparator()
		t.AppendRow(table.Row{"Leg time mean", fmt.Sprintf("%.4f", legStats.Mean)})
		t.AppendRow(table.Row{"Leg time median", fmt.Sprintf("%.4f", legStats.Median)})
		t.AppendRow(table.Row{"Leg time max", fmt.Sprintf("%.4f", legStats.Max)})
	}
	t.AppendSeparator()
	t.AppendRow(table.Row{"Runtime", sum.Runtime.String()})
	return t.Render()
}

func formatOrdering(ordering []int) string {
	parts := make([]string, 0, len(ordering))
	for _, k := range ordering {
		parts = append(parts, fmt.Sprint(k))
	}
	return strings.Join(parts, " -> ")
}
