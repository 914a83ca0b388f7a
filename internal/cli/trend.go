package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/analysis"
)

var trendJSON bool

var trendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show progress over time",
	Long: `Show how a session has developed: improvement from the first to the last
quarter of solves, consistency, rolling averages and a per-day breakdown.`,
	RunE: runTrend,
}

func init() {
	rootCmd.AddCommand(trendCmd)
	trendCmd.Flags().BoolVar(&trendJSON, "json", false, "Output as JSON")
}

func runTrend(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	db, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := store.Load(ctx)
	if err != nil {
		return err
	}
	report := analysis.AnalyzeTrends(results)

	if trendJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	if report.TotalSolves == 0 {
		fmt.Printf("No results in session %q.\n", store.Name())
		return nil
	}
	fmt.Printf("Session: %s\n\n", store.Name())
	fmt.Println(renderTrend(report, time.Now()))
	return nil
}

func msString(ms int64) string {
	return cubetimer.Duration(ms).String()
}

func renderTrend(r *analysis.TrendReport, now time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s solves (%d DNF), %s to %s\n",
		humanize.Comma(int64(r.TotalSolves)), r.DNFCount,
		humanize.Time(r.DateRange.Start), humanize.RelTime(r.DateRange.End, now, "ago", "from now"))
	if r.CompletedSolves > 0 {
		fmt.Fprintf(&b, "mean %s  σ %s  best %s  worst %s\n",
			msString(int64(r.MeanMs+0.5)), msString(int64(r.StdDevMs+0.5)),
			msString(r.Best.EffectiveMs), msString(r.Worst.EffectiveMs))
	}
	fmt.Fprintf(&b, "improvement %+.1f%%  consistency %.0f/100\n\n", r.ImprovementPct, r.ConsistencyScore)

	avg := table.NewWriter()
	avg.SetStyle(table.StyleLight)
	avg.Style().Options.DrawBorder = false
	avg.AppendHeader(table.Row{"Average", "Current", "Best"})
	avg.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for _, n := range analysis.RollingWindows {
		best, ok := r.BestAverages[n]
		if !ok {
			continue
		}
		current := "DNF"
		if c, ok := r.CurrentAverages[n]; ok {
			current = msString(c)
		}
		avg.AppendRow(table.Row{fmt.Sprintf("ao%d", n), current, msString(best)})
	}
	if avg.Length() > 0 {
		b.WriteString(avg.Render())
		b.WriteString("\n\n")
	}

	days := table.NewWriter()
	days.SetStyle(table.StyleLight)
	days.Style().Options.DrawBorder = false
	days.AppendHeader(table.Row{"Day", "Solves", "DNF", "Mean", "Best"})
	days.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
	})
	for _, d := range r.Days {
		mean, best := "-", "-"
		if d.Solves > d.DNFs {
			mean, best = msString(int64(d.MeanMs+0.5)), msString(d.BestMs)
		}
		days.AppendRow(table.Row{d.Date, d.Solves, d.DNFs, mean, best})
	}
	b.WriteString(days.Render())
	return b.String()
}
