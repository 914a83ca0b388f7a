package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show session statistics",
	Long:  `Show the current and best averages, session mean and best and worst singles of a session.`,
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
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

	fmt.Printf("Session: %s\n\n", store.Name())
	fmt.Println(renderStats(results))
	return nil
}

func renderStats(results []cubetimer.Result) string {
	s := cubetimer.ComputeStats(results)
	last := "-"
	if len(results) > 0 {
		last = results[len(results)-1].String()
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.AppendHeader(table.Row{"Statistic", "Current", "Best"})
	tbl.AppendRows([]table.Row{
		{"single", last, s.BestSingle},
		{"ao5", s.CurrentAo5, s.BestAo5},
		{"ao12", s.CurrentAo12, s.BestAo12},
		{"mean", s.SessionAverage, ""},
		{"worst", s.WorstSingle, ""},
		{"count", s.Count, ""},
	})
	return tbl.Render()
}
