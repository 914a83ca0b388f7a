package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/storage"
)

var (
	listLimit    int
	listSessions bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List results of a session",
	Long: `List the recorded results of the current session, newest last.

Examples:
  cubetimer list
  cubetimer list -n 50 --session oh
  cubetimer list --sessions`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 25, "Show at most this many recent results (0 = all)")
	listCmd.Flags().BoolVar(&listSessions, "sessions", false, "List sessions instead of results")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if listSessions {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		sessions, err := storage.NewResultRepository(db).Sessions(ctx)
		if err != nil {
			return err
		}
		fmt.Println(renderSessions(sessions, time.Now()))
		return nil
	}

	db, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := store.Load(ctx)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		fmt.Printf("No results in session %q.\n", store.Name())
		return nil
	}

	fmt.Println(renderResults(results, listLimit, time.Now()))
	return nil
}

// renderResults renders the trailing limit results with their rolling ao5.
func renderResults(results []cubetimer.Result, limit int, now time.Time) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"#", "Time", "Penalty", "ao5", "ID", "When", "Scramble"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})

	start := 0
	if limit > 0 && len(results) > limit {
		start = len(results) - limit
	}
	for i := start; i < len(results); i++ {
		r := results[i]
		ao5 := "-"
		if avg, ok := cubetimer.CurrentAo5(results[:i+1]); ok {
			ao5 = avg.String()
		}
		penalty := ""
		if r.Penalty != cubetimer.PenaltyNone {
			penalty = r.Penalty.String()
		}
		tbl.AppendRow(table.Row{
			i + 1,
			r.String(),
			penalty,
			ao5,
			shortID(r.ID),
			humanize.RelTime(r.Timestamp, now, "ago", "from now"),
			r.Scramble,
		})
	}
	tbl.AppendFooter(table.Row{"", fmt.Sprintf("%d results", len(results))})
	return tbl.Render()
}

func renderSessions(sessions []storage.SessionInfo, now time.Time) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Session", "Results", "Created"})
	for _, s := range sessions {
		tbl.AppendRow(table.Row{s.Name, humanize.Comma(int64(s.Count)), humanize.RelTime(s.CreatedAt, now, "ago", "from now")})
	}
	return tbl.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
