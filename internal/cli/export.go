package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
)

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export session results",
	Long: `Export the results of a session as JSON or CSV.

Examples:
  cubetimer export
  cubetimer export --format csv -o session.csv
  cubetimer export --session oh --format json`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Export format (json, csv)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: stdout)")
}

// exportedResult is the JSON shape of a result.
type exportedResult struct {
	ID          string `json:"id"`
	RawMs       int64  `json:"raw_ms"`
	Penalty     string `json:"penalty"`
	EffectiveMs *int64 `json:"effective_ms"` // null for DNF
	Display     string `json:"display"`
	Scramble    string `json:"scramble,omitempty"`
	RecordedAt  string `json:"recorded_at"`
}

type exportedSession struct {
	Session string           `json:"session"`
	Results []exportedResult `json:"results"`
	Stats   exportedStats    `json:"stats"`
}

type exportedStats struct {
	Count          int    `json:"count"`
	SessionAverage string `json:"session_average"`
	CurrentAo5     string `json:"current_ao5"`
	BestAo5        string `json:"best_ao5"`
	CurrentAo12    string `json:"current_ao12"`
	BestAo12       string `json:"best_ao12"`
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportFormat != "json" && exportFormat != "csv" {
		return fmt.Errorf("unknown format %q (use json or csv)", exportFormat)
	}

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

	var out io.Writer = os.Stdout
	if exportOutput != "" {
		f, err := os.Create(exportOutput)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	switch exportFormat {
	case "csv":
		err = writeCSV(out, results)
	default:
		err = writeJSON(out, store.Name(), results)
	}
	if err != nil {
		return err
	}

	if exportOutput != "" {
		fmt.Fprintf(os.Stderr, "Exported %d results to %s\n", len(results), exportOutput)
	}
	return nil
}

func toExported(r cubetimer.Result) exportedResult {
	e := exportedResult{
		ID:         r.ID,
		RawMs:      r.Raw.Millis(),
		Penalty:    r.Penalty.String(),
		Display:    r.String(),
		Scramble:   r.Scramble,
		RecordedAt: r.Timestamp.UTC().Format(time.RFC3339Nano),
	}
	if d, ok := r.Effective().Duration(); ok {
		ms := d.Millis()
		e.EffectiveMs = &ms
	}
	return e
}

func writeJSON(w io.Writer, session string, results []cubetimer.Result) error {
	stats := cubetimer.ComputeStats(results)
	doc := exportedSession{
		Session: session,
		Results: make([]exportedResult, 0, len(results)),
		Stats: exportedStats{
			Count:          stats.Count,
			SessionAverage: stats.SessionAverage.String(),
			CurrentAo5:     stats.CurrentAo5.String(),
			BestAo5:        stats.BestAo5.String(),
			CurrentAo12:    stats.CurrentAo12.String(),
			BestAo12:       stats.BestAo12.String(),
		},
	}
	for _, r := range results {
		doc.Results = append(doc.Results, toExported(r))
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func writeCSV(w io.Writer, results []cubetimer.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "raw_ms", "penalty", "effective_ms", "display", "scramble", "recorded_at"}); err != nil {
		return err
	}
	for _, r := range results {
		e := toExported(r)
		effective := ""
		if e.EffectiveMs != nil {
			effective = strconv.FormatInt(*e.EffectiveMs, 10)
		}
		row := []string{e.ID, strconv.FormatInt(e.RawMs, 10), e.Penalty, effective, e.Display, e.Scramble, e.RecordedAt}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
