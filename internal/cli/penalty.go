package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
)

var penaltyCmd = &cobra.Command{
	Use:   "penalty <result> <none|+2|dnf>",
	Short: "Set the penalty of a result",
	Long: `Set or clear the penalty of a recorded result. The result is referenced
by id (or a unique prefix of at least 4 characters), "last", or -N for the
Nth most recent result.

Examples:
  cubetimer penalty last +2
  cubetimer penalty -3 dnf
  cubetimer penalty 3f2a9c none`,
	Args: cobra.ExactArgs(2),
	RunE: runPenalty,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <result>",
	Short: "Delete a result",
	Long:  `Delete a recorded result. The result is referenced like in 'penalty'.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	rootCmd.AddCommand(penaltyCmd)
	rootCmd.AddCommand(deleteCmd)
}

// editSession loads the session into a machine writing through to storage
// and applies fn to the referenced result.
func editSession(cmd *cobra.Command, ref string, fn func(m *cubetimer.Machine, id string) (cubetimer.Result, error)) (cubetimer.Result, cubetimer.StatsSnapshot, error) {
	ctx := cmd.Context()
	db, store, err := openStore(ctx)
	if err != nil {
		return cubetimer.Result{}, cubetimer.StatsSnapshot{}, err
	}
	defer db.Close()

	results, err := store.Load(ctx)
	if err != nil {
		return cubetimer.Result{}, cubetimer.StatsSnapshot{}, err
	}
	id, err := resolveResultID(results, ref)
	if err != nil {
		return cubetimer.Result{}, cubetimer.StatsSnapshot{}, err
	}

	m := cubetimer.NewMachine(results, libraryOptions(cubetimer.WithPersister(store))...)
	r, err := fn(m, id)
	if err != nil {
		return cubetimer.Result{}, cubetimer.StatsSnapshot{}, err
	}
	return r, m.Stats(), nil
}

func runPenalty(cmd *cobra.Command, args []string) error {
	p, err := cubetimer.ParsePenalty(args[1])
	if err != nil {
		return err
	}

	r, stats, err := editSession(cmd, args[0], func(m *cubetimer.Machine, id string) (cubetimer.Result, error) {
		return m.SetPenalty(id, p)
	})
	if err != nil {
		return err
	}

	fmt.Printf("%s is now %s\n", shortID(r.ID), r)
	fmt.Printf("ao5: %s  ao12: %s  mean: %s\n", stats.CurrentAo5, stats.CurrentAo12, stats.SessionAverage)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	r, stats, err := editSession(cmd, args[0], func(m *cubetimer.Machine, id string) (cubetimer.Result, error) {
		return m.Delete(id)
	})
	if err != nil {
		return err
	}

	fmt.Printf("Deleted %s (%s)\n", shortID(r.ID), r)
	fmt.Printf("ao5: %s  ao12: %s  mean: %s\n", stats.CurrentAo5, stats.CurrentAo12, stats.SessionAverage)
	return nil
}
