package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer/internal/scramble"
)

var (
	scrambleCount   int
	scrambleLength  int
	scrambleSeed    uint64
	scramblePreview bool
)

var scrambleCmd = &cobra.Command{
	Use:   "scramble [moves...]",
	Short: "Generate or preview scrambles",
	Long: `Print random-move scrambles. Given moves, preview that scramble instead.

Examples:
  cubetimer scramble -n 5
  cubetimer scramble --preview
  cubetimer scramble "R U R' U'"`,
	RunE: runScramble,
}

func init() {
	rootCmd.AddCommand(scrambleCmd)
	scrambleCmd.Flags().IntVarP(&scrambleCount, "count", "n", 1, "Number of scrambles")
	scrambleCmd.Flags().IntVar(&scrambleLength, "length", scramble.DefaultLength, "Moves per scramble")
	scrambleCmd.Flags().Uint64Var(&scrambleSeed, "seed", 0, "Seed for reproducible scrambles")
	scrambleCmd.Flags().BoolVarP(&scramblePreview, "preview", "p", false, "Draw the scrambled cube")
}

func runScramble(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		seq, err := scramble.Parse(strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Println(seq)
		fmt.Println()
		fmt.Print(renderNet(scramble.Scrambled(seq)))
		return nil
	}

	opts := []scramble.GeneratorOption{scramble.WithLength(scrambleLength)}
	if cmd.Flags().Changed("seed") {
		opts = append(opts, scramble.WithSeed(scrambleSeed))
	}
	gen := scramble.NewGenerator(opts...)

	for i := 0; i < scrambleCount; i++ {
		seq := gen.Next()
		if scrambleCount > 1 {
			fmt.Printf("%3d. %s\n", i+1, seq)
		} else {
			fmt.Println(seq)
		}
		if scramblePreview {
			fmt.Println()
			fmt.Print(renderNet(scramble.Scrambled(seq)))
			fmt.Println()
		}
	}
	return nil
}

// stickerColors maps cube colors to terminal colors.
var stickerColors = map[scramble.Color]lipgloss.Color{
	scramble.White:  lipgloss.Color("15"),
	scramble.Yellow: lipgloss.Color("226"),
	scramble.Green:  lipgloss.Color("34"),
	scramble.Blue:   lipgloss.Color("27"),
	scramble.Red:    lipgloss.Color("196"),
	scramble.Orange: lipgloss.Color("208"),
}

// renderNet draws the cube net with colored stickers.
func renderNet(c *scramble.Cube) string {
	return c.Net(func(col scramble.Color) string {
		return lipgloss.NewStyle().Foreground(stickerColors[col]).Render("■ ")
	}, 2)
}
