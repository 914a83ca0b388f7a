// Package cli implements the command-line interface for cubetimer.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer/internal/config"
)

const version = "0.1.0"

var (
	// Global flags
	dbPath      string
	configPath  string
	sessionName string
	verbose     bool

	// Loaded in PersistentPreRunE
	fileCfg config.FileConfig
	logger  = zerolog.Nop()
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "cubetimer",
	Short: "Speedcubing timer",
	Long: `cubetimer - A terminal speedcubing timer with smart timer support.

Time solves with the keyboard or a Bluetooth smart timer, track penalties,
and follow your averages (ao5, ao12, session mean) across sessions.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newConsoleLogger(verbose)

		path := configPath
		if path == "" {
			path = config.DefaultConfigPath()
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			return err
		}
		fileCfg = cfg
		logger.Debug().Str("config", path).Msg("configuration loaded")
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database file path (default: $XDG_DATA_HOME/cubetimer/cubetimer.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/cubetimer/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&sessionName, "session", "s", "", "Session name (default: from config, else \"default\")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
}

func newConsoleLogger(debug bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}
