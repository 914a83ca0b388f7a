package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/config"
	"github.com/SeamusWaldron/cubetimer/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show configuration, storage and device information",
	Long:  `Display the configuration in effect, the database and its sessions, and the last connected smart timer.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	now := time.Now()

	fmt.Println("cubetimer status")
	fmt.Println("================")
	fmt.Println()

	cfgPath := configPath
	if cfgPath == "" {
		cfgPath = config.DefaultConfigPath()
	}
	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config:   %s\n", cfgPath)
	} else {
		fmt.Printf("Config:   %s (not found, using defaults)\n", cfgPath)
	}

	path := getDBPath()
	fmt.Printf("Database: %s", path)
	if info, err := os.Stat(path); err == nil {
		fmt.Printf(" (%s)", humanize.Bytes(uint64(info.Size())))
	}
	fmt.Println()
	fmt.Printf("Session:  %s\n", getSessionName())
	fmt.Println()

	db, err := openDB()
	if err != nil {
		fmt.Printf("Database error: %v\n", err)
	} else {
		defer db.Close()
		if v, err := db.CurrentVersion(); err == nil {
			fmt.Printf("Schema version: %d\n", v)
		}

		repo := storage.NewResultRepository(db)
		sessions, err := repo.Sessions(ctx)
		if err == nil && len(sessions) > 0 {
			fmt.Println()
			fmt.Println(renderSessions(sessions, now))
		}

		results, err := repo.List(ctx, getSessionName())
		if err == nil && len(results) > 0 {
			last := results[len(results)-1]
			stats := cubetimer.ComputeStats(results)
			fmt.Println()
			fmt.Printf("Last solve: %s (%s)\n", last, humanize.Time(last.Timestamp))
			fmt.Printf("ao5: %s  ao12: %s  mean: %s\n", stats.CurrentAo5, stats.CurrentAo12, stats.SessionAverage)
		}
	}

	fmt.Println()
	sf, err := loadStateFile()
	if err != nil {
		fmt.Printf("State error: %v\n", err)
		return nil
	}
	state := sf.State()
	if state.LastDeviceID != "" {
		fmt.Printf("Last device: %s (%s)\n", state.LastDeviceName, state.LastDeviceID)
	} else {
		fmt.Println("Last device: none (run 'cubetimer scan')")
	}
	if fileCfg.AutoConnect() {
		fmt.Println("Auto-connect: on")
	}

	return nil
}
