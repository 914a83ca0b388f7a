package cli

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/ble"
)

var scanDuration time.Duration

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan for smart timers",
	Long: `Scan for Bluetooth smart timers and list them by signal strength.
Devices can be filtered by name with device.name_prefixes in the config.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().DurationVarP(&scanDuration, "duration", "d", 5*time.Second, "How long to scan")
}

// newAdapter creates a BLE-backed adapter posting into events.
func newAdapter(events chan<- cubetimer.Event) (*cubetimer.Adapter, error) {
	transport, err := ble.NewTransport()
	if err != nil {
		return nil, fmt.Errorf("BLE not available: %w", err)
	}
	transport.SetLogger(logger)
	return cubetimer.NewAdapter(transport, events, libraryOptions()...), nil
}

func runScan(cmd *cobra.Command, args []string) error {
	events := make(chan cubetimer.Event, 16)
	adapter, err := newAdapter(events)
	if err != nil {
		return err
	}
	defer adapter.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), scanDuration)
	defer cancel()

	fmt.Printf("Scanning for smart timers (%s)...\n", scanDuration)
	updates, err := adapter.StartScan(ctx)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for dev := range updates {
		if !seen[dev.ID] {
			seen[dev.ID] = true
			fmt.Printf("Found: %s (%s)\n", displayName(dev), dev.ID)
		}
	}

	devices := adapter.Devices()
	if len(devices) == 0 {
		fmt.Println("No smart timers found.")
		fmt.Println()
		fmt.Println("To fix this:")
		fmt.Println("  1. Place your hands on the timer to wake it up")
		fmt.Println("  2. Make sure it's not connected to your phone")
		fmt.Println("  3. Run this command again")
		return nil
	}

	sort.SliceStable(devices, func(i, j int) bool { return devices[i].RSSI > devices[j].RSSI })
	fmt.Println()
	fmt.Println(renderDevices(devices))
	return nil
}

func renderDevices(devices []cubetimer.DiscoveredDevice) string {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"Name", "ID", "RSSI"})
	for _, d := range devices {
		tbl.AppendRow(table.Row{displayName(d), d.ID, fmt.Sprintf("%d dBm", d.RSSI)})
	}
	return tbl.Render()
}

func displayName(d cubetimer.DiscoveredDevice) string {
	if d.Name == "" {
		return "(unnamed)"
	}
	return d.Name
}

// scanForDevice scans until the wanted device (or, with an empty want, the
// first device) shows up, or ctx ends. The scan is stopped on return.
func scanForDevice(ctx context.Context, adapter *cubetimer.Adapter, want string) (cubetimer.DiscoveredDevice, error) {
	updates, err := adapter.StartScan(ctx)
	if err != nil {
		return cubetimer.DiscoveredDevice{}, err
	}
	defer adapter.StopScan()

	for dev := range updates {
		if want == "" || dev.ID == want {
			return dev, nil
		}
	}
	return cubetimer.DiscoveredDevice{}, cubetimer.ErrDeviceNotFound
}

// findTimer looks for the preferred device first and falls back to any
// timer, giving each search up to wait.
func findTimer(ctx context.Context, adapter *cubetimer.Adapter, preferred string, wait time.Duration) (cubetimer.DiscoveredDevice, error) {
	findCtx, cancel := context.WithTimeout(ctx, wait)
	dev, err := scanForDevice(findCtx, adapter, preferred)
	cancel()
	if err == nil || preferred == "" || ctx.Err() != nil {
		return dev, err
	}

	logger.Debug().Str("device_id", preferred).Msg("preferred device not found, taking any timer")
	findCtx, cancel = context.WithTimeout(ctx, wait)
	defer cancel()
	return scanForDevice(findCtx, adapter, "")
}
