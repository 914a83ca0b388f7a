package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/ble"
	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor [device-id]",
	Short: "Print raw smart timer events",
	Long: `Connect to a smart timer and print every decoded state notification
together with the timer input it translates to. Without a device id the
last connected device is used, else the first one found.

Press Ctrl+C to stop.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	transport, err := ble.NewTransport()
	if err != nil {
		return fmt.Errorf("BLE not available: %w", err)
	}
	transport.SetLogger(logger)

	want := ""
	if len(args) > 0 {
		want = args[0]
	} else if sf, err := loadStateFile(); err == nil {
		want = sf.State().LastDeviceID
	}

	// discovery only; frames are read straight off the link below
	adapter := cubetimer.NewAdapter(transport, make(chan cubetimer.Event, 16), libraryOptions()...)
	defer adapter.Close()

	dev, err := findTimer(ctx, adapter, want, 10*time.Second)
	if err != nil {
		return fmt.Errorf("no smart timer found: %w", err)
	}

	fmt.Printf("Connecting to %s (%s)...\n", displayName(dev), dev.ID)
	connectCtx, cancel := context.WithTimeout(ctx, cubetimer.DefaultConnectTimeout)
	link, err := transport.Connect(connectCtx, dev.ID)
	cancel()
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer link.Disconnect()
	fmt.Println("Connected. Waiting for events...")

	start := time.Now()
	for {
		select {
		case <-ctx.Done():
			return nil
		case frame, ok := <-link.Notifications():
			if !ok {
				return cubetimer.ErrLinkLost
			}
			fmt.Println(describeFrame(frame, time.Since(start)))
		}
	}
}

func describeFrame(frame []byte, at time.Duration) string {
	stamp := fmt.Sprintf("[%8.3fs]", at.Seconds())
	ev, err := protocol.Decode(frame)
	if err != nil {
		return fmt.Sprintf("%s %x  error: %v", stamp, frame, err)
	}

	line := fmt.Sprintf("%s %-10s", stamp, ev.State)
	if ev.State == protocol.StateStopped {
		line += " " + cubetimer.DurationOf(ev.Recorded).String()
	}
	if in, ok := cubetimer.Translate(ev); ok {
		line += "  -> " + in.Kind.String()
	}
	if verbose {
		line += "  " + ev.Raw
	}
	return line
}
