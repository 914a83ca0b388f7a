// BLE Raw Data Debug - lists a smart timer's GATT layout and dumps raw frames
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"tinygo.org/x/bluetooth"

	"github.com/SeamusWaldron/cubetimer/internal/protocol"
)

func main() {
	prefix := flag.String("prefix", "gan", "advertised name prefix to look for")
	timeout := flag.Duration("timeout", 120*time.Second, "how long to listen")
	flag.Parse()

	fmt.Println("BLE Raw Data Debug (Smart Timer)")
	fmt.Println("================================")
	fmt.Println()

	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		fmt.Printf("Failed to enable adapter: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Scanning for devices named %q...\n", *prefix+"*")

	var targetAddr bluetooth.Address
	var targetName string
	found := make(chan struct{})
	var foundOnce sync.Once

	go func() {
		adapter.Scan(func(adapter *bluetooth.Adapter, result bluetooth.ScanResult) {
			name := result.LocalName()
			if strings.HasPrefix(strings.ToLower(name), strings.ToLower(*prefix)) {
				foundOnce.Do(func() {
					targetAddr = result.Address
					targetName = name
					close(found)
				})
			}
		})
	}()

	select {
	case <-found:
		adapter.StopScan()
	case <-time.After(10 * time.Second):
		adapter.StopScan()
		fmt.Println("No smart timer found")
		os.Exit(1)
	}

	// Give time for StopScan to take effect
	time.Sleep(100 * time.Millisecond)

	fmt.Printf("Found: %s (%s)\n", targetName, targetAddr.String())
	fmt.Println("Connecting...")
	device, err := adapter.Connect(targetAddr, bluetooth.ConnectionParams{})
	if err != nil {
		fmt.Printf("Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer device.Disconnect()
	fmt.Println("Connected!")
	fmt.Println()

	services, err := device.DiscoverServices(nil)
	if err != nil {
		fmt.Printf("Failed to discover services: %v\n", err)
		return
	}

	fmt.Printf("Found %d services:\n", len(services))
	var stateChar *bluetooth.DeviceCharacteristic
	for _, svc := range services {
		fmt.Printf("  %s\n", svc.UUID().String())

		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			fmt.Printf("    (characteristics unavailable: %v)\n", err)
			continue
		}
		for i := range chars {
			uuid := strings.ToLower(chars[i].UUID().String())
			note := ""
			switch uuid {
			case protocol.StateCharUUID:
				note = "  <- state (notify)"
				stateChar = &chars[i]
			case protocol.TimeCharUUID:
				note = "  <- stored times (read)"
			}
			fmt.Printf("    %s%s\n", uuid, note)
		}
	}
	fmt.Println()

	if stateChar == nil {
		fmt.Println("State characteristic not found!")
		return
	}

	start := time.Now()
	err = stateChar.EnableNotifications(func(data []byte) {
		fmt.Printf("[%8.3fs] %x\n", time.Since(start).Seconds(), data)

		ev, err := protocol.Decode(data)
		if err != nil {
			fmt.Printf("           decode error: %v\n", err)
			return
		}
		if ev.State == protocol.StateStopped {
			fmt.Printf("           %s %s\n", ev.State, ev.Recorded)
		} else {
			fmt.Printf("           %s\n", ev.State)
		}
	})
	if err != nil {
		fmt.Printf("Failed to enable notifications: %v\n", err)
		return
	}

	fmt.Println("Place your hands on the timer to see frames...")
	fmt.Println("Press Ctrl+C to exit")
	fmt.Println()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	select {
	case <-sigChan:
		fmt.Println("\nDisconnecting...")
	case <-ctx.Done():
		fmt.Println("\nTimeout, disconnecting...")
	}
}
