// Package cubetimer is the core of a speedcubing timer: the timing state
// machine, penalties and results, session statistics, and an adapter that
// drives the timer from a Bluetooth smart timer.
//
// # Features
//
//   - Hold-to-arm start with ready lights and optional inspection
//   - +2 and DNF penalties with competition-style averages (ao5, ao12)
//   - Single-goroutine sessions safe to drive from UI and device events
//   - Smart timer discovery and connection; the timer's own measured time
//     is recorded
//   - Fake clocks for deterministic tests
//
// # Quick Start
//
// Run a session and feed it inputs from the keyboard:
//
//	session := cubetimer.NewSession(nil)
//	go session.Run(ctx)
//
//	session.Post(ctx, cubetimer.ReadyHold())
//	// ... after the hold threshold
//	session.Post(ctx, cubetimer.Release())
//	// ... solve
//	session.Post(ctx, cubetimer.Stop())
//
//	st := session.State()
//	fmt.Println("ao5:", st.Stats.CurrentAo5)
//
// # Smart Timers
//
// An Adapter posts the timer's state changes into the same session:
//
//	adapter := cubetimer.NewAdapter(transport, session.Inbox())
//	defer adapter.Close()
//
//	devices, _ := adapter.StartScan(ctx)
//	dev := <-devices
//	err := adapter.Connect(ctx, dev.ID)
//
// Connection changes are reported through Session.OnDeviceStatus.
//
// # Statistics
//
// Averages drop the single best and worst attempt and take the mean of the
// rest. A DNF counts as the worst attempt; two DNFs make the average a DNF.
// Statistics are recomputed from the result log after every change, so
// editing a penalty or deleting a result is always reflected.
package cubetimer
