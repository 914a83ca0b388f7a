package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/SeamusWaldron/cubetimer"
	"github.com/SeamusWaldron/cubetimer/internal/config"
	"github.com/SeamusWaldron/cubetimer/internal/scramble"
)

var (
	timerNoScramble bool
	timerConnect    bool
)

var timerCmd = &cobra.Command{
	Use:   "timer",
	Short: "Interactive timer",
	Long: `Start the interactive timer. Results are saved to the current session
as they are recorded.

Keyboard shortcuts:
  SPACE   - Hold (lights turn red), press again to release and start once
            the lights are green; during inspection SPACE starts the solve
  any key - Stop a running solve
  Esc     - Abort inspection or a running solve, or cancel a hold
  2/d/n   - Set +2 / DNF / no penalty on the last result
  x       - Delete the last result
  u       - Undo the last delete
  s       - New scramble
  p       - Show or hide the scrambled cube
  c       - Connect to a smart timer
  q       - Quit

With a smart timer connected, place and lift your hands on the timer as
usual; the timer's own measurement is recorded.`,
	RunE: runTimer,
}

func init() {
	rootCmd.AddCommand(timerCmd)
	timerCmd.Flags().BoolVar(&timerNoScramble, "no-scramble", false, "Do not generate scrambles")
	timerCmd.Flags().BoolVarP(&timerConnect, "connect", "c", false, "Connect to a smart timer on start")
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	scrambleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	timeStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(1, 4)

	inspectStyle = timeStyle.
			Foreground(lipgloss.Color("214"))

	notReadyStyle = timeStyle.
			Foreground(lipgloss.Color("196"))

	readyStyle = timeStyle.
			Foreground(lipgloss.Color("82"))

	statStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Messages
type tickMsg time.Time
type deviceStatusMsg cubetimer.DeviceStatus
type connectDoneMsg struct{ err error }
type editDoneMsg struct {
	verb   string
	result cubetimer.Result
	err    error
}

// Model
type timerModel struct {
	ctx       context.Context
	clock     clockwork.Clock
	session   *cubetimer.Session
	adapter   *cubetimer.Adapter // nil without Bluetooth
	bleErr    error
	scrambler *scramble.Generator // nil with --no-scramble
	stateFile *config.StateFile
	deviceCh  chan cubetimer.DeviceStatus

	state           cubetimer.State
	scramblePending bool
	connecting      bool
	autoConnect     bool
	showPreview     bool

	message  string
	err      error
	width    int
	quitting bool
}

func newTimerModel(ctx context.Context, session *cubetimer.Session, adapter *cubetimer.Adapter, bleErr error, stateFile *config.StateFile) *timerModel {
	m := &timerModel{
		ctx:       ctx,
		clock:     clockwork.NewRealClock(),
		session:   session,
		adapter:   adapter,
		bleErr:    bleErr,
		stateFile: stateFile,
		deviceCh:  make(chan cubetimer.DeviceStatus, 8),
		state:     session.State(),
	}
	if !timerNoScramble {
		m.scrambler = scramble.NewGenerator()
	}

	session.OnDeviceStatus(func(ds cubetimer.DeviceStatus) {
		// the session goroutine must never wait on the UI
		select {
		case m.deviceCh <- ds:
		default:
		}
	})

	m.autoConnect = adapter != nil && (timerConnect || fileCfg.AutoConnect())
	return m
}

func (m *timerModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.tickCmd(), m.listenForDevice()}
	if m.autoConnect {
		m.connecting = true
		cmds = append(cmds, m.connectCmd())
	}
	return tea.Batch(cmds...)
}

func (m *timerModel) tickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *timerModel) listenForDevice() tea.Cmd {
	return func() tea.Msg {
		select {
		case ds := <-m.deviceCh:
			return deviceStatusMsg(ds)
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m *timerModel) connectCmd() tea.Cmd {
	adapter, ctx := m.adapter, m.ctx
	want := ""
	if m.stateFile != nil {
		want = m.stateFile.State().LastDeviceID
	}

	return func() tea.Msg {
		dev, err := findTimer(ctx, adapter, want, 5*time.Second)
		if err != nil {
			return connectDoneMsg{err: fmt.Errorf("no smart timer found: %w", err)}
		}
		return connectDoneMsg{err: adapter.Connect(ctx, dev.ID)}
	}
}

func (m *timerModel) editCmd(verb string, fn func(ctx context.Context) (cubetimer.Result, error)) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		r, err := fn(ctx)
		return editDoneMsg{verb: verb, result: r, err: err}
	}
}

func (m *timerModel) post(in cubetimer.TimerInput) {
	if err := m.session.Post(m.ctx, in); err != nil {
		m.err = err
	}
}

func (m *timerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.state = m.session.State()
		m.refreshScramble()
		return m, m.tickCmd()

	case deviceStatusMsg:
		ds := cubetimer.DeviceStatus(msg)
		switch {
		case ds.State == cubetimer.Connected:
			m.message = fmt.Sprintf("Connected to %s", displayName(ds.Device))
			if m.stateFile != nil {
				if err := m.stateFile.SetLastDevice(ds.Device.ID, ds.Device.Name); err != nil {
					logger.Warn().Err(err).Msg("failed to save last device")
				}
			}
		case ds.Err != nil:
			m.message = fmt.Sprintf("%s: %v", displayName(ds.Device), ds.Err)
		case ds.State == cubetimer.Disconnected:
			m.message = "Smart timer disconnected"
		}
		return m, m.listenForDevice()

	case connectDoneMsg:
		m.connecting = false
		if msg.err != nil {
			m.err = msg.err
		}

	case editDoneMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.message = fmt.Sprintf("%s %s", msg.verb, msg.result)
		}
		m.state = m.session.State()
	}

	return m, nil
}

func (m *timerModel) handleKey(key string) (tea.Model, tea.Cmd) {
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	st := m.session.State()
	if st.Phase == cubetimer.PhaseRunning {
		if key == "esc" {
			m.post(cubetimer.Abort())
		} else {
			m.post(cubetimer.Stop())
		}
		return m, nil
	}

	switch key {
	case " ":
		switch {
		case st.Phase == cubetimer.PhaseInspecting:
			m.post(cubetimer.Start())
		case st.Holding:
			m.post(cubetimer.Release())
		default:
			m.err = nil
			m.post(cubetimer.ReadyHold())
		}

	case "esc":
		m.post(cubetimer.Abort())

	case "q":
		m.quitting = true
		return m, tea.Quit

	case "2", "d", "n":
		last, ok := st.Last()
		if !ok {
			return m, nil
		}
		p := map[string]cubetimer.Penalty{
			"2": cubetimer.PenaltyPlusTwo,
			"d": cubetimer.PenaltyDNF,
			"n": cubetimer.PenaltyNone,
		}[key]
		return m, m.editCmd("Marked", func(ctx context.Context) (cubetimer.Result, error) {
			return m.session.SetPenalty(ctx, last.ID, p)
		})

	case "x":
		last, ok := st.Last()
		if !ok {
			return m, nil
		}
		return m, m.editCmd("Deleted", func(ctx context.Context) (cubetimer.Result, error) {
			return m.session.Delete(ctx, last.ID)
		})

	case "u":
		return m, m.editCmd("Restored", m.session.Restore)

	case "s":
		if m.scrambler != nil && st.Phase == cubetimer.PhaseIdle {
			m.post(cubetimer.SetScramble(m.scrambler.String()))
			m.scramblePending = true
		}

	case "p":
		m.showPreview = !m.showPreview

	case "c":
		if m.adapter == nil {
			m.err = m.bleErr
			return m, nil
		}
		if !m.connecting {
			m.connecting = true
			m.err = nil
			m.message = "Searching for a smart timer..."
			return m, m.connectCmd()
		}
	}

	return m, nil
}

// refreshScramble supplies a new scramble whenever the last one was used.
func (m *timerModel) refreshScramble() {
	if m.scrambler == nil {
		return
	}
	if m.state.Scramble != "" {
		m.scramblePending = false
		return
	}
	if m.scramblePending || m.state.Phase != cubetimer.PhaseIdle || m.state.Holding {
		return
	}
	m.post(cubetimer.SetScramble(m.scrambler.String()))
	m.scramblePending = true
}

func (m *timerModel) View() string {
	if m.quitting {
		return ""
	}

	st := m.state
	now := m.clock.Now()
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("cubetimer"))
	b.WriteString(statusStyle.Render(fmt.Sprintf("  session: %s  device: %s", getSessionName(), m.deviceLabel(st.Device))))
	b.WriteString("\n\n")

	if st.Scramble != "" {
		b.WriteString(scrambleStyle.Render(st.Scramble))
		if m.showPreview && st.Phase == cubetimer.PhaseIdle {
			if seq, err := scramble.Parse(st.Scramble); err == nil {
				b.WriteString("\n\n")
				b.WriteString(renderNet(scramble.Scrambled(seq)))
			}
		}
	}
	b.WriteString("\n")

	// Timer display
	b.WriteString(m.renderClock(st, now))
	b.WriteString("\n")
	b.WriteString(renderLights(st.Indicator(now)))
	b.WriteString("\n\n")

	// Statistics
	s := st.Stats
	b.WriteString(statStyle.Render(fmt.Sprintf("ao5: %-8s ao12: %-8s best ao5: %-8s mean: %-8s solves: %d",
		s.CurrentAo5, s.CurrentAo12, s.BestAo5, s.SessionAverage, s.Count)))
	b.WriteString("\n")

	if recent := recentResults(st.Results, 12); recent != "" {
		b.WriteString(statusStyle.Render("recent: " + recent))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	} else if m.message != "" {
		b.WriteString(statusStyle.Render(m.message))
		b.WriteString("\n")
	}

	help := "SPACE=hold/go  esc=cancel  2/d/n=penalty  x=delete  s=scramble  p=preview  c=connect  q=quit"
	if st.CanRestore {
		help = "u=undo delete  " + help
	}
	switch st.Phase {
	case cubetimer.PhaseRunning:
		help = "any key=stop  esc=abort"
	case cubetimer.PhaseInspecting:
		help = "SPACE=start  esc=abort"
	}
	b.WriteString(helpStyle.Render(help))
	b.WriteString("\n")

	return b.String()
}

func (m *timerModel) renderClock(st cubetimer.State, now time.Time) string {
	switch st.Phase {
	case cubetimer.PhaseRunning:
		return timeStyle.Render(st.Elapsed(now).FormatTenths())

	case cubetimer.PhaseInspecting:
		left := st.InspectionRemaining(now)
		switch {
		case left > 0:
			return inspectStyle.Render(fmt.Sprintf("%d", int((left+time.Second-1)/time.Second)))
		case left > -cubetimer.PlusTwoPenalty.Std():
			return inspectStyle.Render("+2")
		default:
			return inspectStyle.Render("DNF")
		}
	}

	display := "0.00"
	if last, ok := st.Last(); ok {
		display = last.String()
	}
	switch st.Indicator(now) {
	case cubetimer.IndicatorReady:
		return readyStyle.Render("0.00")
	case cubetimer.IndicatorNotReady:
		return notReadyStyle.Render(display)
	}
	return timeStyle.Render(display)
}

func renderLights(ind cubetimer.Indicator) string {
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("●")
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Render("●")
	off := statusStyle.Render("○")

	switch ind {
	case cubetimer.IndicatorReady:
		return "    " + red + " " + green
	case cubetimer.IndicatorNotReady:
		return "    " + red + " " + off
	default:
		return "    " + off + " " + off
	}
}

func (m *timerModel) deviceLabel(ds cubetimer.DeviceStatus) string {
	switch {
	case m.adapter == nil:
		return "keyboard"
	case m.connecting && ds.State != cubetimer.Connected:
		return "searching..."
	case ds.State == cubetimer.Disconnected:
		return "keyboard (c to connect)"
	default:
		return fmt.Sprintf("%s (%s)", displayName(ds.Device), ds.State)
	}
}

func recentResults(results []cubetimer.Result, n int) string {
	start := 0
	if len(results) > n {
		start = len(results) - n
	}
	parts := make([]string, 0, len(results)-start)
	for i := len(results) - 1; i >= start; i-- {
		parts = append(parts, results[i].String())
	}
	return strings.Join(parts, "  ")
}

// openTimerLog opens the log file used while the TUI owns the terminal.
func openTimerLog() (*os.File, error) {
	path := filepath.Join(config.XDGDataHome(), "cubetimer", "timer.log")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}

func runTimer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// console output would tear the alternate screen
	logFile, err := openTimerLog()
	if err != nil {
		return err
	}
	defer logFile.Close()
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(logFile).Level(level).With().Timestamp().Str("cmd", "timer").Logger()

	db, store, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	results, err := store.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info().Str("session", store.Name()).Int("results", len(results)).Msg("session loaded")

	stateFile, err := loadStateFile()
	if err != nil {
		logger.Warn().Err(err).Msg("continuing without state file")
		stateFile = nil
	} else if err := stateFile.SetLastSession(store.Name()); err != nil {
		logger.Warn().Err(err).Msg("failed to save state")
	}

	session := cubetimer.NewSession(results, libraryOptions(cubetimer.WithPersister(store))...)

	adapter, bleErr := newAdapter(session.Inbox())
	if bleErr != nil {
		logger.Info().Err(bleErr).Msg("smart timer support disabled")
	}

	model := newTimerModel(ctx, session, adapter, bleErr, stateFile)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := session.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		if adapter != nil {
			defer adapter.Close()
		}
		if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
			return fmt.Errorf("TUI error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	final := session.State().Stats
	fmt.Printf("Session %q: %d solves, ao5 %s, ao12 %s, mean %s\n",
		store.Name(), final.Count, final.CurrentAo5, final.CurrentAo12, final.SessionAverage)
	return nil
}
