package cubetimer

import (
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
)

// Default timing parameters.
const (
	DefaultHoldThreshold     = 500 * time.Millisecond
	DefaultInspection        = 15 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultDisconnectTimeout = 3 * time.Second
	DefaultInboxSize         = 64
)

// Option configures a Machine, Session or Adapter.
// Options that do not apply to the component receiving them are ignored.
type Option func(*config)

type config struct {
	clock               clockwork.Clock
	logger              zerolog.Logger
	holdThreshold       time.Duration
	inspection          time.Duration
	inspectionPenalties bool
	persister           Persister
	newID               func() string
	connectTimeout      time.Duration
	disconnectTimeout   time.Duration
	namePrefixes        []string
	inboxSize           int
}

func defaultConfig() *config {
	return &config{
		clock:             clockwork.NewRealClock(),
		logger:            zerolog.Nop(),
		holdThreshold:     DefaultHoldThreshold,
		newID:             func() string { return uuid.New().String() },
		connectTimeout:    DefaultConnectTimeout,
		disconnectTimeout: DefaultDisconnectTimeout,
		inboxSize:         DefaultInboxSize,
	}
}

func buildConfig(opts []Option) *config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithClock sets the time source. Tests pass a clockwork fake clock.
func WithClock(c clockwork.Clock) Option {
	return func(cfg *config) {
		cfg.clock = c
	}
}

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// WithHoldThreshold sets how long a ReadyHold must be held before a
// release starts the timer (or enters inspection).
func WithHoldThreshold(d time.Duration) Option {
	return func(cfg *config) {
		cfg.holdThreshold = d
	}
}

// WithInspection enables an inspection countdown of the given length.
// Zero disables inspection, which is the default. While enabled, a Start
// from Idle is ignored: inspection begins with an armed Release, and a
// smart timer's start then ends it.
func WithInspection(d time.Duration) Option {
	return func(cfg *config) {
		cfg.inspection = d
	}
}

// WithInspectionPenalties applies +2 when the solve starts after the
// inspection time and DNF when it starts more than two seconds later.
func WithInspectionPenalties(enabled bool) Option {
	return func(cfg *config) {
		cfg.inspectionPenalties = enabled
	}
}

// WithPersister registers the collaborator notified of every log mutation.
func WithPersister(p Persister) Option {
	return func(cfg *config) {
		cfg.persister = p
	}
}

// WithIDGenerator overrides how result ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(cfg *config) {
		cfg.newID = fn
	}
}

// WithConnectTimeout bounds a single connection attempt.
func WithConnectTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.connectTimeout = d
	}
}

// WithDisconnectTimeout bounds how long a disconnect is waited on before
// it is abandoned.
func WithDisconnectTimeout(d time.Duration) Option {
	return func(cfg *config) {
		cfg.disconnectTimeout = d
	}
}

// WithNamePrefixes restricts discovery to devices whose advertised name
// starts with one of the prefixes (case-insensitive). Empty accepts all.
func WithNamePrefixes(prefixes ...string) Option {
	return func(cfg *config) {
		cfg.namePrefixes = prefixes
	}
}

// WithInboxSize sets the buffer size of a Session's event queue.
func WithInboxSize(n int) Option {
	return func(cfg *config) {
		if n > 0 {
			cfg.inboxSize = n
		}
	}
}
