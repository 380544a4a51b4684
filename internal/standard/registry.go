package standard

import (
	"errors"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrBatchInFlight is returned when a selection change is attempted while a
// screening batch holds a configuration snapshot.
var ErrBatchInFlight = errors.New("standard cannot change while a screening batch is in flight")

// Registry holds the process-wide active Config behind a single swappable
// reference. Readers always observe a complete Config; a selection is either
// fully applied or not at all.
type Registry struct {
	mu       sync.Mutex
	current  atomic.Pointer[Config]
	request  Request
	inflight int

	statePath string
	log       zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithStateFile persists every applied selection to path.
func WithStateFile(path string) Option {
	return func(r *Registry) { r.statePath = path }
}

// WithLogger sets the registry logger.
func WithLogger(log zerolog.Logger) Option {
	return func(r *Registry) { r.log = log.With().Str("component", "standard_registry").Logger() }
}

// NewRegistry creates a Registry whose initial selection is req.
func NewRegistry(req Request, opts ...Option) (*Registry, error) {
	r := &Registry{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	cfg, err := req.Config()
	if err != nil {
		return nil, err
	}
	r.current.Store(&cfg)
	r.request = req
	return r, nil
}

// Current returns a copy of the active configuration.
func (r *Registry) Current() Config {
	return *r.current.Load()
}

// Selection returns the request that produced the active configuration.
func (r *Registry) Selection() Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.request
}

// Begin pins the active configuration for the duration of a batch. Until the
// returned release func is called, Apply fails with ErrBatchInFlight.
func (r *Registry) Begin() (Config, func()) {
	r.mu.Lock()
	r.inflight++
	cfg := *r.current.Load()
	r.mu.Unlock()

	var once sync.Once
	return cfg, func() {
		once.Do(func() {
			r.mu.Lock()
			r.inflight--
			r.mu.Unlock()
		})
	}
}

// InFlight reports the number of batches currently holding a snapshot.
func (r *Registry) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight
}

// Apply validates req and, if valid and no batch is running, replaces the
// active configuration. On error the previous configuration stays in effect.
func (r *Registry) Apply(req Request) (Config, error) {
	cfg, err := req.Config()
	if err != nil {
		return Config{}, err
	}

	r.mu.Lock()
	if r.inflight > 0 {
		r.mu.Unlock()
		return Config{}, ErrBatchInFlight
	}
	r.current.Store(&cfg)
	r.request = req
	r.mu.Unlock()

	r.log.Info().
		Str("standard", string(cfg.Standard)).
		Str("battery", string(cfg.Battery)).
		Msg("screening standard applied")

	if r.statePath != "" {
		if err := SaveSelection(r.statePath, req); err != nil {
			r.log.Error().Err(err).Str("path", r.statePath).Msg("failed to save standard selection")
		}
	}
	return cfg, nil
}
