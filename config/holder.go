package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// setting is one config key as seen by reload.
type setting struct {
	key        string
	reloadable bool
	value      func(*Config) string
}

// settings lists every key reload compares. Only reloadable keys take
// effect without a restart.
var settings = []setting{
	{"logging.level", true, func(c *Config) string { return c.Logging.Level }},
	{"logging.format", false, func(c *Config) string { return c.Logging.Format }},
	{"server.host", false, func(c *Config) string { return c.Server.Host }},
	{"server.port", false, func(c *Config) string { return strconv.Itoa(c.Server.Port) }},
	{"server.read_timeout", false, func(c *Config) string { return c.Server.ReadTimeout.String() }},
	{"server.write_timeout", false, func(c *Config) string { return c.Server.WriteTimeout.String() }},
	{"metrics.enabled", false, func(c *Config) string { return strconv.FormatBool(c.Metrics.Enabled) }},
	{"metrics.path", false, func(c *Config) string { return c.Metrics.Path }},
	{"backends", false, func(c *Config) string { return strings.Join(c.Backends, ",") }},
	{"types.dir", false, func(c *Config) string { return c.Types.Dir }},
	{"registry.mode", false, func(c *Config) string { return c.Registry.Mode }},
}

// Change is one setting that differs between two configurations.
type Change struct {
	Key        string
	Old, New   string
	Reloadable bool
}

// Diff returns the settings that differ between prev and next, in a
// fixed key order.
func Diff(prev, next *Config) []Change {
	var changes []Change
	for _, s := range settings {
		if o, n := s.value(prev), s.value(next); o != n {
			changes = append(changes, Change{Key: s.key, Old: o, New: n, Reloadable: s.reloadable})
		}
	}
	return changes
}

// ReloadableFields returns the keys that take effect on reload.
func ReloadableFields() []string { return settingKeys(true) }

// NonReloadableFields returns the keys that need a restart.
func NonReloadableFields() []string { return settingKeys(false) }

func settingKeys(reloadable bool) []string {
	var keys []string
	for _, s := range settings {
		if s.reloadable == reloadable {
			keys = append(keys, s.key)
		}
	}
	return keys
}

// Holder keeps the current configuration and reloads it from its file
// on write or SIGHUP. Listeners see every reload that changed a setting.
type Holder struct {
	path    string
	logger  zerolog.Logger
	current atomic.Pointer[Config]

	mu        sync.Mutex
	listeners []func(*Config)

	stop     chan struct{}
	stopOnce sync.Once
}

// NewHolder loads path and returns a holder for it.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config path: %w", err)
	}
	cfg, err := Load(abs)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	h := &Holder{
		path:   abs,
		logger: logger.With().Str("config", abs).Logger(),
		stop:   make(chan struct{}),
	}
	h.current.Store(cfg)
	return h, nil
}

// Get returns the current configuration. Callers must not modify it.
func (h *Holder) Get() *Config {
	return h.current.Load()
}

// OnChange registers fn to run after a reload that changed any setting.
func (h *Holder) OnChange(fn func(*Config)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Reload reads the file again. On error the current configuration stays
// in place. It returns the settings that changed.
func (h *Holder) Reload() ([]Change, error) {
	next, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Msg("config reload failed; keeping current config")
		return nil, fmt.Errorf("reload config: %w", err)
	}

	// Serialize swaps so listeners observe reloads in order.
	h.mu.Lock()
	defer h.mu.Unlock()

	prev := h.current.Swap(next)
	changes := Diff(prev, next)
	if len(changes) == 0 {
		h.logger.Debug().Msg("config reloaded; nothing changed")
		return nil, nil
	}

	for _, c := range changes {
		ev := h.logger.Info()
		msg := "config setting changed"
		if !c.Reloadable {
			ev = h.logger.Warn()
			msg = "config setting changed; restart to apply"
		}
		ev.Str("key", c.Key).Str("old", c.Old).Str("new", c.New).Msg(msg)
	}
	for _, fn := range h.listeners {
		fn(next)
	}
	return changes, nil
}

// Watch reloads on writes to the config file and on SIGHUP until Stop.
// SIGHUP handling stays active when the file watch cannot be set up;
// the watch error is returned.
func (h *Holder) Watch() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP)

	var events <-chan fsnotify.Event
	var errs <-chan error
	w, werr := h.newWatcher()
	if werr == nil {
		events, errs = w.Events, w.Errors
	}

	go func() {
		defer signal.Stop(sig)
		if w != nil {
			defer w.Close()
		}
		name := filepath.Base(h.path)
		for {
			select {
			case <-h.stop:
				return
			case <-sig:
				h.logger.Info().Msg("SIGHUP received")
				h.Reload()
			case ev, ok := <-events:
				if !ok {
					events = nil
					continue
				}
				// Editors that save atomically create the file anew.
				if filepath.Base(ev.Name) == name && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					h.logger.Debug().Str("op", ev.Op.String()).Msg("config file changed")
					h.Reload()
				}
			case err, ok := <-errs:
				if !ok {
					errs = nil
					continue
				}
				h.logger.Error().Err(err).Msg("config watch error")
			}
		}
	}()

	if werr != nil {
		return werr
	}
	h.logger.Info().Msg("watching config for changes")
	return nil
}

func (h *Holder) newWatcher() (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(h.path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(h.path), err)
	}
	return w, nil
}

// Stop ends Watch. It is safe to call more than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() { close(h.stop) })
}
