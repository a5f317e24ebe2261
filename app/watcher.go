package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/Point72/chatom/core/conversion"
	"github.com/Point72/chatom/core/model"
	"github.com/Point72/chatom/pkg/codec"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch outcomes.
const (
	WatchValid   = "valid"
	WatchInvalid = "invalid"
	WatchError   = "error"
)

// WatchResult is the validation report for one document file.
type WatchResult struct {
	Path     string
	Document model.Document
	Result   conversion.ValidationResult
	Err      error
}

// Outcome classifies the result as valid, invalid or error.
func (r WatchResult) Outcome() string {
	switch {
	case r.Err != nil:
		return WatchError
	case r.Result.Valid:
		return WatchValid
	default:
		return WatchInvalid
	}
}

// Watcher validates every document file in a directory against one
// backend, once at startup and again whenever a file is written.
type Watcher struct {
	service  *ConvertService
	dir      string
	backend  string
	logger   zerolog.Logger
	onResult func(WatchResult)
}

// NewWatcher creates a watcher. onResult is called from the watch
// goroutine for every processed file.
func NewWatcher(service *ConvertService, dir, backend string, logger zerolog.Logger, onResult func(WatchResult)) *Watcher {
	if onResult == nil {
		onResult = func(WatchResult) {}
	}
	return &Watcher{
		service:  service,
		dir:      dir,
		backend:  backend,
		logger:   logger,
		onResult: onResult,
	}
}

// Run watches until ctx is cancelled. Existing files are processed after
// the watch is in place, so no write is missed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	w.logger.Info().Str("dir", w.dir).Str("backend", w.backend).Msg("watching documents")

	if err := w.scan(); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, ok := codec.FormatFromPath(event.Name); !ok {
				continue
			}
			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("document changed")
			w.onResult(w.Process(event.Name))

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) scan() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := codec.FormatFromPath(e.Name()); ok {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		w.onResult(w.Process(filepath.Join(w.dir, name)))
	}
	return nil
}

// Process decodes and validates a single file.
func (w *Watcher) Process(path string) WatchResult {
	res := WatchResult{Path: path}

	format, ok := codec.FormatFromPath(path)
	if !ok {
		res.Err = fmt.Errorf("%s: unsupported file extension", path)
		return res
	}

	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		return res
	}
	defer f.Close()

	doc, err := codec.DecodeDocument(f, format)
	if err != nil {
		res.Err = fmt.Errorf("%s: %w", path, err)
		return res
	}
	res.Document = doc

	res.Result, res.Err = w.service.Validate(doc, w.backend)

	event := w.logger.Debug()
	if res.Err != nil {
		event = w.logger.Warn().Err(res.Err)
	}
	event.Str("file", path).Str("outcome", res.Outcome()).Msg("document checked")
	return res
}
