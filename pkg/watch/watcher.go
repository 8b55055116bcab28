package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/fsnotify.v1"

	"github.com/coolbeans/vcard/pkg/vcard"
)

// Options configures a Watcher.
type Options struct {
	// Extensions selects the files to validate. Nil means DefaultExtensions.
	Extensions []string
	// Debounce delays validation until a file has been quiet this long.
	// Zero validates on every event.
	Debounce time.Duration
	Logger   zerolog.Logger
	// OnResult, if set, receives every validation result.
	OnResult func(Result)
}

// Watcher validates cards in one directory as they are created or written.
type Watcher struct {
	dir        string
	parser     *vcard.Parser
	extensions []string
	debounce   time.Duration
	logger     zerolog.Logger
	onResult   func(Result)

	watcher  *fsnotify.Watcher
	stopChan chan struct{}
	stopOnce sync.Once
	loopDone chan struct{}

	mu      sync.Mutex
	pending map[string]*time.Timer
}

// New creates a Watcher for dir. It does not touch the file system until
// Start or Run.
func New(dir string, parser *vcard.Parser, opts Options) *Watcher {
	if parser == nil {
		parser = vcard.NewParser(nil)
	}
	extensions := opts.Extensions
	if extensions == nil {
		extensions = DefaultExtensions
	}
	return &Watcher{
		dir:        dir,
		parser:     parser,
		extensions: extensions,
		debounce:   opts.Debounce,
		logger:     opts.Logger.With().Str("dir", dir).Logger(),
		onResult:   opts.OnResult,
		pending:    make(map[string]*time.Timer),
	}
}

// Start begins watching the directory in a background goroutine.
func (w *Watcher) Start() error {
	if w.dir == "" {
		return fmt.Errorf("no directory configured for watching")
	}
	if w.watcher != nil {
		return fmt.Errorf("watcher already started")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(w.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watching directory %s: %w", w.dir, err)
	}

	w.watcher = watcher
	w.stopChan = make(chan struct{})
	w.loopDone = make(chan struct{})
	go w.watchLoop()

	w.logger.Info().Strs("extensions", w.extensions).Dur("debounce", w.debounce).Msg("watching")
	return nil
}

// Run starts the watcher and blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	w.Stop()
	return nil
}

// Stop ends watching and waits for the event loop to exit. Pending
// debounced validations are dropped.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		if w.stopChan == nil {
			return
		}
		close(w.stopChan)
		w.watcher.Close()
		<-w.loopDone

		w.mu.Lock()
		for path, timer := range w.pending {
			timer.Stop()
			delete(w.pending, path)
		}
		w.mu.Unlock()
		w.logger.Info().Msg("stopped watching")
	})
}

// watchLoop handles file system events.
func (w *Watcher) watchLoop() {
	defer close(w.loopDone)
	for {
		select {
		case <-w.stopChan:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !hasExtension(filepath.Base(event.Name), w.extensions) {
				continue
			}

			switch {
			case event.Op&fsnotify.Create == fsnotify.Create,
				event.Op&fsnotify.Write == fsnotify.Write:
				w.schedule(event.Name)

			case event.Op&fsnotify.Remove == fsnotify.Remove,
				event.Op&fsnotify.Rename == fsnotify.Rename:
				w.cancel(event.Name)
				w.logger.Debug().Str("path", event.Name).Msg("file removed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("watch error")
		}
	}
}

// schedule validates path now, or after the debounce interval restarting
// the countdown on every new event.
func (w *Watcher) schedule(path string) {
	if w.debounce <= 0 {
		w.validate(path)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, exists := w.pending[path]; exists {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.validate(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, exists := w.pending[path]; exists {
		timer.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) validate(path string) {
	select {
	case <-w.stopChan:
		return
	default:
	}

	result := ValidateFile(w.parser, path)
	result.Log(w.logger)
	if w.onResult != nil {
		w.onResult(result)
	}
}
