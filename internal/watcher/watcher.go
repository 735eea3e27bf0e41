package watcher

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"log/slog"

	"rumen/internal/config"
	"rumen/internal/logging"
)

// Promotion is a stable file handed to the dispatcher for processing.
type Promotion struct {
	Folder config.Folder
	Path   string
}

var allowedExtensions = map[string]struct{}{
	".md":       {},
	".markdown": {},
	".txt":      {},
}

// Eligible reports whether a file name is a candidate for processing. Hidden
// files, editor temp files, and unknown extensions are ignored.
func Eligible(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(filepath.Ext(base))]
	return ok
}

// Option customizes watcher construction.
type Option func(*Watcher)

// WithClock overrides the time source used by the stability gates.
func WithClock(now func() time.Time) Option {
	return func(w *Watcher) {
		if now != nil {
			w.now = now
		}
	}
}

// Watcher polls every enabled folder on a fixed interval and promotes files
// whose size has held steady for the configured stability window. Promotions
// are delivered on the output channel without blocking the scan loop; a file
// that cannot be delivered stays unpromoted and is offered again on the next
// scan.
type Watcher struct {
	cfg      *config.Config
	logger   *slog.Logger
	out      chan<- Promotion
	interval time.Duration
	window   time.Duration
	now      func() time.Time

	scanMu sync.Mutex
	gates  map[string]*stabilityGate

	mu      sync.Mutex
	running bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a watcher over the config's enabled folders.
func New(cfg *config.Config, out chan<- Promotion, logger *slog.Logger, opts ...Option) *Watcher {
	if logger == nil {
		logger = logging.NewNop()
	}

	interval := time.Duration(cfg.Monitor.Interval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Second
	}
	window := time.Duration(cfg.Monitor.FileTimeout) * time.Second

	w := &Watcher{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "watcher")),
		out:      out,
		interval: interval,
		window:   window,
		now:      time.Now,
		gates:    make(map[string]*stabilityGate),
	}
	for _, opt := range opts {
		opt(w)
	}
	for _, folder := range cfg.EnabledFolders() {
		w.gates[folder.Name] = newStabilityGate(w.window, w.now)
	}
	return w
}

// Start launches the scan loop. It returns an error when already running.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return errors.New("watcher already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	w.ctx = runCtx
	w.cancel = cancel
	w.running = true

	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop cancels the scan loop and waits for it to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	cancel := w.cancel
	w.running = false
	w.cancel = nil
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	w.wg.Wait()
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	w.ScanOnce()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.ScanOnce()
		}
	}
}

// ScanOnce walks every enabled folder a single time, feeding the stability
// gates and promoting files that are ready. Exposed for tests and for the
// on-demand process endpoint.
func (w *Watcher) ScanOnce() {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()

	for _, folder := range w.cfg.EnabledFolders() {
		gate, ok := w.gates[folder.Name]
		if !ok {
			gate = newStabilityGate(w.window, w.now)
			w.gates[folder.Name] = gate
		}
		w.scanFolder(folder, gate)
	}
}

func (w *Watcher) scanFolder(folder config.Folder, gate *stabilityGate) {
	seen := make(map[string]struct{})

	err := filepath.WalkDir(folder.Path, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// A file vanishing mid-walk is routine; skip it.
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if entry.IsDir() {
			if path != folder.Path && strings.HasPrefix(entry.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !Eligible(entry.Name()) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if info.Size() == 0 {
			return nil
		}

		seen[path] = struct{}{}
		if !gate.Observe(path, info.Size()) {
			return nil
		}
		w.promote(folder, gate, path)
		return nil
	})
	if err != nil {
		w.logger.Warn("folder scan failed; will retry",
			logging.Error(err),
			logging.String(logging.FieldEventType, "folder_scan_failed"),
			logging.String(logging.FieldFolder, folder.Name),
			logging.String(logging.FieldErrorHint, "check the folder path exists and is readable"),
		)
		return
	}

	gate.Prune(seen)
}

// Rearm re-offers a promoted path on the next scan. The dispatcher calls it
// when it drops a promotion for a path whose previous job is still in
// flight, so a file rewritten during processing is picked up again once the
// job releases the path.
func (w *Watcher) Rearm(folderName, path string) {
	w.scanMu.Lock()
	defer w.scanMu.Unlock()
	if gate, ok := w.gates[folderName]; ok {
		gate.Rearm(path)
	}
}

func (w *Watcher) promote(folder config.Folder, gate *stabilityGate, path string) {
	select {
	case w.out <- Promotion{Folder: folder, Path: path}:
		gate.MarkPromoted(path)
		w.logger.Info("file stable, promoted for processing",
			logging.String(logging.FieldEventType, "file_promoted"),
			logging.String(logging.FieldFolder, folder.Name),
			logging.String("path", path),
		)
	default:
		w.logger.Debug("dispatch queue full, deferring promotion",
			logging.String(logging.FieldFolder, folder.Name),
			logging.String("path", path),
		)
	}
}
