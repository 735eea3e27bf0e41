package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"log/slog"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"rumen/internal/config"
	"rumen/internal/dispatch"
	"rumen/internal/jobs"
	"rumen/internal/llm"
	"rumen/internal/logging"
	"rumen/internal/output"
	"rumen/internal/textutil"
	"rumen/internal/watcher"
)

// Daemon wires the watcher, dispatcher, job store, and API server into a
// single lifecycle and enforces single-instance execution via a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *jobs.Store
	client *llm.Client
	writer *output.Writer

	watcher    *watcher.Watcher
	dispatcher *dispatch.Dispatcher
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	group   *errgroup.Group
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Folders      int
	InFlight     int
	Jobs         jobs.HealthSummary
	JobDBPath    string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	client := llm.NewClient(llm.Config{
		APIKey:         cfg.LLM.APIKey,
		BaseURL:        cfg.LLM.BaseURL,
		Model:          cfg.LLM.Model,
		Referer:        cfg.LLM.Referer,
		Title:          cfg.LLM.Title,
		TimeoutSeconds: cfg.LLM.TimeoutSeconds,
	},
		llm.WithRetryMaxAttempts(cfg.LLM.RetryAttempts),
		llm.WithRetryBackoff(secondsDuration(cfg.LLM.RetryDelay), secondsDuration(cfg.LLM.RetryMaxDelay)),
	)

	writer := output.NewWriter(cfg)

	queueSize := cfg.Monitor.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	promotions := make(chan watcher.Promotion, queueSize)

	watch := watcher.New(cfg, promotions, logger)
	d := &Daemon{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		client:     client,
		writer:     writer,
		watcher:    watch,
		dispatcher: dispatch.New(cfg, store, client, writer, promotions, logger, dispatch.WithDropHandler(watch.Rearm)),
		lockPath:   filepath.Join(cfg.Paths.LogDir, "rumend.lock"),
	}
	d.lock = flock.New(d.lockPath)
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, fails stale jobs from a previous run, and
// launches the watcher, dispatcher, and API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	if err := d.cfg.EnsureDirectories(); err != nil {
		return fmt.Errorf("ensure directories: %w", err)
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rumen daemon instance is already running")
	}

	reset, err := d.store.ResetStale(ctx, jobs.DaemonStopReason)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reset stale jobs: %w", err)
	}
	if reset > 0 {
		d.logger.Warn("failed leftover jobs from previous run",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "stale_jobs_reset"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	if err := d.watcher.Start(groupCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start watcher: %w", err)
	}
	group.Go(func() error {
		return d.dispatcher.Run(groupCtx)
	})

	if d.api != nil {
		if err := d.api.start(groupCtx); err != nil {
			cancel()
			d.watcher.Stop()
			_ = group.Wait()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api server: %w", err)
		}
	}

	d.cancel = cancel
	d.group = group
	d.running.Store(true)
	d.logger.Info("rumen daemon started",
		logging.String("lock", d.lockPath),
		logging.Int("folders", len(d.cfg.EnabledFolders())),
		logging.Int("workers", d.cfg.Monitor.Workers),
	)
	return nil
}

// Stop shuts down background processing and releases the daemon lock. Jobs a
// worker has already started run to completion before Stop returns.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.watcher.Stop()
	if d.group != nil {
		_ = d.group.Wait()
		d.group = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("rumen daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddr reports the API server's listen address, empty when disabled.
func (d *Daemon) APIAddr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) (Status, error) {
	summary, err := d.store.Health(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Folders:      len(d.cfg.EnabledFolders()),
		InFlight:     d.dispatcher.InFlight(),
		Jobs:         summary,
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
	}, nil
}

// ListJobs returns recent jobs, optionally filtered by status.
func (d *Daemon) ListJobs(ctx context.Context, status string, limit int) ([]*jobs.Job, error) {
	if strings.TrimSpace(status) == "" {
		return d.store.List(ctx, limit)
	}
	parsed, ok := jobs.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return d.store.ListByStatus(ctx, parsed, limit)
}

// GetJob fetches one job by full id or unique id prefix; nil when absent.
func (d *Daemon) GetJob(ctx context.Context, id string) (*jobs.Job, error) {
	job, err := d.store.GetByID(ctx, id)
	if err != nil || job != nil {
		return job, err
	}
	return d.store.FindByIDPrefix(ctx, id)
}

// ListResults returns persisted result files, optionally for one folder.
func (d *Daemon) ListResults(folderName string, limit int) ([]output.Result, error) {
	return output.ListResults(d.cfg, folderName, limit)
}

// ProcessContent transforms content immediately using a folder's prompts,
// outside the watch pipeline. The result is persisted like any other, and a
// job row records the outcome; there is no source file to delete.
func (d *Daemon) ProcessContent(ctx context.Context, folderName, filename, content string) (*jobs.Job, int, error) {
	folder, ok := d.cfg.FolderByName(folderName)
	if !ok {
		return nil, 0, fmt.Errorf("unknown folder %q", folderName)
	}
	if strings.TrimSpace(content) == "" {
		return nil, 0, errors.New("content is required")
	}
	filename = strings.TrimSpace(filename)
	if filename != "" {
		filename = textutil.SanitizeFileName(filepath.Base(filename))
	}
	if filename == "" || filename == "." {
		filename = "inline.md"
	}

	sourceLabel := "api:" + filename
	record, err := d.store.NewJob(ctx, uuid.NewString(), sourceLabel, folder.Name)
	if err != nil {
		return nil, 0, fmt.Errorf("record job: %w", err)
	}

	record.SetProcessing()
	if err := d.store.Update(ctx, record); err != nil {
		return nil, 0, fmt.Errorf("update job: %w", err)
	}

	fail := func(class string, attempts int, cause error) (*jobs.Job, int, error) {
		record.SetFailed(class, attempts, cause.Error())
		if updateErr := d.store.Update(ctx, record); updateErr != nil {
			d.logger.Error("job state update failed", logging.Error(updateErr))
		}
		return record, attempts, cause
	}

	userPrompt, err := llm.RenderUserPrompt(folder.UserPromptTemplate, content)
	if err != nil {
		return fail(string(llm.ClassPermanent), 0, err)
	}

	result, err := d.client.Execute(ctx, llm.Request{
		SystemPrompt: folder.SystemPrompt,
		UserPrompt:   userPrompt,
		Params: llm.Params{
			Model:       folder.Model,
			Temperature: folder.Temperature,
			MaxTokens:   folder.MaxTokens,
			TopP:        folder.TopP,
		},
	})
	if err != nil {
		class, ok := llm.Classify(err)
		if !ok {
			class = llm.ClassTransient
		}
		return fail(string(class), llm.Attempts(err), err)
	}

	outputPath, err := d.writer.Persist(folder, result.Text, output.Metadata{
		SourcePath: sourceLabel,
		Folder:     folder.Name,
		Model:      folder.Model,
		Attempts:   result.Attempts,
	})
	if err != nil {
		return fail(string(llm.ClassPermanent), result.Attempts, fmt.Errorf("persist result: %w", err))
	}

	record.SetCompleted(outputPath, result.Attempts)
	if err := d.store.Update(ctx, record); err != nil {
		d.logger.Error("job state update failed", logging.Error(err))
	}
	return record, result.Attempts, nil
}

func secondsDuration(seconds int) time.Duration {
	if seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
