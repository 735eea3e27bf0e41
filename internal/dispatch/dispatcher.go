package dispatch

import (
	"context"
	"fmt"
	"os"
	"sync"

	"log/slog"

	"github.com/google/uuid"

	"rumen/internal/config"
	"rumen/internal/jobs"
	"rumen/internal/llm"
	"rumen/internal/logging"
	"rumen/internal/output"
	"rumen/internal/watcher"
)

// TransformClient is the slice of the LLM client the dispatcher needs.
type TransformClient interface {
	Execute(ctx context.Context, req llm.Request) (llm.Result, error)
}

type workItem struct {
	record *jobs.Job
	folder config.Folder
	path   string
}

// Dispatcher turns promoted files into jobs and drives them through the
// worker pool. A source path is never in flight twice: promotions for a path
// that is already queued or processing are dropped, and the path is released
// only once its job reaches a terminal state.
type Dispatcher struct {
	cfg    *config.Config
	store  *jobs.Store
	client TransformClient
	writer *output.Writer
	logger *slog.Logger

	promotions <-chan watcher.Promotion
	queue      chan workItem
	workers    int
	newID      func() string

	onDrop func(folder, path string)

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// Option customizes dispatcher construction.
type Option func(*Dispatcher)

// WithDropHandler installs a callback invoked when a promotion is dropped
// because its path already has a job in flight. The watcher uses it to
// re-offer the path once the running job releases it.
func WithDropHandler(fn func(folder, path string)) Option {
	return func(d *Dispatcher) {
		d.onDrop = fn
	}
}

// New builds a dispatcher reading promotions from the watcher's channel.
func New(cfg *config.Config, store *jobs.Store, client TransformClient, writer *output.Writer, promotions <-chan watcher.Promotion, logger *slog.Logger, opts ...Option) *Dispatcher {
	if logger == nil {
		logger = logging.NewNop()
	}

	queueSize := cfg.Monitor.QueueSize
	if queueSize <= 0 {
		queueSize = 16
	}
	workers := cfg.Monitor.Workers
	if workers <= 0 {
		workers = 1
	}

	d := &Dispatcher{
		cfg:        cfg,
		store:      store,
		client:     client,
		writer:     writer,
		logger:     logger.With(logging.String(logging.FieldComponent, "dispatch")),
		promotions: promotions,
		queue:      make(chan workItem, queueSize),
		workers:    workers,
		newID:      uuid.NewString,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run processes promotions until the context is cancelled, then drains the
// pool. Jobs a worker has already started run to completion; jobs still
// sitting in the queue are abandoned and failed at the next startup.
func (d *Dispatcher) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for i := 0; i < d.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			d.worker(ctx, id)
		}(i)
	}

	d.intake(ctx)
	close(d.queue)
	wg.Wait()
	return nil
}

func (d *Dispatcher) intake(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case promo := <-d.promotions:
			d.admit(ctx, promo)
		}
	}
}

// admit applies the dedupe check, records the job, and enqueues it. The
// enqueue blocks when the queue is full, which stalls intake and lets the
// watcher's non-blocking promotion send provide backpressure.
func (d *Dispatcher) admit(ctx context.Context, promo watcher.Promotion) {
	if !d.claim(promo.Path) {
		d.logger.Debug("promotion for in-flight path dropped",
			logging.String(logging.FieldFolder, promo.Folder.Name),
			logging.String("path", promo.Path),
		)
		// A rewrite during processing lands here with the gate already
		// marked; the handler re-arms it so the path is offered again.
		if d.onDrop != nil {
			d.onDrop(promo.Folder.Name, promo.Path)
		}
		return
	}

	record, err := d.store.NewJob(ctx, d.newID(), promo.Path, promo.Folder.Name)
	if err != nil {
		d.release(promo.Path)
		d.logger.Error("failed to record job; file will be retried on a later scan",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_record_failed"),
			logging.String(logging.FieldFolder, promo.Folder.Name),
			logging.String("path", promo.Path),
			logging.String(logging.FieldErrorHint, "check job database health and disk space"),
		)
		return
	}

	d.logger.Info("job queued",
		logging.String(logging.FieldEventType, "job_queued"),
		logging.String(logging.FieldJobID, record.ID),
		logging.String(logging.FieldFolder, promo.Folder.Name),
		logging.String("path", promo.Path),
	)

	select {
	case d.queue <- workItem{record: record, folder: promo.Folder, path: promo.Path}:
	case <-ctx.Done():
		d.release(promo.Path)
	}
}

func (d *Dispatcher) claim(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.inFlight == nil {
		d.inFlight = make(map[string]struct{})
	}
	if _, exists := d.inFlight[path]; exists {
		return false
	}
	d.inFlight[path] = struct{}{}
	return true
}

func (d *Dispatcher) release(path string) {
	d.mu.Lock()
	delete(d.inFlight, path)
	d.mu.Unlock()
}

// InFlight reports how many source paths are currently queued or processing.
func (d *Dispatcher) InFlight() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.inFlight)
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	logger := d.logger.With(logging.Int("worker", id))
	for item := range d.queue {
		if ctx.Err() != nil {
			// Shutdown: leave the row queued; startup stale reset fails it.
			d.release(item.path)
			continue
		}
		d.process(ctx, logger, item)
	}
}

// process runs one job end to end. The work context is detached from the run
// context so a job a worker already started survives daemon shutdown.
func (d *Dispatcher) process(ctx context.Context, logger *slog.Logger, item workItem) {
	defer d.release(item.path)

	workCtx := context.WithoutCancel(ctx)
	record := item.record
	logger = logger.With(
		logging.String(logging.FieldJobID, record.ID),
		logging.String(logging.FieldFolder, item.folder.Name),
		logging.String("path", item.path),
	)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("worker panic contained",
				logging.String(logging.FieldEventType, "worker_panic"),
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "report this; the daemon keeps running"),
			)
			record.SetFailed(string(llm.ClassPermanent), record.Attempts, fmt.Sprintf("panic during processing: %v", r))
			d.updateRecord(workCtx, logger, record)
		}
	}()

	record.SetProcessing()
	d.updateRecord(workCtx, logger, record)

	content, err := os.ReadFile(item.path)
	if err != nil {
		logger.Error("source file unreadable",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_failed"),
		)
		record.SetFailed(string(llm.ClassPermanent), 0, fmt.Sprintf("read source: %v", err))
		d.updateRecord(workCtx, logger, record)
		return
	}

	userPrompt, err := llm.RenderUserPrompt(item.folder.UserPromptTemplate, string(content))
	if err != nil {
		record.SetFailed(string(llm.ClassPermanent), 0, err.Error())
		d.updateRecord(workCtx, logger, record)
		return
	}

	result, err := d.client.Execute(workCtx, llm.Request{
		SystemPrompt: item.folder.SystemPrompt,
		UserPrompt:   userPrompt,
		Params: llm.Params{
			Model:       item.folder.Model,
			Temperature: item.folder.Temperature,
			MaxTokens:   item.folder.MaxTokens,
			TopP:        item.folder.TopP,
		},
		Notify: func(attempt int, attemptErr error) {
			logger.Warn("attempt failed; retrying",
				logging.Error(attemptErr),
				logging.String(logging.FieldEventType, "job_retrying"),
				logging.Int(logging.FieldAttempts, attempt),
			)
			record.SetRetrying(attempt, attemptErr.Error())
			d.updateRecord(workCtx, logger, record)
		},
	})
	if err != nil {
		class, ok := llm.Classify(err)
		if !ok {
			class = llm.ClassTransient
		}
		logger.Error("transformation failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_failed"),
			logging.String("error_class", string(class)),
			logging.Int(logging.FieldAttempts, llm.Attempts(err)),
		)
		record.SetFailed(string(class), llm.Attempts(err), err.Error())
		d.updateRecord(workCtx, logger, record)
		return
	}

	outputPath, err := d.writer.Persist(item.folder, result.Text, output.Metadata{
		SourcePath: item.path,
		Folder:     item.folder.Name,
		Model:      d.modelFor(item.folder),
		Attempts:   result.Attempts,
	})
	if err != nil {
		logger.Error("result persistence failed; source file retained",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_failed"),
			logging.String(logging.FieldErrorHint, "check output directory permissions and disk space"),
		)
		record.SetFailed(string(llm.ClassPermanent), result.Attempts, fmt.Sprintf("persist result: %v", err))
		d.updateRecord(workCtx, logger, record)
		return
	}

	// The result is durable; only now is the source safe to delete.
	if err := os.Remove(item.path); err != nil && !os.IsNotExist(err) {
		logger.Warn("source cleanup failed; file may be processed again",
			logging.Error(err),
			logging.String(logging.FieldEventType, "source_cleanup_failed"),
		)
	}

	record.SetCompleted(outputPath, result.Attempts)
	d.updateRecord(workCtx, logger, record)
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_completed"),
		logging.Int(logging.FieldAttempts, result.Attempts),
		logging.String("output", outputPath),
	)
}

func (d *Dispatcher) modelFor(folder config.Folder) string {
	if folder.Model != "" {
		return folder.Model
	}
	return d.cfg.LLM.Model
}

func (d *Dispatcher) updateRecord(ctx context.Context, logger *slog.Logger, record *jobs.Job) {
	if err := d.store.Update(ctx, record); err != nil {
		logger.Error("job state update failed",
			logging.Error(err),
			logging.String(logging.FieldEventType, "job_update_failed"),
		)
	}
}
