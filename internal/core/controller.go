package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/refinery/internal/dataset"
	"github.com/JonMunkholm/refinery/internal/engine"
	"github.com/JonMunkholm/refinery/internal/logging"
	"github.com/JonMunkholm/refinery/internal/tabular"
	"github.com/JonMunkholm/refinery/internal/transform"
)

// DefaultPreviewRows is the preview size used by Snapshot.
const DefaultPreviewRows = 50

// Options configures a Controller. Zero values take defaults.
type Options struct {
	Executor        engine.Executor // Defaults to engine.NewLocalExecutor()
	NotificationTTL time.Duration
	PreviewRows     int
	MaxFileSize     int64
	Export          tabular.ExportOptions
	Clock           func() time.Time
}

// Controller owns the loaded dataset and drives the Empty, Loaded and
// Processing states. All methods are safe for concurrent use; at most one
// operation runs at a time.
type Controller struct {
	exec        engine.Executor
	limiter     *OpLimiter
	ttl         time.Duration
	previewRows int
	maxFileSize int64
	exportOpts  tabular.ExportOptions
	now         func() time.Time

	mu          sync.RWMutex
	state       State
	ds          dataset.Dataset
	displayName string
	revision    uuid.UUID
	loadedAt    time.Time
	runningOp   string
	note        *Notification
}

// NewController returns a controller in the Empty state.
func NewController(opts Options) *Controller {
	c := &Controller{
		exec:        opts.Executor,
		limiter:     NewOpLimiter(DefaultMaxConcurrentOps),
		ttl:         opts.NotificationTTL,
		previewRows: opts.PreviewRows,
		maxFileSize: opts.MaxFileSize,
		exportOpts:  opts.Export,
		now:         opts.Clock,
	}
	if c.exec == nil {
		c.exec = engine.NewLocalExecutor()
	}
	if c.ttl <= 0 {
		c.ttl = DefaultNotificationTTL
	}
	if c.previewRows <= 0 {
		c.previewRows = DefaultPreviewRows
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Load decodes a file and replaces the current dataset.
//
// A file with no rows raises an info notification and leaves the state
// unchanged, as does any decode error (with an error notification). Load is
// refused with ErrBusy while an operation is running.
func (c *Controller) Load(ctx context.Context, name string, r io.Reader) error {
	logger := logging.FromContext(ctx)

	if c.State() == StateProcessing {
		c.fail(ErrBusy)
		return ErrBusy
	}

	start := c.now()
	loaded, err := tabular.Load(name, r, tabular.Options{MaxSize: c.maxFileSize})
	if err != nil {
		if errors.Is(err, tabular.ErrNoRows) {
			c.inform(err)
		} else {
			logger.Warn("load failed", "file", name, "error", err)
			c.fail(err)
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateProcessing {
		c.setNote(NotifyError, MapError(ErrBusy))
		return ErrBusy
	}

	c.state = StateLoaded
	c.ds = loaded.Dataset
	c.displayName = loaded.DisplayName
	c.revision = uuid.New()
	c.loadedAt = c.now()
	c.notify(NotifySuccess, fmt.Sprintf("Loaded %d rows successfully!", loaded.Dataset.Len()), "")

	logger.Info("dataset loaded",
		"file", name,
		"format", loaded.Format,
		"bytes", loaded.Size,
		"rows", loaded.Dataset.Len(),
		"columns", len(loaded.Dataset.Headers),
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return nil
}

// Apply runs an operation against the current dataset.
//
// The dataset is replaced only when the executor succeeds and returns a
// valid dataset; on any failure it is left untouched and an error
// notification is raised. A second Apply while one is running fails fast
// with ErrBusy.
func (c *Controller) Apply(ctx context.Context, opID string) (transform.Outcome, error) {
	logger := logging.FromContext(ctx).With("op", opID)

	c.mu.Lock()
	switch c.state {
	case StateEmpty:
		c.setNote(NotifyInfo, MapError(ErrInvalidState))
		c.mu.Unlock()
		return transform.Outcome{}, ErrInvalidState
	case StateProcessing:
		c.setNote(NotifyError, MapError(ErrBusy))
		c.mu.Unlock()
		return transform.Outcome{}, ErrBusy
	}
	if !c.exec.Ready() {
		c.setNote(NotifyError, MapError(engine.ErrNotReady))
		c.mu.Unlock()
		return transform.Outcome{}, engine.ErrNotReady
	}
	if !c.limiter.TryAcquire() {
		c.setNote(NotifyError, MapError(ErrBusy))
		c.mu.Unlock()
		return transform.Outcome{}, ErrBusy
	}
	c.state = StateProcessing
	c.runningOp = opID
	input := c.ds
	rev := c.revision
	c.mu.Unlock()

	defer c.limiter.Release()

	start := c.now()
	out, err := c.exec.Run(ctx, input, opID)
	if err == nil {
		if verr := out.Dataset.Validate(); verr != nil {
			err = &engine.ExecutionError{OpID: opID, ExitCode: -1, Err: verr}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.state = StateLoaded
	c.runningOp = ""

	if err != nil {
		logger.Error("operation failed", "rows", input.Len(), "error", err)
		c.setNote(NotifyError, MapError(err))
		return transform.Outcome{}, err
	}

	if c.revision == rev {
		c.ds = out.Dataset
		c.revision = uuid.New()
	}

	kind := NotifySuccess
	if out.Noop {
		kind = NotifyInfo
	}
	c.notify(kind, out.Message, "")

	logger.Info("operation applied",
		"rows", out.Dataset.Len(),
		"affected", out.Affected,
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return out, nil
}

// Export renders the dataset into w and returns the suggested file name.
//
// With no rows to export an info notification is raised and ErrNoData is
// returned without writing. The file is rendered in memory first so a
// failure never leaves partial output in w.
func (c *Controller) Export(ctx context.Context, w io.Writer, format tabular.Format) (string, error) {
	c.mu.RLock()
	state, ds, display := c.state, c.ds, c.displayName
	c.mu.RUnlock()

	if state == StateProcessing {
		c.fail(ErrBusy)
		return "", ErrBusy
	}
	if state == StateEmpty || ds.IsEmpty() {
		c.inform(tabular.ErrNoData)
		return "", tabular.ErrNoData
	}

	opts := c.exportOpts
	opts.Format = format

	var buf bytes.Buffer
	if err := tabular.Export(&buf, ds, opts); err != nil {
		err = fmt.Errorf("%w: %v", ErrExportWrite, err)
		logging.FromContext(ctx).Error("export failed", "error", err)
		c.fail(err)
		return "", err
	}

	name := tabular.ExportFileName(display, c.now(), opts.Format)
	if _, err := buf.WriteTo(w); err != nil {
		err = fmt.Errorf("%w: %v", ErrExportWrite, err)
		logging.FromContext(ctx).Error("export failed", "file", name, "error", err)
		c.fail(err)
		return "", err
	}

	c.mu.Lock()
	c.notify(NotifySuccess, "Data exported successfully!", "")
	c.mu.Unlock()

	logging.FromContext(ctx).Info("dataset exported", "file", name, "rows", ds.Len())
	return name, nil
}

// Clear discards the dataset and returns to Empty.
func (c *Controller) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateEmpty:
		return ErrInvalidState
	case StateProcessing:
		c.setNote(NotifyError, MapError(ErrBusy))
		return ErrBusy
	}

	c.state = StateEmpty
	c.ds = dataset.Dataset{}
	c.displayName = ""
	c.revision = uuid.Nil
	c.loadedAt = time.Time{}
	c.note = nil

	logging.FromContext(ctx).Info("dataset cleared")
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// Dataset returns the current dataset. Rows are shared, not copied; callers
// must not modify them.
func (c *Controller) Dataset() dataset.Dataset {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ds.WithRows(c.ds.Rows)
}

// DisplayName returns the loaded file's name without extension.
func (c *Controller) DisplayName() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.displayName
}

// Notification returns the current notification, or nil once it has expired.
func (c *Controller) Notification() *Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentNote()
}

// DismissNotification clears the current notification if its id matches.
func (c *Controller) DismissNotification(id uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.note != nil && c.note.ID == id {
		c.note = nil
	}
}

// Report raises an error notification for a failure the controller did not
// see itself, such as a malformed upload request.
func (c *Controller) Report(err error) {
	c.fail(err)
}

// Engine returns the executor's status.
func (c *Controller) Engine() engine.Status {
	return engine.StatusOf(c.exec)
}

// BootstrapEngine starts the executor's one-time setup if it has one.
// It reports whether a bootstrap was started.
func (c *Controller) BootstrapEngine(ctx context.Context) bool {
	b, ok := c.exec.(engine.Bootstrapper)
	if !ok {
		return false
	}
	b.Bootstrap(ctx)
	return true
}

// Drain waits for an in-flight operation to finish.
func (c *Controller) Drain(ctx context.Context) error {
	return c.limiter.WaitForDrain(ctx)
}

// notify must be called with mu held.
func (c *Controller) notify(kind NotificationKind, msg, code string) {
	c.note = newNotification(kind, msg, code, c.now(), c.ttl)
}

// setNote must be called with mu held.
func (c *Controller) setNote(kind NotificationKind, um UserMessage) {
	c.notify(kind, um.Message, um.Code)
}

func (c *Controller) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNote(NotifyError, MapError(err))
}

func (c *Controller) inform(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setNote(NotifyInfo, MapError(err))
}

// currentNote must be called with mu held for writing.
func (c *Controller) currentNote() *Notification {
	if c.note != nil && c.note.Expired(c.now()) {
		c.note = nil
	}
	if c.note == nil {
		return nil
	}
	n := *c.note
	return &n
}
