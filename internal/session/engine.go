package session

import (
	"context"
	"errors"
	"time"

	pilotErrors "github.com/tamahere/sops-pilot/internal/errors"
	logger "github.com/tamahere/sops-pilot/internal/logging"
	"github.com/tamahere/sops-pilot/internal/sops"
	"github.com/tamahere/sops-pilot/internal/transform"
)

// Viewer is the engine's window on the editor: opening and closing views
// and observing what the user is looking at.
type Viewer interface {
	// OpenView opens and focuses an editor view on path.
	OpenView(path string) error

	// CloseView closes any visible view on path, reporting whether one
	// was visible.
	CloseView(path string) bool

	// IsVisible reports whether any view on path is visible.
	IsVisible(path string) bool

	// Focused returns the path of the focused document, if any.
	Focused() (string, bool)
}

// Notifier delivers user-facing reports. Critical is reserved for the
// unrecoverable case where a failed re-encryption could not be rolled back.
type Notifier interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
	Criticalf(format string, args ...any)
}

// Options configures an Engine.
type Options struct {
	Tool     sops.Tool
	Viewer   Viewer
	Notifier Notifier
	Logger   logger.Logger

	// WorkingSuffix is used when decrypted output carries no suffix
	// directive.
	WorkingSuffix string

	// Debounce is the focus-quiescence window before unrelated working
	// copies are torn down.
	Debounce time.Duration
}

// Engine is the session state machine: it tracks which encrypted originals
// have an open decrypted copy and drives the side effects that keep that
// state consistent with editor events.
//
// All transitions run on the single Run goroutine, so the registry needs no
// locking. The debounce timer fires on its own goroutine but only enqueues
// an internal event; the cleaning flag additionally stops a sweep from
// re-entering itself through the view-close cascade.
type Engine struct {
	tool     sops.Tool
	registry *Registry
	viewer   Viewer
	notify   Notifier
	log      logger.Logger
	suffix   string
	debounce time.Duration

	events       chan Event
	cleanupTimer *time.Timer
	cleaning     bool
}

func New(opts Options) *Engine {
	suffix := opts.WorkingSuffix
	if suffix == "" {
		suffix = "_decrypted"
	}
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 2 * time.Second
	}
	return &Engine{
		tool:     opts.Tool,
		registry: NewRegistry(),
		viewer:   opts.Viewer,
		notify:   opts.Notifier,
		log:      opts.Logger,
		suffix:   suffix,
		debounce: debounce,
		events:   make(chan Event, 64),
	}
}

// Submit enqueues an event for the Run loop.
func (e *Engine) Submit(ev Event) {
	e.events <- ev
}

// Run consumes events until ctx is cancelled, then sweeps every remaining
// pair so no plaintext outlives the session.
func (e *Engine) Run(ctx context.Context) error {
	defer e.stopCleanupTimer()
	for {
		select {
		case <-ctx.Done():
			e.Shutdown()
			return ctx.Err()
		case ev := <-e.events:
			e.dispatch(ctx, ev)
		}
	}
}

func (e *Engine) dispatch(ctx context.Context, ev Event) {
	switch ev.Type {
	case EventOpen:
		e.handleOpen(ctx, ev)
	case EventSave:
		e.handleSave(ctx, ev)
	case EventClose:
		e.handleClose(ev)
	case EventFocus:
		e.handleFocus()
	case eventCleanup:
		e.runCleanup()
	default:
		e.log.Debugf("Ignoring unknown event type %q", ev.Type)
	}
}

// handleOpen decrypts a newly opened encrypted document into a working
// copy and registers the pair. Non-file documents, already-tracked paths,
// stale events, and documents that don't look encrypted are all no-ops.
func (e *Engine) handleOpen(ctx context.Context, ev Event) {
	if ev.Scheme != "" && ev.Scheme != "file" {
		e.log.Debugf("Ignoring open of non-file scheme %q", ev.Scheme)
		return
	}
	if ev.Closed {
		e.log.Debugf("Ignoring stale open event for %s", ev.Path)
		return
	}
	if e.registry.Tracked(ev.Path) {
		e.log.Debugf("Path already tracked: %s", ev.Path)
		return
	}
	if !sops.LooksEncrypted([]byte(ev.Text)) {
		return
	}

	workingPath, err := transform.DecryptToTemp(ctx, e.tool, ev.Path, e.suffix)
	if err != nil {
		// No pair registered: decrypt failure leaves no partial state.
		e.notify.Errorf("Failed to decrypt %s: %v", ev.Path, err)
		return
	}

	if err := e.registry.Register(ev.Path, workingPath); err != nil {
		// A pair appeared while the decrypt was in flight; drop our copy
		// rather than double-register.
		e.log.Debugf("Discarding duplicate working copy for %s: %v", ev.Path, err)
		if removeErr := transform.RemoveWorkingCopy(workingPath); removeErr != nil {
			e.log.Warnf("%v", removeErr)
		}
		return
	}

	e.log.Infof("Decrypted %s to %s", ev.Path, workingPath)
	if err := e.viewer.OpenView(workingPath); err != nil {
		e.notify.Errorf("Failed to open editor view on %s: %v", workingPath, err)
	}
}

// handleSave re-encrypts the original when a working copy is saved. The
// pair stays registered whatever the outcome: the user's in-progress edits
// must survive a failed re-encryption.
func (e *Engine) handleSave(ctx context.Context, ev Event) {
	original, ok := e.registry.OriginalFor(ev.Path)
	if !ok {
		return
	}

	err := transform.EncryptAndReplace(ctx, e.tool, []byte(ev.Text), original)
	switch {
	case errors.Is(err, pilotErrors.ErrRestoreFailed):
		e.notify.Criticalf("Re-encryption of %s failed AND the backup could not be restored; the file may be left in plaintext: %v", original, err)
	case err != nil:
		e.notify.Errorf("Failed to re-encrypt %s: %v", original, err)
	default:
		e.notify.Infof("Re-encrypted %s", original)
	}
}

// handleClose tears down the pair when a working copy closes. When an
// original closes, a visible view on its working copy is closed, which
// cascades into the same teardown; with no visible view the pair stays
// registered and the focus sweep (or Shutdown) collects it later.
func (e *Engine) handleClose(ev Event) {
	if original, ok := e.registry.OriginalFor(ev.Path); ok {
		e.teardown(Pair{Original: original, Working: ev.Path})
		return
	}

	if working, ok := e.registry.WorkingFor(ev.Path); ok {
		if e.viewer.CloseView(working) {
			e.teardown(Pair{Original: ev.Path, Working: working})
		}
		// Not visible: leave the pair; lazy cleanup is the catch-all.
	}
}

// handleFocus restarts the debounce window. Focus changes fire in bursts
// during tab navigation; acting immediately would delete copies the user
// is about to revisit.
func (e *Engine) handleFocus() {
	e.stopCleanupTimer()
	e.cleanupTimer = time.AfterFunc(e.debounce, func() {
		e.events <- Event{Type: eventCleanup}
	})
}

// runCleanup tears down every pair unrelated to the currently focused
// path. Pairs with a visible working view are closed through the viewer;
// invisible ones are deleted directly.
func (e *Engine) runCleanup() {
	if e.cleaning {
		e.log.Debugf("Cleanup already running, skipping")
		return
	}
	e.cleaning = true
	defer func() { e.cleaning = false }()

	focused, _ := e.viewer.Focused()
	for _, pair := range e.registry.Pairs() {
		if pair.Original == focused || pair.Working == focused {
			continue
		}
		if e.viewer.IsVisible(pair.Working) {
			e.viewer.CloseView(pair.Working)
		}
		e.teardown(pair)
	}
}

// Shutdown tears down every remaining pair.
func (e *Engine) Shutdown() {
	for _, pair := range e.registry.Pairs() {
		e.viewer.CloseView(pair.Working)
		e.teardown(pair)
	}
}

// teardown deletes the working copy best-effort and unregisters the pair.
func (e *Engine) teardown(pair Pair) {
	if err := transform.RemoveWorkingCopy(pair.Working); err != nil {
		e.log.Warnf("%v", err)
	}
	if err := e.registry.Remove(pair.Original); err != nil {
		e.log.Debugf("%v", err)
		return
	}
	e.log.Infof("Cleaned up working copy for %s", pair.Original)
}

func (e *Engine) stopCleanupTimer() {
	if e.cleanupTimer != nil {
		e.cleanupTimer.Stop()
		e.cleanupTimer = nil
	}
}

// Pairs exposes a snapshot of the tracked pairs for status reporting.
func (e *Engine) Pairs() []Pair {
	return e.registry.Pairs()
}
