package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	logger "github.com/tamahere/sops-pilot/internal/logging"
	"github.com/tamahere/sops-pilot/internal/sops"
)

// fakeViewer records view operations and simulates editor visibility.
type fakeViewer struct {
	visible map[string]bool
	focused string
	opened  []string
	closed  []string
}

func newFakeViewer() *fakeViewer {
	return &fakeViewer{visible: make(map[string]bool)}
}

func (v *fakeViewer) OpenView(path string) error {
	v.opened = append(v.opened, path)
	v.visible[path] = true
	v.focused = path
	return nil
}

func (v *fakeViewer) CloseView(path string) bool {
	v.closed = append(v.closed, path)
	if v.visible[path] {
		delete(v.visible, path)
		return true
	}
	return false
}

func (v *fakeViewer) IsVisible(path string) bool { return v.visible[path] }

func (v *fakeViewer) Focused() (string, bool) { return v.focused, v.focused != "" }

// fakeNotifier collects notifications by level.
type fakeNotifier struct {
	infos     []string
	errors    []string
	criticals []string
}

func (n *fakeNotifier) Infof(format string, args ...any) {
	n.infos = append(n.infos, fmt.Sprintf(format, args...))
}

func (n *fakeNotifier) Errorf(format string, args ...any) {
	n.errors = append(n.errors, fmt.Sprintf(format, args...))
}

func (n *fakeNotifier) Criticalf(format string, args ...any) {
	n.criticals = append(n.criticals, fmt.Sprintf(format, args...))
}

// encryptedDoc is document text that satisfies the heuristic.
const encryptedDoc = "secret: ENC[AES256_GCM,data:AAAA]\nsops:\n    version: 3.8.1\n"

func fakeSops(t *testing.T, dir, script string) sops.Tool {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake sops script requires a POSIX shell")
	}
	path := filepath.Join(dir, "fake-sops")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil { // #nosec G306
		t.Fatalf("Failed to write fake sops: %v", err)
	}
	return sops.New(path, logger.Logger{})
}

type engineFixture struct {
	engine *Engine
	viewer *fakeViewer
	notify *fakeNotifier
	dir    string
}

func newFixture(t *testing.T, script string) *engineFixture {
	t.Helper()
	dir := t.TempDir()
	viewer := newFakeViewer()
	notify := &fakeNotifier{}
	engine := New(Options{
		Tool:          fakeSops(t, dir, script),
		Viewer:        viewer,
		Notifier:      notify,
		WorkingSuffix: "_clear",
		Debounce:      20 * time.Millisecond,
	})
	return &engineFixture{engine: engine, viewer: viewer, notify: notify, dir: dir}
}

func (f *engineFixture) writeOriginal(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.dir, name)
	if err := os.WriteFile(path, []byte(encryptedDoc), 0600); err != nil {
		t.Fatalf("Failed to write original: %v", err)
	}
	return path
}

func (f *engineFixture) open(t *testing.T, path string) string {
	t.Helper()
	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: path, Text: encryptedDoc})
	working, ok := f.engine.registry.WorkingFor(path)
	if !ok {
		t.Fatalf("Expected a pair registered for %s", path)
	}
	return working
}

func TestOpen_DecryptsAndRegistersPair(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")

	working := f.open(t, original)

	if working != filepath.Join(f.dir, "secret_clear.yaml") {
		t.Errorf("Unexpected working path: %s", working)
	}
	if data, err := os.ReadFile(working); err != nil || string(data) != "secret: plain\n" {
		t.Errorf("Expected plaintext working copy, got: %q, %v", data, err)
	}
	if len(f.viewer.opened) != 1 || f.viewer.opened[0] != working {
		t.Errorf("Expected a view opened on the working copy, got: %v", f.viewer.opened)
	}
}

func TestOpen_AlreadyTrackedIsNoop(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")

	working := f.open(t, original)

	// Re-open the original, then the working copy. Neither may create a
	// new pair or a new decrypt.
	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: original, Text: encryptedDoc})
	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: working, Text: "secret: plain\n"})

	if f.engine.registry.Len() != 1 {
		t.Errorf("Expected exactly one pair, got: %d", f.engine.registry.Len())
	}
	if len(f.viewer.opened) != 1 {
		t.Errorf("Expected exactly one view open, got: %d", len(f.viewer.opened))
	}
}

func TestOpen_PlaintextIsNoop(t *testing.T) {
	f := newFixture(t, `printf 'should-not-run\n'`)
	path := filepath.Join(f.dir, "plain.yaml")

	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: path, Text: "password: hunter2\n"})

	if f.engine.registry.Len() != 0 {
		t.Error("Expected no pair for plaintext document")
	}
}

func TestOpen_NonFileSchemeAndStaleEventsIgnored(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")

	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: original, Text: encryptedDoc, Scheme: "untitled"})
	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: original, Text: encryptedDoc, Closed: true})

	if f.engine.registry.Len() != 0 {
		t.Error("Expected no pair for ignored events")
	}
}

func TestOpen_DecryptFailureLeavesNoPartialState(t *testing.T) {
	f := newFixture(t, `echo 'no key found' >&2; exit 1`)
	original := f.writeOriginal(t, "secret.yaml")

	f.engine.handleOpen(context.Background(), Event{Type: EventOpen, Path: original, Text: encryptedDoc})

	if f.engine.registry.Len() != 0 {
		t.Error("Expected no pair after decrypt failure")
	}
	if len(f.notify.errors) != 1 || !strings.Contains(f.notify.errors[0], "no key found") {
		t.Errorf("Expected one error notification with diagnostics, got: %v", f.notify.errors)
	}
}

func TestSave_ReencryptsAndKeepsPair(t *testing.T) {
	f := newFixture(t, `
case "$1" in
--decrypt) printf 'secret: plain\n' ;;
--encrypt) printf 'ENC-OUTPUT\n' > "$3" ;;
esac`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	f.engine.handleSave(context.Background(), Event{Type: EventSave, Path: working, Text: "secret: edited\n"})

	if data, _ := os.ReadFile(original); string(data) != "ENC-OUTPUT\n" {
		t.Errorf("Expected original re-encrypted, got: %q", data)
	}
	if !f.engine.registry.Tracked(working) {
		t.Error("Expected pair to stay registered after save")
	}
	if len(f.notify.infos) == 0 {
		t.Error("Expected a success notification")
	}
}

func TestSave_FailureKeepsPairAndRestoresOriginal(t *testing.T) {
	f := newFixture(t, `
case "$1" in
--decrypt) printf 'secret: plain\n' ;;
--encrypt) echo 'keyservice unavailable' >&2; exit 1 ;;
esac`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	f.engine.handleSave(context.Background(), Event{Type: EventSave, Path: working, Text: "secret: edited\n"})

	if data, _ := os.ReadFile(original); string(data) != encryptedDoc {
		t.Errorf("Expected original restored, got: %q", data)
	}
	if !f.engine.registry.Tracked(working) {
		t.Error("Expected pair to stay registered after failed save")
	}
	if len(f.notify.errors) != 1 {
		t.Errorf("Expected one error notification, got: %v", f.notify.errors)
	}
	if len(f.notify.criticals) != 0 {
		t.Errorf("Expected no critical notification, got: %v", f.notify.criticals)
	}
}

func TestSave_UntrackedPathIsNoop(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)

	f.engine.handleSave(context.Background(), Event{Type: EventSave, Path: "/nowhere.yaml", Text: "x"})

	if len(f.notify.errors)+len(f.notify.infos) != 0 {
		t.Error("Expected no notifications for untracked save")
	}
}

func TestClose_WorkingCopyRemovesPairAndFile(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	f.engine.handleClose(Event{Type: EventClose, Path: working})

	if f.engine.registry.Len() != 0 {
		t.Error("Expected pair removed")
	}
	if _, ok := f.engine.registry.WorkingFor(original); ok {
		t.Error("Expected no residual entry queryable from the original")
	}
	if _, err := os.Stat(working); !os.IsNotExist(err) {
		t.Error("Expected working copy deleted")
	}
}

func TestClose_OriginalWithVisibleWorkingViewCascades(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	f.engine.handleClose(Event{Type: EventClose, Path: original})

	if f.engine.registry.Len() != 0 {
		t.Error("Expected pair removed through the view-close cascade")
	}
	if _, err := os.Stat(working); !os.IsNotExist(err) {
		t.Error("Expected working copy deleted")
	}
	if len(f.viewer.closed) == 0 || f.viewer.closed[0] != working {
		t.Errorf("Expected the working view closed, got: %v", f.viewer.closed)
	}
}

func TestClose_OriginalWithoutVisibleViewLeavesPair(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	// Simulate the working view having been hidden by the editor.
	delete(f.viewer.visible, working)

	f.engine.handleClose(Event{Type: EventClose, Path: original})

	if !f.engine.registry.Tracked(working) {
		t.Error("Expected pair to stay registered; lazy cleanup collects it")
	}
	if _, err := os.Stat(working); err != nil {
		t.Error("Expected working copy untouched")
	}
}

func TestCleanup_SparesFocusedPairTearsDownOthers(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	first := f.writeOriginal(t, "first.yaml")
	second := f.writeOriginal(t, "second.yaml")
	firstWorking := f.open(t, first)
	secondWorking := f.open(t, second)

	f.viewer.focused = firstWorking
	f.engine.runCleanup()

	if !f.engine.registry.Tracked(firstWorking) {
		t.Error("Expected the focused pair to survive")
	}
	if f.engine.registry.Tracked(secondWorking) {
		t.Error("Expected the unfocused pair torn down")
	}
	if _, err := os.Stat(secondWorking); !os.IsNotExist(err) {
		t.Error("Expected the unfocused working copy deleted")
	}
	if _, err := os.Stat(firstWorking); err != nil {
		t.Error("Expected the focused working copy untouched")
	}
}

func TestCleanup_FocusOnOriginalAlsoSparesPair(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	f.open(t, original)

	f.viewer.focused = original
	f.engine.runCleanup()

	if !f.engine.registry.Tracked(original) {
		t.Error("Expected pair spared when the original has focus")
	}
}

func TestCleanup_InvisibleWorkingCopyDeletedDirectly(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	delete(f.viewer.visible, working)
	f.viewer.focused = ""
	closesBefore := len(f.viewer.closed)

	f.engine.runCleanup()

	if f.engine.registry.Len() != 0 {
		t.Error("Expected pair removed")
	}
	if _, err := os.Stat(working); !os.IsNotExist(err) {
		t.Error("Expected working copy deleted")
	}
	if len(f.viewer.closed) != closesBefore {
		t.Error("Expected no view close for an invisible working copy")
	}
}

func TestCleanup_ReentrancyGuard(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	f.open(t, original)
	f.viewer.focused = ""

	f.engine.cleaning = true
	f.engine.runCleanup()

	if f.engine.registry.Len() != 1 {
		t.Error("Expected the sweep skipped while one is outstanding")
	}

	f.engine.cleaning = false
	f.engine.runCleanup()

	if f.engine.registry.Len() != 0 {
		t.Error("Expected the sweep to run once the guard clears")
	}
}

func TestFocusDebounce_TrailingEdge(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	original := f.writeOriginal(t, "secret.yaml")
	working := f.open(t, original)

	f.viewer.focused = ""

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = f.engine.Run(ctx)
		close(done)
	}()

	// A burst of focus changes: only the last one may trigger a sweep.
	for i := 0; i < 5; i++ {
		f.engine.Submit(Event{Type: EventFocus})
		time.Sleep(5 * time.Millisecond)
	}

	// After the debounce window quiesces, the unrelated copy is gone.
	// Watch the filesystem rather than engine state, which belongs to the
	// Run goroutine.
	deadline := time.After(2 * time.Second)
	for {
		if _, err := os.Stat(working); os.IsNotExist(err) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Timed out waiting for debounced cleanup")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done

	if f.engine.registry.Len() != 0 {
		t.Error("Expected pair removed by the debounced sweep")
	}
}

func TestShutdown_SweepsEverything(t *testing.T) {
	f := newFixture(t, `printf 'secret: plain\n'`)
	first := f.writeOriginal(t, "first.yaml")
	second := f.writeOriginal(t, "second.yaml")
	firstWorking := f.open(t, first)
	secondWorking := f.open(t, second)

	f.engine.Shutdown()

	if f.engine.registry.Len() != 0 {
		t.Error("Expected all pairs removed")
	}
	for _, working := range []string{firstWorking, secondWorking} {
		if _, err := os.Stat(working); !os.IsNotExist(err) {
			t.Errorf("Expected %s deleted", working)
		}
	}
}
