package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tamahere/sops-pilot/internal/session"
	"github.com/tamahere/sops-pilot/internal/sops"
)

var serveDebounce time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the editor session daemon on stdin/stdout",
	Long: `Reads newline-delimited JSON editor events on stdin and emits JSON
notifications and view commands on stdout. Editor plugins spawn this
process and stream open, save, close, and focus events into it; the
daemon decrypts encrypted documents to working copies, re-encrypts on
save, and cleans up working copies the user has navigated away from.

Events look like:

  {"type":"open","path":"/p/secret.yaml","text":"...full text..."}
  {"type":"save","path":"/p/secret_decrypted.yaml","text":"..."}
  {"type":"close","path":"/p/secret_decrypted.yaml"}
  {"type":"focus","path":"/p/secret_decrypted.yaml"}`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := initRun(); err != nil {
			return err
		}
		Logger.Infof("Starting serve command")

		tool := sops.New(userConfig.SopsBinary, Logger)
		if err := tool.CheckAvailable(); err != nil {
			return Logger.ErrorfAndReturn("%v", err)
		}

		debounce := serveDebounce
		if debounce <= 0 {
			debounce = userConfig.CleanupDebounce()
		}

		stream := newStream(os.Stdout)
		engine := session.New(session.Options{
			Tool:          tool,
			Viewer:        stream,
			Notifier:      stream,
			Logger:        Logger,
			WorkingSuffix: userConfig.WorkingSuffix,
			Debounce:      debounce,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			defer stop()
			scanner := bufio.NewScanner(os.Stdin)
			scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
			for scanner.Scan() {
				line := scanner.Bytes()
				if len(line) == 0 {
					continue
				}
				var ev session.Event
				if err := json.Unmarshal(line, &ev); err != nil {
					Logger.Warnf("Dropping malformed event: %v", err)
					continue
				}
				stream.observe(ev)
				engine.Submit(ev)
			}
		}()

		err := engine.Run(ctx)
		Logger.Infof("Serve command shut down")
		if err != nil && err != ctx.Err() {
			return Logger.ErrorfAndReturn("session engine failed: %v", err)
		}
		return nil
	},
}

func init() {
	AddCommonFlags(serveCmd)
	serveCmd.Flags().DurationVar(&serveDebounce, "debounce", 0, "focus-quiescence window before cleanup (default: from config)")
}

// stream adapts the NDJSON stdin/stdout protocol to the engine's Viewer
// and Notifier. Visibility and focus are tracked from the event stream;
// view commands are emitted for the editor plugin to act on. The mutex
// covers the engine goroutine and the stdin reader.
type stream struct {
	mu      sync.Mutex
	enc     *json.Encoder
	visible map[string]bool
	focused string
}

func newStream(out *os.File) *stream {
	return &stream{
		enc:     json.NewEncoder(out),
		visible: make(map[string]bool),
	}
}

// observe updates visibility and focus from an incoming editor event.
func (s *stream) observe(ev session.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch ev.Type {
	case session.EventOpen:
		s.visible[ev.Path] = true
	case session.EventClose:
		delete(s.visible, ev.Path)
	case session.EventFocus:
		s.focused = ev.Path
	}
}

type outMessage struct {
	Type    string `json:"type"`
	Path    string `json:"path,omitempty"`
	Level   string `json:"level,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *stream) emit(msg outMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(msg); err != nil {
		Logger.Warnf("Failed to emit message: %v", err)
	}
}

func (s *stream) OpenView(path string) error {
	s.mu.Lock()
	s.visible[path] = true
	s.focused = path
	s.mu.Unlock()
	s.emit(outMessage{Type: "open_view", Path: path})
	return nil
}

func (s *stream) CloseView(path string) bool {
	s.mu.Lock()
	wasVisible := s.visible[path]
	delete(s.visible, path)
	s.mu.Unlock()
	if wasVisible {
		s.emit(outMessage{Type: "close_view", Path: path})
	}
	return wasVisible
}

func (s *stream) IsVisible(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible[path]
}

func (s *stream) Focused() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.focused, s.focused != ""
}

func (s *stream) Infof(format string, args ...any) {
	s.emit(outMessage{Type: "notice", Level: "info", Message: fmt.Sprintf(format, args...)})
}

func (s *stream) Errorf(format string, args ...any) {
	s.emit(outMessage{Type: "notice", Level: "error", Message: fmt.Sprintf(format, args...)})
}

func (s *stream) Criticalf(format string, args ...any) {
	s.emit(outMessage{Type: "notice", Level: "critical", Message: fmt.Sprintf(format, args...)})
}
