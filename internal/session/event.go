package session

// EventType identifies an editor event.
type EventType string

const (
	// EventOpen fires when a document is opened.
	EventOpen EventType = "open"
	// EventSave fires when a document is saved.
	EventSave EventType = "save"
	// EventClose fires when a document is closed.
	EventClose EventType = "close"
	// EventFocus fires when the focused editor changes. An empty path
	// means no editor has focus.
	EventFocus EventType = "focus"

	// eventCleanup is the internal trigger the debounce timer enqueues.
	eventCleanup EventType = "cleanup"
)

// Event is one editor event on the serve stream.
type Event struct {
	Type EventType `json:"type"`

	// Path is the document's filesystem path.
	Path string `json:"path,omitempty"`

	// Scheme is the document's storage scheme; empty is treated as "file".
	// Non-file documents (untitled buffers, remote schemes) are ignored.
	Scheme string `json:"scheme,omitempty"`

	// Text carries the document's full text on open and save events.
	Text string `json:"text,omitempty"`

	// Closed marks a stale open event for an already-closed document.
	Closed bool `json:"closed,omitempty"`
}
