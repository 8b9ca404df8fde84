package ui

import (
	"fmt"
	"io"

	"github.com/dkrahmer/pfcopy/internal/event"
)

// NewLineObserver returns an event.Observer that writes one line per
// event at or below threshold to w. A threshold of event.LevelError
// shows only operation-fatal/summary lines; event.LevelVerbose shows
// everything the engine emits.
func NewLineObserver(w io.Writer, threshold event.Level) event.Observer {
	return event.Leveled(threshold, func(e event.VerboseEvent) {
		fmt.Fprintln(w, e.Message)
	})
}

// NewQuietObserver returns an event.Observer that drops everything
// below event.LevelError, so only the final summary line is shown.
func NewQuietObserver(w io.Writer) event.Observer {
	return NewLineObserver(w, event.LevelError)
}
