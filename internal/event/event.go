// Package event carries the progress/diagnostic contract between
// internal/engine and whatever watches a copy run. It never touches
// the filesystem or a terminal directly.
package event

// Level orders verbosity from most to least important. A sink that
// only wants errors and final status watches Level 0; a sink that
// wants per-chunk detail watches the highest level the engine emits.
type Level int

const (
	// LevelError carries operation-fatal or summary information; it is
	// always worth showing.
	LevelError Level = 0
	// LevelInfo carries one line per completed file.
	LevelInfo Level = 1
	// LevelVerbose carries per-file detail beyond completion, such as
	// files skipped because the destination is already identical. No
	// per-chunk or gate-wait events are emitted.
	LevelVerbose Level = 2
)

// VerboseEvent is a single observable occurrence inside a copy
// operation.
type VerboseEvent struct {
	Level   Level
	Message string
}

// Observer receives copy-engine occurrences. messageFn is passed
// instead of a formatted string so that an observer filtering below
// its threshold never pays for the fmt.Sprintf it would have
// discarded.
type Observer interface {
	OnEvent(level Level, messageFn func() string)
}

// ObserverFunc adapts a plain func(VerboseEvent) into an Observer. The
// message is materialized unconditionally, so callers that need the
// lazy-construction benefit should implement Observer directly instead.
type ObserverFunc func(VerboseEvent)

// OnEvent implements Observer.
func (f ObserverFunc) OnEvent(level Level, messageFn func() string) {
	if f == nil {
		return
	}
	f(VerboseEvent{Level: level, Message: messageFn()})
}

type discard struct{}

func (discard) OnEvent(Level, func() string) {}

// Discard is the zero-cost Observer used when the caller supplies none.
var Discard Observer = discard{}

// Leveled returns an Observer that calls sink with the formatted
// message for every event at or below threshold, and never invokes
// messageFn for events above it.
func Leveled(threshold Level, sink func(VerboseEvent)) Observer {
	return &leveled{threshold: threshold, sink: sink}
}

type leveled struct {
	threshold Level
	sink      func(VerboseEvent)
}

func (l *leveled) OnEvent(level Level, messageFn func() string) {
	if level > l.threshold || l.sink == nil {
		return
	}
	l.sink(VerboseEvent{Level: level, Message: messageFn()})
}
