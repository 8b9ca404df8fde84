package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObserverFunc_BuildsVerboseEvent(t *testing.T) {
	var got VerboseEvent
	f := ObserverFunc(func(e VerboseEvent) { got = e })

	f.OnEvent(LevelInfo, func() string { return "hello" })

	assert.Equal(t, VerboseEvent{Level: LevelInfo, Message: "hello"}, got)
}

func TestObserverFunc_Nil(t *testing.T) {
	var f ObserverFunc
	assert.NotPanics(t, func() {
		f.OnEvent(LevelInfo, func() string { return "unreachable" })
	})
}

func TestDiscard_NeverCallsMessageFn(t *testing.T) {
	called := false
	Discard.OnEvent(LevelError, func() string {
		called = true
		return ""
	})
	assert.False(t, called)
}

func TestLeveled_FiltersByThreshold(t *testing.T) {
	var received []VerboseEvent
	obs := Leveled(LevelInfo, func(e VerboseEvent) { received = append(received, e) })

	calls := 0
	msg := func() string { calls++; return "m" }

	obs.OnEvent(LevelError, msg)
	obs.OnEvent(LevelInfo, msg)
	obs.OnEvent(LevelVerbose, msg)

	assert.Len(t, received, 2)
	assert.Equal(t, 2, calls, "messageFn must not be invoked above the threshold")
}

func TestLeveled_NilSink(t *testing.T) {
	obs := Leveled(LevelVerbose, nil)
	assert.NotPanics(t, func() {
		obs.OnEvent(LevelError, func() string { return "x" })
	})
}
