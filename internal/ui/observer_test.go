package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dkrahmer/pfcopy/internal/event"
)

func TestNewLineObserver_FiltersByThreshold(t *testing.T) {
	var buf bytes.Buffer
	obs := NewLineObserver(&buf, event.LevelInfo)

	obs.OnEvent(event.LevelError, func() string { return "fatal" })
	obs.OnEvent(event.LevelInfo, func() string { return "file done" })
	obs.OnEvent(event.LevelVerbose, func() string { return "chunk 3" })

	out := buf.String()
	assert.Contains(t, out, "fatal")
	assert.Contains(t, out, "file done")
	assert.NotContains(t, out, "chunk 3")
}

func TestNewQuietObserver_OnlyShowsErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	obs := NewQuietObserver(&buf)

	obs.OnEvent(event.LevelInfo, func() string { return "file done" })
	obs.OnEvent(event.LevelError, func() string { return "summary" })

	assert.Equal(t, "summary\n", buf.String())
}
