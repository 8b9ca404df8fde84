package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_UnwrapAndMessage(t *testing.T) {
	cause := errors.New("disk full")
	err := newError(KindIoWrite, "/src/a", "/dst/a", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "IoWrite")
	assert.Contains(t, err.Error(), "/src/a")
	assert.Contains(t, err.Error(), "/dst/a")
}

func TestKind_StringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Kind(999).String())
}

func TestErrorBag_ResolvesNilWhenEmpty(t *testing.T) {
	bag := newErrorBag()
	assert.NoError(t, bag.resolve())
}

func TestErrorBag_ResolvesSingleError(t *testing.T) {
	bag := newErrorBag()
	want := errors.New("boom")
	bag.add(want)
	assert.Equal(t, want, bag.resolve())
}

func TestErrorBag_ResolvesAggregateForMultiple(t *testing.T) {
	bag := newErrorBag()
	bag.add(errors.New("first"))
	bag.add(errors.New("second"))

	err := bag.resolve()
	var agg *AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errs, 2)
	assert.Equal(t, KindAggregate, agg.Kind())
}

func TestErrorBag_IgnoresNil(t *testing.T) {
	bag := newErrorBag()
	bag.add(nil)
	assert.NoError(t, bag.resolve())
}

func TestErrorBag_ResetClears(t *testing.T) {
	bag := newErrorBag()
	bag.add(errors.New("x"))
	bag.reset()
	assert.NoError(t, bag.resolve())
}
