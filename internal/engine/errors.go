package engine

import (
	"fmt"
	"strings"
	"sync"
)

// Kind is the closed taxonomy of errors a CopyEngine can raise.
type Kind int

const (
	KindInvalidArgument Kind = iota
	KindNotFound
	KindIoRead
	KindIoWrite
	KindIoRename
	KindIoDelete
	KindIoMetadata
	KindCancelled
	KindAggregate
)

var kindNames = [...]string{
	KindInvalidArgument: "InvalidArgument",
	KindNotFound:        "NotFound",
	KindIoRead:          "IoRead",
	KindIoWrite:         "IoWrite",
	KindIoRename:        "IoRename",
	KindIoDelete:        "IoDelete",
	KindIoMetadata:      "IoMetadata",
	KindCancelled:       "Cancelled",
	KindAggregate:       "Aggregate",
}

func (k Kind) String() string {
	if int(k) >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Error is the concrete error type raised by the engine. Src/Dst are
// the paths involved, when known; Err is the underlying cause.
type Error struct {
	Kind Kind
	Src  string
	Dst  string
	Err  error
}

func newError(kind Kind, src, dst string, err error) *Error {
	return &Error{Kind: kind, Src: src, Dst: dst, Err: err}
}

func newErrorf(kind Kind, src, dst, format string, args ...any) *Error {
	return newError(kind, src, dst, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Src != "" {
		fmt.Fprintf(&b, " %s", e.Src)
	}
	if e.Dst != "" {
		fmt.Fprintf(&b, " -> %s", e.Dst)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %s", e.Err)
	}
	return b.String()
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Err }

// AggregateError wraps two or more errors raised during a single
// operation.
type AggregateError struct {
	Errs []error
}

func (a *AggregateError) Error() string {
	msgs := make([]string, len(a.Errs))
	for i, err := range a.Errs {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(a.Errs), strings.Join(msgs, "; "))
}

// Kind reports KindAggregate, matching the engine's closed taxonomy.
func (a *AggregateError) Kind() Kind { return KindAggregate }

// errorBag accumulates errors from concurrently running file copies
// and directory walks, and resolves them into a single error per
// spec: nil if empty, the lone error if one, an *AggregateError
// otherwise.
type errorBag struct {
	mu   sync.Mutex
	errs []error
}

func newErrorBag() *errorBag {
	return &errorBag{}
}

func (b *errorBag) add(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	b.errs = append(b.errs, err)
	b.mu.Unlock()
}

func (b *errorBag) reset() {
	b.mu.Lock()
	b.errs = nil
	b.mu.Unlock()
}

func (b *errorBag) resolve() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch len(b.errs) {
	case 0:
		return nil
	case 1:
		return b.errs[0]
	default:
		cp := make([]error, len(b.errs))
		copy(cp, b.errs)
		return &AggregateError{Errs: cp}
	}
}
