package cutarelease

import (
	"errors"
	"fmt"
)

// Error classes. Every error returned by this package matches exactly one
// of these with errors.Is.
var (
	ErrInput   = errors.New("input error")
	ErrFormat  = errors.New("format error")
	ErrState   = errors.New("state error")
	ErrProcess = errors.New("process error")
)

// Specific failures, each belonging to one class.
var (
	ErrNoVersionFile       = &kindError{msg: "no version file", class: ErrInput}
	ErrNoAnswer            = &kindError{msg: "no answer", class: ErrInput}
	ErrConfig              = &kindError{msg: "invalid config", class: ErrInput}
	ErrUnrecognizedFormat  = &kindError{msg: "unrecognized version file format", class: ErrFormat}
	ErrMissingMarker       = &kindError{msg: "missing version marker", class: ErrFormat}
	ErrInvalidVersion      = &kindError{msg: "invalid version", class: ErrFormat}
	ErrEmptyChangelog      = &kindError{msg: "empty changelog", class: ErrFormat}
	ErrInvalidVersionToken = &kindError{msg: "invalid changelog version", class: ErrFormat}
	ErrVersionMismatch     = &kindError{msg: "version mismatch", class: ErrState}
	ErrEmptyRelease        = &kindError{msg: "empty release", class: ErrState}
	ErrMarkerNotFound      = &kindError{msg: "marker not found", class: ErrState}
)

// kindError is a sentinel that also matches its class.
type kindError struct {
	msg   string
	class error
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool {
	return target == e.class
}

// errorf wraps kind with a formatted, contextual message. The result matches
// both kind and its class with errors.Is; the message is the detail only.
func errorf(kind error, format string, args ...any) error {
	return &detailError{kind: kind, detail: fmt.Sprintf(format, args...)}
}

type detailError struct {
	kind   error
	detail string
}

func (e *detailError) Error() string { return e.detail }

func (e *detailError) Unwrap() error { return e.kind }

// Class returns the class sentinel (ErrInput, ErrFormat, ErrState or
// ErrProcess) that err belongs to, or nil.
func Class(err error) error {
	for _, c := range []error{ErrInput, ErrFormat, ErrState, ErrProcess} {
		if errors.Is(err, c) {
			return c
		}
	}
	return nil
}
