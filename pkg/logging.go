package cutarelease

import (
	"errors"
	"io"
	"os"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// NewLogger returns a console logger writing to w at the given level.
func NewLogger(w io.Writer, level zerolog.Level) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !term.IsTerminal(int(f.Fd()))
	}
	out := zerolog.ConsoleWriter{
		Out:        PipeSafe(w),
		TimeFormat: "15:04:05",
		NoColor:    noColor,
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// PipeSafe wraps w so that writing to a closed pipe (for example output piped
// into a pager that was quit) is silently dropped instead of failing.
func PipeSafe(w io.Writer) io.Writer {
	return pipeSafeWriter{w}
}

type pipeSafeWriter struct {
	w io.Writer
}

func (p pipeSafeWriter) Write(b []byte) (int, error) {
	n, err := p.w.Write(b)
	if err != nil && errors.Is(err, syscall.EPIPE) {
		return len(b), nil
	}
	return n, err
}
