// ABOUTME: Logger construction shared by the daemon and the CLI
// ABOUTME: Console-formatted zerolog output at a named level

package log

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
)

// New builds a console logger writing to w. Level names follow zerolog:
// trace, debug, info, warn, error, fatal, panic.
func New(level string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("parsing log level %q: %w", level, err)
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: "2006-01-02 15:04:05"}
	return zerolog.New(out).Level(lvl).With().Timestamp().Logger(), nil
}

// NewNop returns a logger that discards everything.
func NewNop() zerolog.Logger {
	return zerolog.Nop()
}
