package observability

import (
	"context"
	"io"
	"log"
	"log/slog"
	"os"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// NewLogger builds a structured logger on stderr. Level and format follow the
// shared service logger (LOG_LEVEL, LOG_FORMAT); only the destination differs,
// since stdout carries the command's own output.
func NewLogger(level, format string) *slog.Logger {
	return newLogger(os.Stderr, level, format)
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	// sharedobs.NewLogger installs itself as the slog default and redirects the
	// log package; undo both.
	prev, prevOut, prevFlags := slog.Default(), log.Writer(), log.Flags()
	shared := sharedobs.NewLogger(level, format)
	slog.SetDefault(prev)
	log.SetOutput(prevOut)
	log.SetFlags(prevFlags)

	opts := &slog.HandlerOptions{Level: minLevel(shared)}
	if _, ok := shared.Handler().(*slog.TextHandler); ok {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// minLevel reports the lowest level l emits.
func minLevel(l *slog.Logger) slog.Level {
	ctx := context.Background()
	for _, lvl := range []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn} {
		if l.Enabled(ctx, lvl) {
			return lvl
		}
	}
	return slog.LevelError
}
