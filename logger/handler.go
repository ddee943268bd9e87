// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"context"
	"io"
	"log/slog"
	"runtime"

	"github.com/lmittmann/tint"
)

// newTextHandler returns the logfmt handler used when stderr is not a terminal.
// journald stamps every entry itself, so the time attribute is dropped there.
func newTextHandler(w io.Writer, journal bool) slog.Handler {
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: Level.lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				if journal {
					return slog.Attr{}
				}
			case slog.LevelKey:
				lvl, ok := a.Value.Any().(slog.Level)
				if ok {
					return slog.String(a.Key, levelName(lvl))
				}
			}
			return a
		},
	})
}

func newTerminalHandler(w io.Writer) slog.Handler {
	return tint.NewHandler(w, &tint.Options{
		NoColor:   runtime.GOOS == "windows",
		AddSource: true,
		Level:     Level.lvl,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				return slog.Attr{}
			case slog.SourceKey:
				if !Level.Enabled(slog.LevelDebug) {
					return slog.Attr{}
				}
			case slog.LevelKey:
				if lvl, ok := a.Value.Any().(slog.Level); ok {
					if s, ok := customLevelsTerm[lvl]; ok {
						return slog.String(a.Key, s)
					}
				}
			}
			return a
		},
	})
}

// callDepthHandler points the record source at the caller of the Logger method
// instead of the Logger itself.
type callDepthHandler struct {
	depth int
	sh    slog.Handler
}

func withCallDepth(depth int, sh slog.Handler) slog.Handler {
	if v, ok := sh.(*callDepthHandler); ok {
		sh = v.sh
	}
	return &callDepthHandler{depth: depth, sh: sh}
}

func (h *callDepthHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.sh.Enabled(ctx, level)
}

func (h *callDepthHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return withCallDepth(h.depth, h.sh.WithAttrs(attrs))
}

func (h *callDepthHandler) WithGroup(name string) slog.Handler {
	return withCallDepth(h.depth, h.sh.WithGroup(name))
}

func (h *callDepthHandler) Handle(ctx context.Context, r slog.Record) error {
	var pcs [1]uintptr
	// skip Callers and Handle
	runtime.Callers(h.depth+2, pcs[:])
	r.PC = pcs[0]

	return h.sh.Handle(ctx, r)
}
