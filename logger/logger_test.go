// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevel_SetByName(t *testing.T) {
	defer Level.Set(slog.LevelInfo)

	tests := map[string]struct {
		name string
		want slog.Level
	}{
		"error":    {name: "error", want: slog.LevelError},
		"err":      {name: "ERR", want: slog.LevelError},
		"warning":  {name: "warning", want: slog.LevelWarn},
		"notice":   {name: "notice", want: levelNotice},
		"info":     {name: "info", want: slog.LevelInfo},
		"debug":    {name: "Debug", want: slog.LevelDebug},
		"critical": {name: "critical", want: levelDisable},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			Level.Set(slog.LevelInfo)
			assert.True(t, Level.SetByName(test.name))
			assert.Equal(t, test.want, Level.lvl.Level())
		})
	}
}

func TestLevel_SetByName_UnknownKeepsLevel(t *testing.T) {
	defer Level.Set(slog.LevelInfo)

	Level.Set(slog.LevelWarn)
	assert.False(t, Level.SetByName("verbose"))

	assert.Equal(t, slog.LevelWarn, Level.lvl.Level())
}

func TestLogger_NilSafe(t *testing.T) {
	var l *Logger

	assert.NotPanics(t, func() {
		l.Info("nil logger")
		l.Mute()
		l.Unmute()
		assert.NotNil(t, l.With("key", "value"))
	})
}

func TestLogger_WithKeepsMuted(t *testing.T) {
	l := New()
	l.muted.Store(true)

	ll := l.With(slog.String("component", "test"))

	assert.True(t, ll.muted.Load())
}

func TestLevel_String(t *testing.T) {
	defer Level.Set(slog.LevelInfo)

	tests := map[string]struct {
		lvl  slog.Level
		want string
	}{
		"error":    {lvl: slog.LevelError, want: "error"},
		"notice":   {lvl: levelNotice, want: "notice"},
		"debug":    {lvl: slog.LevelDebug, want: "debug"},
		"disabled": {lvl: levelDisable, want: "disabled"},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			Level.Set(test.lvl)
			assert.Equal(t, test.want, Level.String())
		})
	}
}

func TestNewTextHandler(t *testing.T) {
	defer Level.Set(slog.LevelInfo)
	Level.Set(slog.LevelInfo)

	tests := map[string]struct {
		journal  bool
		wantTime bool
	}{
		"stderr":  {wantTime: true},
		"journal": {journal: true},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			l := &Logger{sl: slog.New(newTextHandler(&buf, test.journal))}

			l.Noticef("connected to %s", "localhost:6379")
			l.Debug("not logged")

			out := buf.String()
			assert.Contains(t, out, "level=notice")
			assert.Contains(t, out, `msg="connected to localhost:6379"`)
			assert.NotContains(t, out, "not logged")
			assert.Equal(t, test.wantTime, strings.Contains(out, "time="))
		})
	}
}
