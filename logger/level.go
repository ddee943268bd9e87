// SPDX-License-Identifier: GPL-3.0-or-later

package logger

import (
	"log/slog"
	"strings"
)

const (
	levelNotice  = slog.Level(2)
	levelDisable = slog.Level(99)
)

var (
	customLevels = map[slog.Leveler]string{
		levelNotice:  "NOTICE",
		levelDisable: "DISABLED",
	}
	customLevelsTerm = map[slog.Leveler]string{
		levelNotice: "\u001B[34m" + "NTC" + "\u001B[0m",
	}
)

// Level is the level shared by every Logger of the process.
var Level = &level{lvl: &slog.LevelVar{}}

type level struct {
	lvl *slog.LevelVar
}

func (l *level) Enabled(level slog.Level) bool {
	return level >= l.lvl.Level()
}

func (l *level) Set(level slog.Level) {
	l.lvl.Set(level)
}

// SetByName sets the level from a netdata log level name and reports whether the name is known.
// https://github.com/netdata/netdata/tree/master/src/libnetdata/log#log-levels
func (l *level) SetByName(name string) bool {
	lvl, ok := parseLevel(name)
	if ok {
		l.lvl.Set(lvl)
	}
	return ok
}

func (l *level) String() string {
	return levelName(l.lvl.Level())
}

func parseLevel(name string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "err", "error":
		return slog.LevelError, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "notice":
		return levelNotice, true
	case "info":
		return slog.LevelInfo, true
	case "debug":
		return slog.LevelDebug, true
	case "emergency", "alert", "critical":
		return levelDisable, true
	}
	return 0, false
}

func levelName(lvl slog.Level) string {
	if s, ok := customLevels[lvl]; ok {
		return strings.ToLower(s)
	}
	return strings.ToLower(lvl.String())
}
