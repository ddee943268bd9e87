// SPDX-License-Identifier: GPL-3.0-or-later

//go:build linux

package logger

import (
	"github.com/coreos/go-systemd/v22/journal"
)

// stderrIsJournal reports whether netdata started the plugin under systemd with stderr
// redirected to journald (JOURNAL_STREAM matches the stderr device and inode).
func stderrIsJournal() bool {
	ok, err := journal.StderrIsJournalStream()
	return err == nil && ok
}
