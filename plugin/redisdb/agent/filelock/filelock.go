// SPDX-License-Identifier: GPL-3.0-or-later

package filelock

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

var nameReplacer = strings.NewReplacer("/", "_", ":", "_", " ", "_")

// New returns a Locker that keeps one lock file per collected instance in dir,
// so two plugin processes never poll the same Redis database.
func New(dir string) *Locker {
	return &Locker{
		suffix: ".collector.lock",
		dir:    dir,
		locks:  make(map[string]*flock.Flock),
	}
}

type Locker struct {
	suffix string
	dir    string

	mu    sync.Mutex
	locks map[string]*flock.Flock
}

// Lock reports whether this process holds the lock for name. It does not block.
func (l *Locker) Lock(name string) (bool, error) {
	filename := l.filename(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.locks[filename]; ok {
		return true, nil
	}

	locker := flock.New(filename)

	ok, err := locker.TryLock()
	if ok {
		l.locks[filename] = locker
	} else {
		_ = locker.Close()
	}

	return ok, err
}

func (l *Locker) Unlock(name string) {
	filename := l.filename(name)

	l.mu.Lock()
	defer l.mu.Unlock()

	locker, ok := l.locks[filename]
	if !ok {
		return
	}

	delete(l.locks, filename)

	_ = locker.Close()
}

func (l *Locker) UnlockAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	for key, locker := range l.locks {
		delete(l.locks, key)
		_ = locker.Close()
	}
}

func (l *Locker) isLocked(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.locks[l.filename(name)]
	return ok
}

func (l *Locker) filename(name string) string {
	return filepath.Join(l.dir, nameReplacer.Replace(name)+l.suffix)
}
