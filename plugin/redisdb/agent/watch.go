// SPDX-License-Identifier: GPL-3.0-or-later

package agent

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/gohugoio/hashstructure"

	"github.com/netdata/netdata/go/redisdb/plugin/redisdb/collector/redisdb"
)

func hashConfigs(cfgs []redisdb.Config) (uint64, error) {
	return hashstructure.Hash(cfgs, nil)
}

// watchConfig requests a reload once the set of valid instances in path differs from
// the one hashed to current. Edits that only touch comments or invalid instances are ignored.
func (a *Agent) watchConfig(ctx context.Context, path string, current uint64) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		a.Warningf("config watcher: %v", err)
		return
	}
	defer func() { _ = w.Close() }()

	// editors often replace the file, so watch its directory
	if err := w.Add(filepath.Dir(path)); err != nil {
		a.Warningf("config watcher: %v", err)
		return
	}

	path = filepath.Clean(path)

	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			a.Warningf("config watcher: %v", err)
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != path || ev.Has(fsnotify.Chmod) {
				continue
			}

			fc, err := loadConfig(path)
			if err != nil {
				a.Debugf("config watcher: %v", err)
				continue
			}
			// skipped instances were reported by run, stay quiet on every event
			cfgs, _ := a.jobConfigs(fc)
			hash, err := hashConfigs(cfgs)
			if err != nil {
				a.Warningf("config watcher: %v", err)
				continue
			}
			if hash == current {
				continue
			}

			a.Infof("config '%s' changed", path)
			a.requestReload()
			return
		}
	}
}

func (a *Agent) requestReload() {
	select {
	case a.reload <- struct{}{}:
	default:
	}
}
