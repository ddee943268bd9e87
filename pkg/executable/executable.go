// SPDX-License-Identifier: GPL-3.0-or-later

// Package executable resolves the plugin name and the directory of its binary.
package executable

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultName = "redisdb"

var (
	// Name is the binary name without the ".plugin" suffix. It names the plugin in logs,
	// the CLI and the netdata chart type.
	Name = defaultName
	// Directory is the directory of the binary with symlinks resolved.
	Directory string
)

func init() {
	path, err := os.Executable()
	if err != nil {
		return
	}
	Name, Directory = resolve(path)
}

func resolve(path string) (name, dir string) {
	if path == "" {
		return defaultName, ""
	}

	name = strings.TrimSuffix(filepath.Base(path), ".plugin")
	if strings.HasSuffix(name, ".test") {
		name = "test"
	}

	if real, err := filepath.EvalSymlinks(path); err == nil {
		path = real
	}

	return name, filepath.Dir(path)
}
