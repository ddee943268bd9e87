// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import "errors"

var (
	// ErrConfiguration aborts a check before anything is emitted.
	ErrConfiguration = errors.New("configuration error")
	// ErrConnectivity aborts the current check; the next tick retries.
	ErrConnectivity = errors.New("connectivity error")
	// ErrParse is logged; the affected value defaults to -1.
	ErrParse = errors.New("parse error")
	// ErrListQuery is logged; the affected list is skipped.
	ErrListQuery = errors.New("list query error")
	// ErrUnsupportedServer is returned by Probe when the reply does not come from Redis.
	ErrUnsupportedServer = errors.New("unsupported server")
)
