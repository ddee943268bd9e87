// SPDX-License-Identifier: GPL-3.0-or-later

package redisdb

import (
	"context"
	"fmt"
	"math"
	"time"
)

// fetchStatus issues INFO and measures its round trip in milliseconds.
func fetchStatus(ctx context.Context, conn Conn) (Snapshot, float64, error) {
	start := time.Now()
	info, err := conn.Info(ctx).Result()
	latency := round2(float64(time.Since(start)) / float64(time.Millisecond))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: info: %v", ErrConnectivity, err)
	}

	return parseInfo(info), latency, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
