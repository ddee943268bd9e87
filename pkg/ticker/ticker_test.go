// SPDX-License-Identifier: GPL-3.0-or-later

package ticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicker_C(t *testing.T) {
	tk := New(50 * time.Millisecond)
	defer tk.Stop()

	var got []int
	timeout := time.After(2 * time.Second)

	for len(got) < 3 {
		select {
		case clock := <-tk.C:
			got = append(got, clock)
		case <-timeout:
			require.FailNow(t, "ticker did not tick in time", "got %v", got)
		}
	}

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i], got[i-1])
	}
}

func TestTicker_Stop(t *testing.T) {
	tk := New(10 * time.Millisecond)

	tk.Stop()
	tk.Stop()

	select {
	case <-tk.C:
	case <-time.After(100 * time.Millisecond):
	}

	select {
	case v := <-tk.C:
		assert.Failf(t, "tick after stop", "got %d", v)
	case <-time.After(100 * time.Millisecond):
	}
}
