// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMailboxEnqueueDrainPerProducer(t *testing.T) {
	type ev struct {
		Producer int
		N        int
	}
	tid := typeIDFor[ev]()
	m := newMailbox(2, 8, 0)

	for p := 0; p < 2; p++ {
		for i := 0; i < 3; i++ {
			ok := m.enqueue(p, newBucket(tid, InvalidActorId, InvalidActorId, QoSNormal, ev{Producer: p, N: i}))
			require.True(t, ok)
		}
	}

	var seenP0, seenP1 []int
	n := m.drain(100, func(b *bucket) {
		e := b.payload.(ev)
		if e.Producer == 0 {
			seenP0 = append(seenP0, e.N)
		} else {
			seenP1 = append(seenP1, e.N)
		}
	})

	require.Equal(t, 6, n)
	require.Equal(t, []int{0, 1, 2}, seenP0)
	require.Equal(t, []int{0, 1, 2}, seenP1)
}

func TestMailboxWaitBusySpinReturnsImmediately(t *testing.T) {
	m := newMailbox(1, 8, 0)
	start := time.Now()
	m.wait()
	require.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestMailboxWaitWakesOnEnqueue(t *testing.T) {
	type ev struct{}
	tid := typeIDFor[ev]()
	m := newMailbox(1, 8, time.Second)

	done := make(chan struct{})
	go func() {
		m.wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	require.True(t, m.enqueue(0, newBucket(tid, InvalidActorId, InvalidActorId, QoSNormal, ev{})))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("wait() did not wake up after enqueue notified")
	}
}

func TestMailboxWaitTimesOutWithoutActivity(t *testing.T) {
	m := newMailbox(1, 8, 20*time.Millisecond)
	start := time.Now()
	m.wait()
	require.GreaterOrEqual(t, time.Since(start), 15*time.Millisecond)
}
