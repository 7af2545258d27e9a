// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/require"
)

type widgetTag struct{}

func TestDiscoveryCacheRecordAndKnown(t *testing.T) {
	d := newDiscoveryCache()
	tid := typeIDFor[widgetTag]()
	id := NewActorId(2, 9)

	d.recordResponse(tid, id)
	ids, ok := d.seen.Get(tid)
	require.True(t, ok)
	require.Equal(t, []ActorId{id}, ids)

	// Recording the same responder twice must not duplicate the entry.
	d.recordResponse(tid, id)
	ids, _ = d.seen.Get(tid)
	require.Len(t, ids, 1)
}

func TestDiscoveryShouldBroadcastWithoutResponders(t *testing.T) {
	d := newDiscoveryCache()
	tid := typeIDFor[widgetTag]()
	require.True(t, d.shouldBroadcast(tid), "first probe for an unknown type must go out")
}

func TestDiscoveryBreakerOpensAfterRepeatedMisses(t *testing.T) {
	d := newDiscoveryCache()
	tid := typeIDFor[widgetTag]()

	for i := 0; i < 10; i++ {
		d.shouldBroadcast(tid)
	}
	// More than five consecutive unanswered probes trip the breaker; while
	// it is open, shouldBroadcast suppresses the broadcast.
	cb := d.breakers[tid]
	require.Equal(t, gobreaker.StateOpen, cb.State())
	require.False(t, d.shouldBroadcast(tid), "an open breaker must suppress the broadcast")
}

func TestKnownAndRecordResponseHelpers(t *testing.T) {
	w := newWorker(0, nil)
	id := NewActorId(1, 5)

	RecordResponse[widgetTag](w, id)
	got := Known[widgetTag](w)
	require.Equal(t, []ActorId{id}, got)
}
