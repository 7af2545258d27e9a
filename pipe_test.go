// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipePushFrontAdvance(t *testing.T) {
	type ev struct{ N int }
	tid := typeIDFor[ev]()
	p := &pipe{}

	require.True(t, p.empty())

	for i := 0; i < 3; i++ {
		p.push(newBucket(tid, InvalidActorId, InvalidActorId, QoSNormal, ev{N: i}))
	}
	require.Equal(t, 3, p.len())
	require.False(t, p.empty())

	for i := 0; i < 3; i++ {
		b, ok := p.front()
		require.True(t, ok)
		require.Equal(t, i, b.payload.(ev).N)
		p.advance()
	}
	require.True(t, p.empty())
	_, ok := p.front()
	require.False(t, ok)
}

func TestPipeCompactsAfterThreshold(t *testing.T) {
	type ev struct{}
	tid := typeIDFor[ev]()
	p := &pipe{}

	for i := 0; i < 600; i++ {
		p.push(newBucket(tid, InvalidActorId, InvalidActorId, QoSNormal, ev{}))
	}
	for i := 0; i < 400; i++ {
		p.advance()
	}
	// Past the 256-drained / half-capacity threshold: compact() should have
	// reclaimed the drained prefix instead of letting buf grow unbounded.
	require.Less(t, len(p.buf), 600)
	require.Equal(t, 200, p.len())
}
