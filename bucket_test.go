// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBucketHeader(t *testing.T) {
	type pingEvent struct{ N int }
	src := NewActorId(1, 10)
	dst := NewActorId(2, 20)

	b := newBucket(typeIDFor[pingEvent](), src, dst, QoSGuaranteed, pingEvent{N: 5})

	require.True(t, b.header.Alive)
	require.Equal(t, protocolMagic, b.header.Magic)
	require.Equal(t, uint16(1), b.header.BucketCount)
	require.Equal(t, src, b.header.Source)
	require.Equal(t, dst, b.header.Dest)
	require.Equal(t, QoSGuaranteed, b.header.QoS)
	require.False(t, b.consumed)

	ev, ok := b.payload.(pingEvent)
	require.True(t, ok)
	require.Equal(t, 5, ev.N)
}
