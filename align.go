// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

// pad is cache line padding to prevent false sharing between the producer
// and consumer indexes of a ring, and between adjacent mailbox slots.
type pad [64]byte

// roundToPow2 rounds n up to the next power of 2. Used for ring and
// mailbox capacities so that index wraparound is a mask instead of a
// modulo.
func roundToPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}
