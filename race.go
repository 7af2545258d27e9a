// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package core

// raceEnabled is true when the race detector is active. Tests use it to
// skip assertions that rely on acquire/release orderings the race
// detector cannot observe (it only tracks mutex/channel/WaitGroup
// synchronization, not atomic memory ordering).
const raceEnabled = true
