// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package core

// Service is the base a service actor embeds instead of Actor directly.
// A service is guaranteed unique per worker, identified by its static
// tag type Tag (typically an empty struct naming the service), and its
// slot id is drawn from the reserved low range assigned at registration
// time rather than the regular actor counter.
//
// Embedding Service also wires the PingEvent handler discovery.go relies
// on: any live service replies to a ping tagged with its own Tag with a
// RequireEvent{TypeID, StatusAlive}. It also wires the ServiceEvent
// request/response pattern: a service acknowledges any ServiceEvent it
// receives by calling Received, routing the acknowledgement back to
// whichever actor sent it.
type Service[Tag any] struct {
	Actor
}

// registerServiceHandlers installs the PingEvent and ServiceEvent
// responders for a service actor once its Actor base is initialized.
// Called from CoreInitializer.AddService.
func registerServiceHandlers[Tag any](s *Service[Tag]) {
	tag := typeIDFor[Tag]()
	RegisterEvent(&s.Actor, func(a *Actor, ping PingEvent) {
		if ping.TypeID != tag {
			return
		}
		_ = Reply(a, RequireEvent{TypeID: tag, Status: StatusAlive, Responder: a.id})
	})
	RegisterEvent(&s.Actor, func(a *Actor, se ServiceEvent) {
		_ = se.Received(a)
	})
}
