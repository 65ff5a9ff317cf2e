// Package broadcast fans chat messages out to connected websocket clients.
//
// The Hub is a single-goroutine actor: all registration state lives in one
// goroutine and is mutated only through commands on a channel, so no locks
// guard the client maps. Each client gets a dedicated writer goroutine with
// a bounded send buffer; clients that cannot keep up are disconnected rather
// than allowed to stall the hub.
package broadcast
