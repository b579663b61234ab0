// Package live implements the real-time broadcast subsystem: the canonical
// on-air card store, role-partitioned connection registry, group fan-out
// channel, and the presence coordinator that ties them together.
//
// The coordinator is an actor: a single goroutine owns the registry and the
// channel and processes commands from a channel (no mutexes). Card display
// and clear run as single commands so the store write and the broadcast are
// never interleaved with other operations. Per-connection write goroutines
// with bounded buffers keep slow clients from blocking the fan-out; a client
// whose buffer fills is evicted.
//
// Delivery is fire-and-forget. There is no replay: a connection joining after
// a publish learns the current state from the snapshot pushed at connect time.
package live
