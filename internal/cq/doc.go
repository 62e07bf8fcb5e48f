// Package cq implements the per-worker completion queue: an ordered,
// thread-safe stream of (tag, ok) completion notifications for previously
// issued asynchronous operations.
//
// Producers call Push when an operation finishes. The single consumer
// blocks in Next until a completion is available. Shutdown stops the queue
// from accepting new completions; Next keeps returning buffered completions
// until the queue is empty, then reports end-of-stream, so a drain loop
// after shutdown observes every completion pushed before it.
package cq
