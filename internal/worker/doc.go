// Package worker runs short background jobs on a fixed set of goroutines fed
// by a bounded queue.
//
// Producers call Queue.Enqueue, which never blocks: a full queue is reported
// as ErrQueueFull and the caller decides whether to drop or retry. Pool.Stop
// closes the queue and lets workers drain what is left before returning.
package worker
