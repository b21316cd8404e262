// Package engine drains the notification queue.
//
// One pass of Engine.SendAll takes the lockfile, reads every batch oldest
// first, splits each entry's recipients into Pool.Workers() contiguous parts
// and runs them through the pool, deletes the batch, and finally trims the
// notice uid ledger. Pools are Serial, ThreadPool (goroutines) and
// ProcessPool (child processes started through ServeChunk).
package engine
