// Package store persists a device session: the write-once result cache
// keyed by job fingerprint, the submission journal, and the execution
// counters.
//
// The backing database is SQLite. By default it lives in memory and
// dies with the session; callers who want results to survive a restart
// point the store at a file.
//
// Concurrency: batch polling writes results from one goroutine per
// workflow. PutResult is the only contended write and resolves races
// with an atomic insert-if-absent, so the cache never sees a fingerprint
// overwritten.
package store
