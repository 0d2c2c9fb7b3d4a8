// Package repository defines the persistence contract of the engine.
// Every save is atomic per record and version checked: a stale write fails
// with dao.ErrConcurrency. Implementations live in the kv (memory or afs
// file store) and sqlite subpackages.
package repository
