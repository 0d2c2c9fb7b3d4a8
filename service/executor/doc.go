// Package executor runs a single task attempt against its agent under a
// per-attempt deadline and decides whether a failed attempt is retried.
package executor
