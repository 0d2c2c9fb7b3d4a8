// Package scheduler drives missions through their task graph. Each Tick
// reloads a mission, dispatches the ready frontier to a bounded worker group,
// routes gated output through the approval gateway and derives the mission
// status from its tasks. Writes are version checked, so a tick that loses a
// race is simply retried.
package scheduler
