// Package mission defines the mission and task records driven by the
// scheduler. Only the scheduler mutates them; the state helpers (Start,
// Complete, Fail, ...) stamp timestamps the same way for every caller.
package mission
