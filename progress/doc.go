// Package progress keeps aggregated task counters for a running mission.
// The scheduler recounts after every settle step and reports changes to an
// optional callback; the latest snapshot is stored with the mission results.
package progress
