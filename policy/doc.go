// Package policy holds the declarative knobs that shape how a mission is
// driven: which task types must pass approval gating and what happens to the
// rest of the graph once a task fails permanently.
package policy
