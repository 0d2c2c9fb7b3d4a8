// Package graph validates a mission's task set as a DAG and answers the
// scheduling questions asked on every tick: which tasks are runnable, which
// tasks sit downstream of a failure and whether the mission is finished.
package graph
