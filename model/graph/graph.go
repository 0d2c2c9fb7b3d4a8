package graph

import (
	"sort"

	"github.com/viant/mission/model/mission"
)

// Graph is an arena of mission tasks indexed by id. Dependency edges are id
// references; dependents is the reverse index.
type Graph struct {
	MissionID  string
	tasks      map[string]*mission.Task
	order      []string
	index      map[string]int
	dependents map[string][]string
}

// Build validates tasks and returns the mission graph. Every dependsOn entry
// must reference a task of the same set, no task may depend on itself and
// the dependency relation must be acyclic.
func Build(missionID string, tasks []*mission.Task) (*Graph, error) {
	g := &Graph{
		MissionID:  missionID,
		tasks:      make(map[string]*mission.Task, len(tasks)),
		index:      make(map[string]int, len(tasks)),
		dependents: make(map[string][]string, len(tasks)),
	}
	for _, task := range tasks {
		if task == nil || task.ID == "" {
			return nil, &Error{Kind: KindInvalid, MissionID: missionID}
		}
		if _, ok := g.tasks[task.ID]; ok {
			return nil, &Error{Kind: KindDuplicate, MissionID: missionID, TaskID: task.ID}
		}
		if task.MissionID != "" && missionID != "" && task.MissionID != missionID {
			return nil, &Error{Kind: KindDanglingReference, MissionID: missionID, TaskID: task.ID, Ref: task.MissionID}
		}
		g.index[task.ID] = len(g.order)
		g.order = append(g.order, task.ID)
		g.tasks[task.ID] = task
	}
	for _, id := range g.order {
		task := g.tasks[id]
		for _, dep := range task.DependsOn {
			if dep == id {
				return nil, &Error{Kind: KindDanglingReference, MissionID: missionID, TaskID: id, Ref: dep}
			}
			if _, ok := g.tasks[dep]; !ok {
				return nil, &Error{Kind: KindDanglingReference, MissionID: missionID, TaskID: id, Ref: dep}
			}
			g.dependents[dep] = append(g.dependents[dep], id)
		}
	}
	if path := g.findCycle(); len(path) > 0 {
		return nil, &Error{Kind: KindCycle, MissionID: missionID, TaskID: path[0], Path: path}
	}
	return g, nil
}

// findCycle runs DFS with white/grey/black coloring and returns the first
// cycle found (in declaration order) or nil.
func (g *Graph) findCycle() []string {
	const (
		white = 0
		grey  = 1
		black = 2
	)
	color := make(map[string]int, len(g.order))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = grey
		stack = append(stack, id)
		for _, dep := range g.tasks[id].DependsOn {
			switch color[dep] {
			case grey:
				for i := len(stack) - 1; i >= 0; i-- {
					if stack[i] == dep {
						cycle = append(append([]string(nil), stack[i:]...), dep)
						break
					}
				}
				return true
			case white:
				if dfs(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range g.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// Len returns number of tasks.
func (g *Graph) Len() int { return len(g.order) }

// Task returns task by id or nil.
func (g *Graph) Task(id string) *mission.Task { return g.tasks[id] }

// Tasks returns tasks in declaration order.
func (g *Graph) Tasks() []*mission.Task {
	ret := make([]*mission.Task, 0, len(g.order))
	for _, id := range g.order {
		ret = append(ret, g.tasks[id])
	}
	return ret
}

// Roots returns ids of tasks without dependencies.
func (g *Graph) Roots() []string {
	var ret []string
	for _, id := range g.order {
		if len(g.tasks[id].DependsOn) == 0 {
			ret = append(ret, id)
		}
	}
	return ret
}

// Completed returns the set of Complete task ids.
func (g *Graph) Completed() map[string]bool {
	ret := make(map[string]bool, len(g.order))
	for _, id := range g.order {
		if g.tasks[id].Status == mission.TaskComplete {
			ret[id] = true
		}
	}
	return ret
}

// Frontier returns ids of Queued or Retrying tasks whose every dependency is
// in completed, ordered by ascending priority rank then creation order.
func (g *Graph) Frontier(completed map[string]bool) []string {
	var ret []string
	for _, id := range g.order {
		task := g.tasks[id]
		if !task.Status.IsDispatchable() {
			continue
		}
		ready := true
		for _, dep := range task.DependsOn {
			if !completed[dep] {
				ready = false
				break
			}
		}
		if ready {
			ret = append(ret, id)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		left, right := g.tasks[ret[i]], g.tasks[ret[j]]
		if left.Priority.Rank() != right.Priority.Rank() {
			return left.Priority.Rank() < right.Priority.Rank()
		}
		if left.Seq != right.Seq {
			return left.Seq < right.Seq
		}
		return g.index[ret[i]] < g.index[ret[j]]
	})
	return ret
}

// Downstream returns transitive dependents of id in declaration order.
func (g *Graph) Downstream(id string) []string {
	seen := map[string]bool{}
	var visit func(string)
	visit = func(current string) {
		for _, dependent := range g.dependents[current] {
			if seen[dependent] {
				continue
			}
			seen[dependent] = true
			visit(dependent)
		}
	}
	visit(id)
	ret := make([]string, 0, len(seen))
	for _, candidate := range g.order {
		if seen[candidate] {
			ret = append(ret, candidate)
		}
	}
	return ret
}

// IsTerminal reports whether the mission can make no further progress:
// every task is Complete, or (fail-fast) a task failed permanently while no
// task is executing or retrying, or (continue) every task is terminal.
// Tasks awaiting human review do not block a fail-fast termination.
func (g *Graph) IsTerminal(failFast bool) bool {
	allComplete := true
	allTerminal := true
	anyFailed := false
	busy := false
	for _, id := range g.order {
		task := g.tasks[id]
		if task.Status != mission.TaskComplete {
			allComplete = false
		}
		if !task.Status.IsTerminal() {
			allTerminal = false
		}
		if task.Status.IsFailed() {
			anyFailed = true
		}
		if task.Status == mission.TaskRetrying || task.Executing() {
			busy = true
		}
	}
	if allComplete {
		return true
	}
	if failFast {
		return anyFailed && !busy
	}
	return allTerminal
}

// Status derives mission status from task statuses.
func (g *Graph) Status(failFast bool) mission.Status {
	if g.IsTerminal(failFast) {
		for _, id := range g.order {
			if g.tasks[id].Status != mission.TaskComplete {
				return mission.StatusFailed
			}
		}
		return mission.StatusComplete
	}
	for _, id := range g.order {
		if g.tasks[id].Status != mission.TaskQueued {
			return mission.StatusInProgress
		}
	}
	return mission.StatusPending
}
