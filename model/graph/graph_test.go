package graph

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/mission/model/mission"
)

func newTask(id string, deps ...string) *mission.Task {
	return mission.NewTask(id, "agent", "generic", nil, deps...)
}

func TestBuild(t *testing.T) {
	var testCases = []struct {
		description string
		tasks       []*mission.Task
		expectErr   error
		expectRoots []string
	}{
		{
			description: "independent tasks",
			tasks:       []*mission.Task{newTask("a"), newTask("b"), newTask("c")},
			expectRoots: []string{"a", "b", "c"},
		},
		{
			description: "diamond",
			tasks:       []*mission.Task{newTask("a"), newTask("b", "a"), newTask("c", "a"), newTask("d", "b", "c")},
			expectRoots: []string{"a"},
		},
		{
			description: "two node cycle",
			tasks:       []*mission.Task{newTask("a", "b"), newTask("b", "a")},
			expectErr:   ErrCycle,
		},
		{
			description: "long cycle",
			tasks:       []*mission.Task{newTask("a"), newTask("b", "a", "d"), newTask("c", "b"), newTask("d", "c")},
			expectErr:   ErrCycle,
		},
		{
			description: "dangling reference",
			tasks:       []*mission.Task{newTask("a", "missing")},
			expectErr:   ErrDanglingReference,
		},
		{
			description: "self reference",
			tasks:       []*mission.Task{newTask("a", "a")},
			expectErr:   ErrDanglingReference,
		},
		{
			description: "duplicate id",
			tasks:       []*mission.Task{newTask("a"), newTask("a")},
			expectErr:   ErrDuplicate,
		},
	}

	for _, testCase := range testCases {
		g, err := Build("m1", testCase.tasks)
		if testCase.expectErr != nil {
			assert.Error(t, err, testCase.description)
			assert.True(t, errors.Is(err, testCase.expectErr), testCase.description)
			var graphErr *Error
			assert.True(t, errors.As(err, &graphErr), testCase.description)
			continue
		}
		require.NoError(t, err, testCase.description)
		assert.EqualValues(t, testCase.expectRoots, g.Roots(), testCase.description)
		assert.ElementsMatch(t, testCase.expectRoots, g.Frontier(g.Completed()), testCase.description)
	}
}

func TestBuild_CyclePath(t *testing.T) {
	_, err := Build("m1", []*mission.Task{newTask("a", "c"), newTask("b", "a"), newTask("c", "b")})
	var graphErr *Error
	require.True(t, errors.As(err, &graphErr))
	assert.EqualValues(t, KindCycle, graphErr.Kind)
	assert.Len(t, graphErr.Path, 4)
	assert.Equal(t, graphErr.Path[0], graphErr.Path[len(graphErr.Path)-1])
}

func TestGraph_Frontier(t *testing.T) {
	tasks := []*mission.Task{newTask("a"), newTask("b", "a"), newTask("c"), newTask("d", "b", "c")}
	g, err := Build("m1", tasks)
	require.NoError(t, err)

	assert.EqualValues(t, []string{"a", "c"}, g.Frontier(g.Completed()))

	tasks[0].Status = mission.TaskInProgress
	assert.EqualValues(t, []string{"c"}, g.Frontier(g.Completed()), "in progress task is never in frontier")

	tasks[0].Status = mission.TaskComplete
	tasks[2].Status = mission.TaskRetrying
	assert.EqualValues(t, []string{"b", "c"}, g.Frontier(g.Completed()))

	tasks[1].Status = mission.TaskComplete
	tasks[2].Status = mission.TaskComplete
	assert.EqualValues(t, []string{"d"}, g.Frontier(g.Completed()))
}

func TestGraph_FrontierPriority(t *testing.T) {
	low := newTask("low")
	low.Priority = mission.PriorityLow
	urgent := newTask("urgent")
	urgent.Priority = mission.PriorityUrgent
	normal := newTask("normal")
	g, err := Build("m1", []*mission.Task{low, normal, urgent})
	require.NoError(t, err)
	assert.EqualValues(t, []string{"urgent", "normal", "low"}, g.Frontier(g.Completed()))
}

func TestGraph_Downstream(t *testing.T) {
	g, err := Build("m1", []*mission.Task{newTask("a"), newTask("b", "a"), newTask("c", "b"), newTask("x")})
	require.NoError(t, err)
	assert.EqualValues(t, []string{"b", "c"}, g.Downstream("a"))
	assert.Empty(t, g.Downstream("x"))
}

func TestGraph_IsTerminal(t *testing.T) {
	var testCases = []struct {
		description string
		statuses    []mission.TaskStatus
		failFast    bool
		expected    bool
		status      mission.Status
	}{
		{description: "all complete", statuses: []mission.TaskStatus{mission.TaskComplete, mission.TaskComplete}, failFast: true, expected: true, status: mission.StatusComplete},
		{description: "nothing started", statuses: []mission.TaskStatus{mission.TaskQueued, mission.TaskQueued}, failFast: true, expected: false, status: mission.StatusPending},
		{description: "fail fast with failure", statuses: []mission.TaskStatus{mission.TaskFailed, mission.TaskQueued}, failFast: true, expected: true, status: mission.StatusFailed},
		{description: "fail fast waits for retry", statuses: []mission.TaskStatus{mission.TaskFailed, mission.TaskRetrying}, failFast: true, expected: false, status: mission.StatusInProgress},
		{description: "continue waits for queued", statuses: []mission.TaskStatus{mission.TaskFailed, mission.TaskQueued}, failFast: false, expected: false, status: mission.StatusInProgress},
		{description: "continue all terminal", statuses: []mission.TaskStatus{mission.TaskFailed, mission.TaskComplete}, failFast: false, expected: true, status: mission.StatusFailed},
	}
	for _, testCase := range testCases {
		var tasks []*mission.Task
		for i, status := range testCase.statuses {
			task := newTask(fmt.Sprintf("t%d", i))
			task.Status = status
			tasks = append(tasks, task)
		}
		g, err := Build("m1", tasks)
		require.NoError(t, err)
		assert.EqualValues(t, testCase.expected, g.IsTerminal(testCase.failFast), testCase.description)
		assert.EqualValues(t, testCase.status, g.Status(testCase.failFast), testCase.description)
	}
}

// randomDAG creates tasks whose dependencies only point to lower indexes.
func randomDAG(rnd *rand.Rand, size int) []*mission.Task {
	var tasks []*mission.Task
	for i := 0; i < size; i++ {
		task := newTask(fmt.Sprintf("t%02d", i))
		for j := 0; j < i; j++ {
			if rnd.Intn(4) == 0 {
				task.DependsOn = append(task.DependsOn, fmt.Sprintf("t%02d", j))
			}
		}
		tasks = append(tasks, task)
	}
	rnd.Shuffle(len(tasks), func(i, j int) { tasks[i], tasks[j] = tasks[j], tasks[i] })
	return tasks
}

func TestGraph_RandomDAGProperties(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 50; round++ {
		tasks := randomDAG(rnd, 2+rnd.Intn(14))
		g, err := Build("m", tasks)
		require.NoError(t, err)

		var expectedRoots []string
		for _, task := range tasks {
			if len(task.DependsOn) == 0 {
				expectedRoots = append(expectedRoots, task.ID)
			}
		}
		assert.ElementsMatch(t, expectedRoots, g.Frontier(g.Completed()))

		// simulate execution: complete frontier tasks in random batches and
		// check that no task is offered before all its dependencies complete
		for steps := 0; steps <= len(tasks); steps++ {
			completed := g.Completed()
			frontier := g.Frontier(completed)
			if len(frontier) == 0 {
				break
			}
			for _, id := range frontier {
				for _, dep := range g.Task(id).DependsOn {
					assert.Equal(t, mission.TaskComplete, g.Task(dep).Status)
				}
			}
			batch := 1 + rnd.Intn(len(frontier))
			for _, id := range frontier[:batch] {
				g.Task(id).Status = mission.TaskComplete
			}
		}
		assert.True(t, g.IsTerminal(true))
		assert.EqualValues(t, mission.StatusComplete, g.Status(true))
	}
}

func TestBuild_RandomCycle(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	for round := 0; round < 20; round++ {
		tasks := randomDAG(rnd, 3+rnd.Intn(10))
		// close a cycle: lowest task depends on the highest one through a chain
		byID := map[string]*mission.Task{}
		for _, task := range tasks {
			byID[task.ID] = task
		}
		last := fmt.Sprintf("t%02d", len(tasks)-1)
		byID[last].DependsOn = append(byID[last].DependsOn, "t00")
		byID["t00"].DependsOn = append(byID["t00"].DependsOn, last)
		_, err := Build("m", tasks)
		assert.True(t, errors.Is(err, ErrCycle))
	}
}
