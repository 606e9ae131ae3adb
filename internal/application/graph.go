package application

import (
	"context"
	"fmt"
)

// Task is one node of the harvest graph: a named unit of fetch-and-persist
// work over a scope, with static upstream requirements and a completion
// declaration the oracle can evaluate without running it.
type Task struct {
	Name       string
	Requires   []string
	Completion Completion
	Run        func(ctx context.Context) error
}

// Graph is a validated, topologically ordered set of tasks. Dependency lists
// are static, so cycles and dangling references are construction errors,
// never a runtime concern.
type Graph struct {
	tasks map[string]*Task
	order []*Task
}

// NewGraph validates the task set and computes a stable topological order.
// Ties are broken by declaration order so runs are reproducible.
func NewGraph(tasks []*Task) (*Graph, error) {
	byName := make(map[string]*Task, len(tasks))
	for _, t := range tasks {
		if t.Name == "" {
			return nil, fmt.Errorf("task with empty name")
		}
		if _, dup := byName[t.Name]; dup {
			return nil, fmt.Errorf("duplicate task %q", t.Name)
		}
		byName[t.Name] = t
	}

	indegree := make(map[string]int, len(tasks))
	dependents := make(map[string][]string, len(tasks))
	for _, t := range tasks {
		indegree[t.Name] += 0
		for _, dep := range t.Requires {
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("task %q requires unknown task %q", t.Name, dep)
			}
			indegree[t.Name]++
			dependents[dep] = append(dependents[dep], t.Name)
		}
	}

	var ready []string
	for _, t := range tasks {
		if indegree[t.Name] == 0 {
			ready = append(ready, t.Name)
		}
	}

	order := make([]*Task, 0, len(tasks))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, byName[name])
		for _, next := range dependents[name] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(order) != len(tasks) {
		var stuck []string
		for name, n := range indegree {
			if n > 0 {
				stuck = append(stuck, name)
			}
		}
		return nil, fmt.Errorf("dependency cycle among tasks %v", stuck)
	}

	return &Graph{tasks: byName, order: order}, nil
}

// Order returns the tasks in dependency order.
func (g *Graph) Order() []*Task {
	return g.order
}

// Len returns the number of tasks in the graph.
func (g *Graph) Len() int {
	return len(g.order)
}
