package application_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/application"
)

func namedTask(name string, requires ...string) *application.Task {
	return &application.Task{Name: name, Requires: requires}
}

func TestNewGraphOrdersByDependency(t *testing.T) {
	g, err := application.NewGraph([]*application.Task{
		namedTask("c", "b"),
		namedTask("b", "a"),
		namedTask("a"),
		namedTask("d", "a"),
	})
	require.NoError(t, err)

	position := map[string]int{}
	for i, task := range g.Order() {
		position[task.Name] = i
	}
	assert.Less(t, position["a"], position["b"])
	assert.Less(t, position["b"], position["c"])
	assert.Less(t, position["a"], position["d"])
	assert.Equal(t, 4, g.Len())
}

func TestNewGraphStableForIndependentTasks(t *testing.T) {
	g, err := application.NewGraph([]*application.Task{
		namedTask("x"),
		namedTask("y"),
		namedTask("z"),
	})
	require.NoError(t, err)

	var names []string
	for _, task := range g.Order() {
		names = append(names, task.Name)
	}
	assert.Equal(t, []string{"x", "y", "z"}, names)
}

func TestNewGraphRejectsCycle(t *testing.T) {
	_, err := application.NewGraph([]*application.Task{
		namedTask("a", "b"),
		namedTask("b", "a"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")
}

func TestNewGraphRejectsUnknownDependency(t *testing.T) {
	_, err := application.NewGraph([]*application.Task{
		namedTask("a", "missing"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown task")
}

func TestNewGraphRejectsDuplicateName(t *testing.T) {
	_, err := application.NewGraph([]*application.Task{
		namedTask("a"),
		namedTask("a"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}
