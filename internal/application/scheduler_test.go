package application_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/githarvest/githarvest/internal/adapter/driven/memstore"
	"github.com/githarvest/githarvest/internal/application"
	"github.com/githarvest/githarvest/internal/domain/port/driven"
)

// countedCompletion reports satisfaction from a mutable counter, standing in
// for persisted state.
func countedCompletion(expected int, actual *int) application.Completion {
	return application.Completion{
		Kind: application.CheckCustom,
		Counts: func(context.Context, driven.DocumentStore) (int, int, error) {
			return expected, *actual, nil
		},
	}
}

func newScheduler() *application.Scheduler {
	oracle := application.NewOracle(memstore.New(), false, nil)
	return application.NewScheduler(oracle, nil)
}

func resultByName(t *testing.T, report application.Report, name string) application.TaskResult {
	t.Helper()
	for _, res := range report.Results {
		if res.Name == name {
			return res
		}
	}
	t.Fatalf("no result for task %q", name)
	return application.TaskResult{}
}

func TestSchedulerShortCircuitsSatisfiedTask(t *testing.T) {
	actual := 3
	ran := false
	g, err := application.NewGraph([]*application.Task{{
		Name:       "already-done",
		Completion: countedCompletion(3, &actual),
		Run: func(context.Context) error {
			ran = true
			return nil
		},
	}})
	require.NoError(t, err)

	report, err := newScheduler().Run(context.Background(), g)
	require.NoError(t, err)

	res := resultByName(t, report, "already-done")
	assert.Equal(t, application.StateDone, res.State)
	assert.False(t, res.Ran)
	assert.False(t, ran)
	assert.True(t, report.Clean())
}

func TestSchedulerRunsAndRechecks(t *testing.T) {
	actual := 0
	g, err := application.NewGraph([]*application.Task{{
		Name:       "fills-up",
		Completion: countedCompletion(2, &actual),
		Run: func(context.Context) error {
			actual = 2
			return nil
		},
	}})
	require.NoError(t, err)

	report, err := newScheduler().Run(context.Background(), g)
	require.NoError(t, err)

	res := resultByName(t, report, "fills-up")
	assert.Equal(t, application.StateDone, res.State)
	assert.True(t, res.Ran)
	assert.Equal(t, 2, res.Expected)
	assert.Equal(t, 2, res.Actual)
}

func TestSchedulerMarksMismatchDegraded(t *testing.T) {
	actual := 0
	g, err := application.NewGraph([]*application.Task{{
		Name:       "under-delivers",
		Completion: countedCompletion(5, &actual),
		Run: func(context.Context) error {
			actual = 4
			return nil
		},
	}})
	require.NoError(t, err)

	report, err := newScheduler().Run(context.Background(), g)
	require.NoError(t, err)

	res := resultByName(t, report, "under-delivers")
	assert.Equal(t, application.StateDegraded, res.State)
	assert.Len(t, report.Degraded(), 1)
	assert.False(t, report.Clean())
}

func TestSchedulerFailureSkipsDependentsOnly(t *testing.T) {
	zero := 0
	one := 1
	boom := errors.New("remote exploded")
	siblingRan := false

	g, err := application.NewGraph([]*application.Task{
		{
			Name:       "breaks",
			Completion: countedCompletion(1, &zero),
			Run:        func(context.Context) error { return boom },
		},
		{
			Name:       "depends-on-breaks",
			Requires:   []string{"breaks"},
			Completion: countedCompletion(1, &zero),
			Run:        func(context.Context) error { return nil },
		},
		{
			Name:       "independent",
			Completion: countedCompletion(1, &one),
			Run: func(context.Context) error {
				siblingRan = true
				return nil
			},
		},
	})
	require.NoError(t, err)

	report, err := newScheduler().Run(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, application.StateFailed, resultByName(t, report, "breaks").State)
	assert.ErrorIs(t, resultByName(t, report, "breaks").Err, boom)
	assert.Equal(t, application.StateSkipped, resultByName(t, report, "depends-on-breaks").State)
	assert.Equal(t, application.StateDone, resultByName(t, report, "independent").State)
	assert.False(t, siblingRan)
	assert.Len(t, report.Failed(), 1)
}

func TestSchedulerDegradedUnblocksDependents(t *testing.T) {
	actual := 0
	done := false
	g, err := application.NewGraph([]*application.Task{
		{
			Name:       "short",
			Completion: countedCompletion(5, &actual),
			Run: func(context.Context) error {
				actual = 4
				return nil
			},
		},
		{
			Name:       "after-short",
			Requires:   []string{"short"},
			Completion: countedCompletion(1, &actual),
			Run: func(context.Context) error {
				done = true
				return nil
			},
		},
	})
	require.NoError(t, err)

	report, err := newScheduler().Run(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, application.StateDegraded, resultByName(t, report, "short").State)
	assert.True(t, done)
}

func TestSchedulerStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	zero := 0
	g, err := application.NewGraph([]*application.Task{{
		Name:       "never-runs",
		Completion: countedCompletion(1, &zero),
		Run:        func(context.Context) error { return nil },
	}})
	require.NoError(t, err)

	report, err := newScheduler().Run(ctx, g)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, application.StateSkipped, resultByName(t, report, "never-runs").State)
}
