package application

import (
	"context"
	"log/slog"
)

// TaskState is the terminal state of one task in a run.
type TaskState string

const (
	StatePending  TaskState = "PENDING"
	StateRunning  TaskState = "RUNNING"
	StateDone     TaskState = "DONE"
	StateDegraded TaskState = "DEGRADED"
	StateFailed   TaskState = "FAILED"
	StateSkipped  TaskState = "SKIPPED"
)

// TaskResult records how one task finished.
type TaskResult struct {
	Name     string
	State    TaskState
	Expected int
	Actual   int
	// Ran reports whether the task body executed, as opposed to the oracle
	// short-circuiting it as already satisfied.
	Ran bool
	Err error
}

// Report is the outcome of one scheduler pass over a graph.
type Report struct {
	Results []TaskResult
}

// Failed returns the tasks that ended in FAILED state.
func (r Report) Failed() []TaskResult {
	return r.filter(StateFailed)
}

// Degraded returns the tasks that executed but did not reach their declared
// cardinality.
func (r Report) Degraded() []TaskResult {
	return r.filter(StateDegraded)
}

// Clean reports whether every task ended DONE.
func (r Report) Clean() bool {
	for _, res := range r.Results {
		if res.State != StateDone {
			return false
		}
	}
	return true
}

func (r Report) filter(state TaskState) []TaskResult {
	var out []TaskResult
	for _, res := range r.Results {
		if res.State == state {
			out = append(out, res)
		}
	}
	return out
}

// Scheduler executes a graph in dependency order, short-circuiting any task
// the oracle already reports satisfied. A failed task skips its transitive
// dependents; unrelated tasks keep running. A post-run count mismatch is
// degraded, not failed, and the next run will naturally retry it because the
// oracle will again report it unsatisfied.
type Scheduler struct {
	oracle *Oracle
	log    *slog.Logger
}

// NewScheduler wires a scheduler to the oracle.
func NewScheduler(oracle *Oracle, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{oracle: oracle, log: log}
}

// Run executes the graph once. The returned error is non-nil only when the
// context ended the run early; per-task failures live in the report.
func (s *Scheduler) Run(ctx context.Context, g *Graph) (Report, error) {
	states := make(map[string]TaskState, g.Len())
	report := Report{Results: make([]TaskResult, 0, g.Len())}

	for _, task := range g.Order() {
		if ctx.Err() != nil {
			states[task.Name] = StateSkipped
			report.Results = append(report.Results, TaskResult{Name: task.Name, State: StateSkipped})
			continue
		}

		if blocked := s.blockedBy(task, states); blocked != "" {
			s.log.Info("skipping task, upstream did not complete",
				"task", task.Name, "upstream", blocked)
			states[task.Name] = StateSkipped
			report.Results = append(report.Results, TaskResult{Name: task.Name, State: StateSkipped})
			continue
		}

		result := s.runOne(ctx, task)
		states[task.Name] = result.State
		report.Results = append(report.Results, result)
	}

	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// blockedBy returns the name of a required task that did not end DONE or
// DEGRADED, or "" when the task may run.
func (s *Scheduler) blockedBy(task *Task, states map[string]TaskState) string {
	for _, dep := range task.Requires {
		switch states[dep] {
		case StateDone, StateDegraded:
		default:
			return dep
		}
	}
	return ""
}

func (s *Scheduler) runOne(ctx context.Context, task *Task) TaskResult {
	satisfied, err := s.oracle.Satisfied(ctx, task.Completion)
	if err != nil {
		s.log.Error("completion check failed", "task", task.Name, "error", err)
		return TaskResult{Name: task.Name, State: StateFailed, Err: err}
	}
	if satisfied {
		s.log.Debug("task already satisfied", "task", task.Name)
		return TaskResult{Name: task.Name, State: StateDone}
	}

	s.log.Info("running task", "task", task.Name)
	if err := task.Run(ctx); err != nil {
		s.log.Error("task failed", "task", task.Name, "error", err)
		return TaskResult{Name: task.Name, State: StateFailed, Ran: true, Err: err}
	}

	expected, actual, err := s.oracle.CountsFor(ctx, task.Completion)
	if err != nil {
		s.log.Error("post-run completion check failed", "task", task.Name, "error", err)
		return TaskResult{Name: task.Name, State: StateFailed, Ran: true, Err: err}
	}

	result := TaskResult{Name: task.Name, Expected: expected, Actual: actual, Ran: true}
	if expected == actual {
		result.State = StateDone
		s.log.Info("task complete", "task", task.Name, "count", actual)
		return result
	}

	result.State = StateDegraded
	s.log.Warn("task finished with mismatched counts",
		"task", task.Name, "expected", expected, "actual", actual)
	return result
}
