package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/githarvest/githarvest/internal/domain/model"
)

// Pipeline runs the full harvest: one task graph per repository, executed on
// a bounded worker pool, then a global phase resolving the users and
// organizations referenced by everything harvested so far. Repository
// subgraphs have no data dependency on one another, so they may overlap; the
// actor cache and the store are safe for that.
type Pipeline struct {
	engine      *Engine
	scheduler   *Scheduler
	log         *slog.Logger
	concurrency int
}

// NewPipeline wires a pipeline. concurrency bounds how many repository
// subgraphs run at once; 1 reproduces strictly sequential execution.
func NewPipeline(engine *Engine, scheduler *Scheduler, concurrency int, log *slog.Logger) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pipeline{
		engine:      engine,
		scheduler:   scheduler,
		log:         log,
		concurrency: concurrency,
	}
}

// RepositoryGraph assembles the dependency-ordered task set harvesting one
// repository: the repository itself, its pull requests, and every nested
// relation hanging off them.
func (p *Pipeline) RepositoryGraph(scope Scope) (*Graph, error) {
	e := p.engine
	tasks := []*Task{
		e.repositoryTask(scope),
		e.pullRequestIDsTask(scope),
		e.pullRequestsTask(scope),
		e.participantsTask(scope),
		e.commentIDsTask(scope),
		e.reviewIDsTask(scope),
		e.commitIDsTask(scope),
		e.editsTask(scope, "pull-request-edits",
			model.ObjectPullRequest, "PullRequest", scope.task("pull-requests")),
		e.reactionsTask(scope, "pull-request-reactions",
			model.ObjectPullRequest, "PullRequest", scope.task("pull-requests")),
		e.pullRequestCommentsTask(scope),
		e.editsTask(scope, "pull-request-comment-edits",
			model.ObjectPullRequestComment, "IssueComment", scope.task("pull-request-comments")),
		e.reactionsTask(scope, "pull-request-comment-reactions",
			model.ObjectPullRequestComment, "IssueComment", scope.task("pull-request-comments")),
		e.reviewsTask(scope),
		e.reviewCommentIDsTask(scope),
		e.editsTask(scope, "review-edits",
			model.ObjectPullRequestReview, "PullRequestReview", scope.task("reviews")),
		e.reactionsTask(scope, "review-reactions",
			model.ObjectPullRequestReview, "PullRequestReview", scope.task("reviews")),
		e.reviewCommentsTask(scope),
		e.editsTask(scope, "review-comment-edits",
			model.ObjectPullRequestReviewComment, "PullRequestReviewComment", scope.task("review-comments")),
		e.reactionsTask(scope, "review-comment-reactions",
			model.ObjectPullRequestReviewComment, "PullRequestReviewComment", scope.task("review-comments")),
		e.commitsTask(scope),
		e.commitAuthorsTask(scope),
		e.commitCommentIDsTask(scope),
		e.commitCheckSuiteIDsTask(scope),
		e.commitPullRequestIDsTask(scope),
		e.commitCommentsTask(scope),
		e.editsTask(scope, "commit-comment-edits",
			model.ObjectCommitComment, "CommitComment", scope.task("commit-comments")),
		e.reactionsTask(scope, "commit-comment-reactions",
			model.ObjectCommitComment, "CommitComment", scope.task("commit-comments")),
		e.checkSuitesTask(scope),
	}
	return NewGraph(tasks)
}

// GlobalGraph assembles the cross-repository phase.
func (p *Pipeline) GlobalGraph() (*Graph, error) {
	e := p.engine
	return NewGraph([]*Task{
		e.usersTask(),
		e.organizationIDsTask(),
		e.organizationsTask(),
	})
}

// Run harvests every scope, then the global phase. Per-task failures live in
// the report; the returned error covers context cancellation and graph
// construction only.
func (p *Pipeline) Run(ctx context.Context, scopes []Scope) (Report, error) {
	var (
		mu       sync.Mutex
		combined Report
	)

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.concurrency)

	for _, scope := range scopes {
		scope := scope
		group.Go(func() error {
			graph, err := p.RepositoryGraph(scope)
			if err != nil {
				return fmt.Errorf("building graph for %s: %w", scope, err)
			}

			p.log.Info("harvesting repository", "scope", scope.String(), "tasks", graph.Len())
			report, err := p.scheduler.Run(groupCtx, graph)

			mu.Lock()
			combined.Results = append(combined.Results, report.Results...)
			mu.Unlock()
			return err
		})
	}

	if err := group.Wait(); err != nil {
		return combined, err
	}

	graph, err := p.GlobalGraph()
	if err != nil {
		return combined, fmt.Errorf("building global graph: %w", err)
	}
	p.log.Info("harvesting referenced users and organizations", "tasks", graph.Len())
	report, err := p.scheduler.Run(ctx, graph)
	combined.Results = append(combined.Results, report.Results...)
	return combined, err
}
