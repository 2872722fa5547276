package refresh

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/cxbig/repo-batch-refresh/internal/repos/shared"
)

const invalidWorkerCountTemplateConstant = "worker count must be >= 1, got %d"

// JobHandler processes one repository job. It is called exactly once per job.
type JobHandler func(executionContext context.Context, job shared.RepositoryJob)

// InvalidWorkerCountError reports a worker pool size below one.
type InvalidWorkerCountError struct {
	WorkerCount int
}

// Error describes the rejected pool size.
func (invalidCount InvalidWorkerCountError) Error() string {
	return fmt.Sprintf(invalidWorkerCountTemplateConstant, invalidCount.WorkerCount)
}

// Scheduler fans jobs out across a fixed number of workers.
type Scheduler struct {
	workerCount int
}

// NewScheduler constructs a Scheduler with workerCount workers.
func NewScheduler(workerCount int) (*Scheduler, error) {
	if workerCount < 1 {
		return nil, InvalidWorkerCountError{WorkerCount: workerCount}
	}
	return &Scheduler{workerCount: workerCount}, nil
}

// WorkerCount reports the pool size.
func (scheduler *Scheduler) WorkerCount() int {
	return scheduler.workerCount
}

// Run hands every job to handler on one of the workers and returns once all jobs
// have been handled. Jobs complete in no particular order.
func (scheduler *Scheduler) Run(executionContext context.Context, jobs []shared.RepositoryJob, handler JobHandler) {
	if len(jobs) == 0 || handler == nil {
		return
	}

	jobChannel := make(chan shared.RepositoryJob)
	var workerGroup errgroup.Group
	for workerIndex := 0; workerIndex < scheduler.workerCount; workerIndex++ {
		workerGroup.Go(func() error {
			for job := range jobChannel {
				handler(executionContext, job)
			}
			return nil
		})
	}

	for _, job := range jobs {
		jobChannel <- job
	}
	close(jobChannel)

	// Workers always return nil; Wait only joins them.
	_ = workerGroup.Wait()
}
