package export

import (
	"context"
	"errors"
	"sync"

	"github.com/montage-cli/montage/log"
	"github.com/montage-cli/montage/media"
)

type execFunc = func(ctx context.Context, job Job, onProgress func(media.ProgressEvent)) error

type entry struct {
	job      Job
	state    JobState
	progress media.ProgressEvent
	err      error

	ctx    context.Context
	cancel context.CancelFunc
}

func (e *entry) status() JobStatus {
	return JobStatus{Job: e.job, State: e.state, Progress: e.progress, Err: e.err}
}

// Queue runs export jobs strictly one at a time, in submission order. Job
// state changes and progress fan out to subscribers; a slow subscriber
// misses snapshots instead of stalling the worker.
type Queue struct {
	exec execFunc

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []*entry
	subs   []chan JobStatus
	nextID int
	closed bool
}

// NewQueue starts a queue whose jobs run until ctx is cancelled or the
// queue is closed.
func NewQueue(ctx context.Context) *Queue {
	return newQueue(ctx, func(ctx context.Context, job Job, onProgress func(media.ProgressEvent)) error {
		return Runner{OnProgress: onProgress}.Run(ctx, job)
	})
}

func newQueue(ctx context.Context, exec execFunc) *Queue {
	q := &Queue{
		exec: exec,
		done: make(chan struct{}),
	}

	q.cond = sync.NewCond(&q.mu)
	q.ctx, q.cancel = context.WithCancel(ctx)

	go q.work()
	return q
}

// Add appends a job and returns its assigned id.
func (q *Queue) Add(job Job) int {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.nextID++
	job.ID = q.nextID

	e := &entry{job: job, state: Pending}
	q.jobs = append(q.jobs, e)
	q.publish(e)
	q.cond.Broadcast()

	log.Infof("export %d (%s) queued", job.ID, job.Name)
	return job.ID
}

// Cancel aborts the job with the given id. Pending jobs are marked
// immediately; the running job is killed and settles as cancelled once its
// process dies. Finished jobs are left alone.
func (q *Queue) Cancel(id int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.jobs {
		if e.job.ID != id {
			continue
		}

		switch e.state {
		case Pending:
			e.state = Cancelled
			q.publish(e)
			q.cond.Broadcast()
			return true
		case Running:
			e.cancel()
			return true
		default:
			return false
		}
	}

	return false
}

// Jobs returns a snapshot of every job in submission order.
func (q *Queue) Jobs() []JobStatus {
	q.mu.Lock()
	defer q.mu.Unlock()

	statuses := make([]JobStatus, len(q.jobs))
	for i, e := range q.jobs {
		statuses[i] = e.status()
	}

	return statuses
}

// Job returns the snapshot of a single job.
func (q *Queue) Job(id int) (JobStatus, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, e := range q.jobs {
		if e.job.ID == id {
			return e.status(), true
		}
	}

	return JobStatus{}, false
}

// Wait blocks until every submitted job has reached a terminal state.
func (q *Queue) Wait() {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.active() {
		q.cond.Wait()
	}
}

// Subscribe returns a channel receiving a snapshot on every job state or
// progress change. The channel closes when the queue closes.
func (q *Queue) Subscribe() <-chan JobStatus {
	ch := make(chan JobStatus, 8)

	q.mu.Lock()
	q.subs = append(q.subs, ch)
	q.mu.Unlock()

	return ch
}

// Close kills the running job, cancels everything pending, and waits for
// the worker to exit.
func (q *Queue) Close() error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}

	q.closed = true
	q.cond.Broadcast()
	q.mu.Unlock()

	q.cancel()
	<-q.done

	q.mu.Lock()
	for _, e := range q.jobs {
		if e.state == Pending {
			e.state = Cancelled
			q.publish(e)
		}
	}

	for _, sub := range q.subs {
		close(sub)
	}
	q.subs = nil
	q.cond.Broadcast()
	q.mu.Unlock()

	return nil
}

func (q *Queue) work() {
	defer close(q.done)

	for {
		e := q.next()
		if e == nil {
			return
		}

		q.run(e)
	}
}

// next blocks until a pending entry exists, claims it, and returns it. It
// returns nil once the queue is closed.
func (q *Queue) next() *entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	for {
		if q.closed {
			return nil
		}

		for _, e := range q.jobs {
			if e.state != Pending {
				continue
			}

			e.state = Running
			e.ctx, e.cancel = context.WithCancel(q.ctx)
			q.publish(e)
			return e
		}

		q.cond.Wait()
	}
}

func (q *Queue) run(e *entry) {
	log.Infof("export %d (%s) started", e.job.ID, e.job.Name)

	err := q.exec(e.ctx, e.job, func(event media.ProgressEvent) {
		q.mu.Lock()
		e.progress = event
		q.publish(e)
		q.mu.Unlock()
	})

	q.mu.Lock()
	defer q.mu.Unlock()

	e.cancel()
	e.ctx, e.cancel = nil, nil

	switch {
	case err == nil:
		e.state = Completed
		log.Infof("export %d completed", e.job.ID)
	case errors.Is(err, context.Canceled):
		e.state = Cancelled
		log.Infof("export %d cancelled", e.job.ID)
	default:
		e.state = Failed
		e.err = err
		log.Errorf("export %d failed: %v", e.job.ID, err)
	}

	q.publish(e)
	q.cond.Broadcast()
}

// active reports whether any job still has work ahead. Callers hold q.mu.
func (q *Queue) active() bool {
	for _, e := range q.jobs {
		if !e.state.Terminal() {
			return true
		}
	}

	return false
}

// publish fans a snapshot out to subscribers without blocking. Callers
// hold q.mu.
func (q *Queue) publish(e *entry) {
	status := e.status()
	for _, sub := range q.subs {
		select {
		case sub <- status:
		default:
		}
	}
}
