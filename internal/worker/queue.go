// Package worker runs long session operations off the caller's goroutine.
package worker

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/sashko-guz/splitter/internal/logger"
	"github.com/sashko-guz/splitter/internal/model"
)

var workerLog = logger.For("Worker")

type Kind int

const (
	KindOpen Kind = iota
	KindClose
	KindSaveAndCloseAll
)

func (k Kind) String() string {
	switch k {
	case KindOpen:
		return "open"
	case KindClose:
		return "close"
	case KindSaveAndCloseAll:
		return "save-and-close-all"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Task is one unit of work. Open uses Path; Close uses ImageID and Save.
type Task struct {
	Kind    Kind
	Path    string
	ImageID model.ImageID
	Save    bool
}

type Result struct {
	Task    Task
	Image   *model.Image // set for Open
	Reports []model.Report
	Err     error
}

// Queue executes tasks against a Session on a bounded pool. Tasks run
// concurrently and their results arrive in completion order, so opened images
// join the session in that order too. Results must be drained while tasks are
// submitted; the channel is closed once Close was called and every task finished.
type Queue struct {
	session *model.Session
	ctx     context.Context
	cancel  context.CancelFunc
	group   errgroup.Group
	results chan Result

	mu     sync.Mutex
	closed bool
}

func NewQueue(ctx context.Context, session *model.Session, workers int) *Queue {
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	q := &Queue{
		session: session,
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan Result, workers),
	}
	q.group.SetLimit(workers)
	workerLog.Debugf("Queue started with %d workers", workers)
	return q
}

// Submit schedules t, blocking while every worker is busy. It returns false
// once the queue is closed.
func (q *Queue) Submit(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return false
	}

	q.group.Go(func() error {
		q.results <- q.run(t)
		return nil
	})
	return true
}

func (q *Queue) Results() <-chan Result {
	return q.results
}

// Close stops accepting tasks. Running and scheduled tasks still complete.
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	go func() {
		q.group.Wait()
		q.cancel()
		close(q.results)
	}()
}

// Cancel aborts outstanding work. Exports stop before their next file and
// tasks not yet started fail with the context error.
func (q *Queue) Cancel() {
	workerLog.Infof("Cancelling queued work")
	q.cancel()
}

func (q *Queue) run(t Task) Result {
	res := Result{Task: t}
	if err := q.ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	switch t.Kind {
	case KindOpen:
		res.Image, res.Err = q.session.Open(q.ctx, t.Path)
	case KindClose:
		var report model.Report
		report, res.Err = q.session.Close(q.ctx, t.ImageID, t.Save)
		res.Reports = []model.Report{report}
	case KindSaveAndCloseAll:
		res.Reports, res.Err = q.session.SaveAndCloseAll(q.ctx)
	default:
		res.Err = fmt.Errorf("unknown task kind %s", t.Kind)
	}

	if res.Err != nil {
		workerLog.Debugf("%s task failed: %v", t.Kind, res.Err)
	}
	return res
}
