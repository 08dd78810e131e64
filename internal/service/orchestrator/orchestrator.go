// Package orchestrator runs request workflows on a bounded worker pool. A
// trigger enqueues a job; the dispatch loop hands it to a worker; the
// executor owns all status bookkeeping. Jobs run exactly once: workflow
// failures are recorded on the request itself and never re-dispatched here.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"k8s.io/klog/v2"
)

// requestJobTimeout bounds a single workflow run, covering every specialist
// consultation plus synthesis.
const requestJobTimeout = 10 * time.Minute

// -----------------------------
// Job
// -----------------------------
type Job struct {
	RequestID  uint
	EnqueuedAt time.Time
	Timeout    time.Duration
}

func NewRequestJob(requestID uint) *Job {
	return &Job{
		RequestID:  requestID,
		EnqueuedAt: time.Now(),
		Timeout:    requestJobTimeout,
	}
}

// -----------------------------
// RequestExecutor
// -----------------------------
type RequestExecutor interface {
	ExecuteRequest(ctx context.Context, requestID uint) error
}

// -----------------------------
// Orchestrator
// -----------------------------
type Orchestrator struct {
	jobQueue *jobQueue
	pool     *ants.Pool
	executor RequestExecutor

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
}

var (
	ErrOrchestratorStopped = errors.New("orchestrator is stopped")
	ErrQueueFull           = errors.New("job queue is full")
)

func NewOrchestrator(maxWorkers int, executor RequestExecutor) (*Orchestrator, error) {
	ctx, cancel := context.WithCancel(context.Background())

	pool, err := ants.NewPool(maxWorkers,
		ants.WithNonblocking(false),
		ants.WithMaxBlockingTasks(1000),
		ants.WithExpiryDuration(5*time.Minute),
	)
	if err != nil {
		cancel()
		klog.Errorf("ants pool initialization failed: %v", err)
		return nil, err
	}

	return &Orchestrator{
		jobQueue: newJobQueue(120),
		pool:     pool,
		executor: executor,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

func (o *Orchestrator) Start() {
	go o.dispatchLoop()
}

// Stop drains the queue, then waits for in-flight workflows up to one job
// timeout before releasing the pool.
func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() {
		klog.V(6).Infof("Orchestrator stopping...")

		o.cancel()
		o.jobQueue.Close()

		for o.jobQueue.Len() > 0 {
			time.Sleep(100 * time.Millisecond)
			klog.V(6).Infof("Waiting for queue to empty: jobs=%d", o.jobQueue.Len())
		}

		if running := o.pool.Running(); running > 0 {
			klog.V(6).Infof("Waiting for %d running workflows to complete", running)
		}
		timeout := requestJobTimeout + time.Minute
		if err := o.pool.ReleaseTimeout(timeout); err != nil {
			klog.Warningf("Timeout after %v: some running workflows may be forced to stop", timeout)
		}

		klog.V(6).Infof("Orchestrator stopped completely")
	})
}

// -----------------------------
// Enqueue
// -----------------------------
func (o *Orchestrator) EnqueueJob(job *Job) error {
	select {
	case <-o.ctx.Done():
		return ErrOrchestratorStopped
	default:
	}

	if err := o.jobQueue.Enqueue(job); err != nil {
		if errors.Is(err, ErrQueueFull) {
			klog.Warningf("Job queue full: requestID=%d", job.RequestID)
		}
		return err
	}
	klog.V(6).Infof("Job enqueued: requestID=%d", job.RequestID)
	return nil
}

// -----------------------------
// Dispatch Loop
// -----------------------------
func (o *Orchestrator) dispatchLoop() {
	for {
		select {
		case <-o.ctx.Done():
			return
		default:
			job, ok := o.jobQueue.Dequeue()
			if !ok {
				continue
			}
			o.dispatch(job)
		}
	}
}

// dispatch submits one job to the pool. Submit blocks while all workers are
// busy; it only errors once the pool is released, at which point the request
// stays pending and a later trigger may enqueue it again.
func (o *Orchestrator) dispatch(job *Job) {
	if err := o.pool.Submit(func() {
		o.executeJob(job)
	}); err != nil {
		klog.Errorf("worker pool submit failed: requestID=%d, err=%v", job.RequestID, err)
	}
}

// executeJob runs the workflow once under the job timeout.
func (o *Orchestrator) executeJob(job *Job) {
	defer func() {
		if r := recover(); r != nil {
			klog.Errorf("request workflow panic recovered: requestID=%d, err=%v", job.RequestID, r)
		}
	}()

	timeout := job.Timeout
	if timeout <= 0 {
		timeout = requestJobTimeout
	}
	ctx, cancel := context.WithTimeout(o.ctx, timeout)
	defer cancel()

	if err := o.executor.ExecuteRequest(ctx, job.RequestID); err != nil {
		klog.Errorf("request workflow failed: requestID=%d, err=%v", job.RequestID, err)
		return
	}
	klog.V(6).Infof("request workflow completed: requestID=%d", job.RequestID)
}

// -----------------------------
// Queue Status
// -----------------------------
type QueueStatus struct {
	QueueLength   int `json:"queue_length"`
	ActiveWorkers int `json:"active_workers"`
}

func (o *Orchestrator) GetQueueStatus() *QueueStatus {
	return &QueueStatus{
		QueueLength:   o.jobQueue.Len(),
		ActiveWorkers: o.pool.Running(),
	}
}

// -----------------------------
// JobQueue (Ring Buffer) + Reject New
// -----------------------------
type jobQueue struct {
	maxSize int
	items   []*Job
	mutex   sync.Mutex
	cond    *sync.Cond
	closed  bool
}

func newJobQueue(maxSize int) *jobQueue {
	q := &jobQueue{
		maxSize: maxSize,
		items:   make([]*Job, 0, maxSize),
	}
	q.cond = sync.NewCond(&q.mutex)
	return q
}

func (q *jobQueue) Enqueue(job *Job) error {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	if q.closed {
		return ErrOrchestratorStopped
	}
	if q.maxSize > 0 && len(q.items) >= q.maxSize {
		return ErrQueueFull
	}
	q.items = append(q.items, job)
	q.cond.Signal()
	return nil
}

func (q *jobQueue) Dequeue() (*Job, bool) {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	for len(q.items) == 0 && !q.closed {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	job := q.items[0]
	q.items[0] = nil
	q.items = q.items[1:]
	return job, true
}

func (q *jobQueue) Len() int {
	q.mutex.Lock()
	defer q.mutex.Unlock()
	return len(q.items)
}

func (q *jobQueue) Close() {
	q.mutex.Lock()
	q.closed = true
	q.cond.Broadcast()
	q.mutex.Unlock()
}

// -------------------- Global Orchestrator --------------------
var (
	globalOrchestrator *Orchestrator
	orchestratorOnce   sync.Once
)

func InitGlobalOrchestrator(maxWorkers int, executor RequestExecutor) error {
	var initErr error
	orchestratorOnce.Do(func() {
		orch, err := NewOrchestrator(maxWorkers, executor)
		if err != nil {
			initErr = err
			return
		}
		globalOrchestrator = orch
		globalOrchestrator.Start()
		klog.V(6).Infof("Global orchestrator initialized: maxWorkers=%d", maxWorkers)
	})
	return initErr
}

func GetGlobalOrchestrator() *Orchestrator {
	return globalOrchestrator
}

func ShutdownGlobalOrchestrator() {
	if globalOrchestrator != nil {
		globalOrchestrator.Stop()
		klog.V(6).Infof("Global orchestrator shutdown")
	}
}
