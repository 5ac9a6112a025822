package worker

import (
	"time"

	"backcheck_api/pkg/logger"

	"go.uber.org/zap"
)

// CleanupTask is a best-effort side job detached from the request that
// spawned it: deleting a replaced result file, releasing a coupon after an
// order vanished, compensating a half-created candidate batch. Failures are
// retried a few times and then logged, never surfaced to the request.
type CleanupTask struct {
	Name  string
	Run   func() error
	Retry int
}

// CleanupPool runs cleanup tasks on a fixed set of workers with a bounded
// retry queue.
type CleanupPool struct {
	TaskQueue  chan CleanupTask
	RetryQueue chan CleanupTask
	WorkerNum  int
	MaxRetry   int
}

func NewCleanupPool(workerNum, bufferSize int) *CleanupPool {
	return &CleanupPool{
		TaskQueue:  make(chan CleanupTask, bufferSize),
		RetryQueue: make(chan CleanupTask, bufferSize/2),
		WorkerNum:  workerNum,
		MaxRetry:   3,
	}
}

func (p *CleanupPool) Start() {
	for i := 0; i < p.WorkerNum; i++ {
		go p.worker(i)
	}
	go p.retryWorker()

	if logger.Log != nil {
		logger.Log.Info("Cleanup pool started", zap.Int("workers", p.WorkerNum))
	}
}

func (p *CleanupPool) worker(id int) {
	for task := range p.TaskQueue {
		err := task.Run()
		if err == nil {
			continue
		}

		if logger.Log != nil {
			logger.Log.Warn("Cleanup task failed",
				zap.Int("worker", id),
				zap.String("task", task.Name),
				zap.Int("attempt", task.Retry),
				zap.Error(err),
			)
		}

		if task.Retry < p.MaxRetry {
			task.Retry++
			select {
			case p.RetryQueue <- task:
			default:
				p.logDropped(task, err)
			}
		} else {
			p.logDropped(task, err)
		}
	}
}

func (p *CleanupPool) retryWorker() {
	for task := range p.RetryQueue {
		// Backoff grows with the attempt count.
		time.Sleep(time.Duration(task.Retry) * time.Second)

		select {
		case p.TaskQueue <- task:
		default:
			p.logDropped(task, nil)
		}
	}
}

func (p *CleanupPool) logDropped(task CleanupTask, err error) {
	if logger.Log != nil {
		logger.Log.Error("Cleanup task dropped permanently",
			zap.String("task", task.Name),
			zap.Int("attempts", task.Retry),
			zap.Error(err),
		)
	}
}

// Submit enqueues a task; a full queue drops it with a log line rather than
// blocking the caller.
func (p *CleanupPool) Submit(task CleanupTask) {
	select {
	case p.TaskQueue <- task:
	default:
		p.logDropped(task, nil)
	}
}

// Global is installed at startup. Fire falls back to running the task inline
// (synchronously, still best-effort) when the pool is absent, which keeps
// services testable without a running pool.
var Global *CleanupPool

func Fire(name string, run func() error) {
	if Global != nil {
		Global.Submit(CleanupTask{Name: name, Run: run})
		return
	}
	if err := run(); err != nil && logger.Log != nil {
		logger.Log.Warn("Cleanup task failed", zap.String("task", name), zap.Error(err))
	}
}
