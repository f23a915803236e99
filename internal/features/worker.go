package features

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"interviewai/internal/repo"
)

type FeedbackJob struct {
	InterviewID string
	Email       string
	EnqueuedAt  time.Time
}

type WorkerConfig struct {
	Size              int
	MaxTasksPerWorker int
	MaxIdleTime       int
	MaxTaskWaitTime   int
}

func ReadWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Size:              viper.GetInt("worker.size"),
		MaxTasksPerWorker: viper.GetInt("worker.max_tasks_per_worker"),
		MaxIdleTime:       viper.GetInt("worker.max_idle_time"),
		MaxTaskWaitTime:   viper.GetInt("worker.max_task_wait_time"),
	}
}

// FeedbackWorkerPool generates feedback in the background right after a
// submission so it is usually ready before the user asks for it.
type FeedbackWorkerPool struct {
	jobQueue          chan FeedbackJob
	workerCount       int
	maxTasksPerWorker int
	maxIdleTime       time.Duration
	maxTaskWaitTime   time.Duration
	ctx               context.Context
	cancel            context.CancelFunc
	wg                sync.WaitGroup
	mu                sync.Mutex
	stopped           bool
	process           func(ctx context.Context, job FeedbackJob) error
	logger            *zap.Logger
	// Metrics
	totalJobsEnqueued  int64
	totalJobsProcessed int64
	totalJobsFailed    int64
	totalJobsDropped   int64
	activeWorkers      int64
}

func NewFeedbackWorkerPool(cfg WorkerConfig, process func(ctx context.Context, job FeedbackJob) error, logger *zap.Logger) *FeedbackWorkerPool {
	if cfg.Size <= 0 {
		cfg.Size = 1
	}
	if cfg.MaxTasksPerWorker <= 0 {
		cfg.MaxTasksPerWorker = 1
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = 300
	}
	if cfg.MaxTaskWaitTime <= 0 {
		cfg.MaxTaskWaitTime = 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FeedbackWorkerPool{
		jobQueue:          make(chan FeedbackJob, cfg.Size*cfg.MaxTasksPerWorker),
		workerCount:       cfg.Size,
		maxTasksPerWorker: cfg.MaxTasksPerWorker,
		maxIdleTime:       time.Duration(cfg.MaxIdleTime) * time.Second,
		maxTaskWaitTime:   time.Duration(cfg.MaxTaskWaitTime) * time.Second,
		ctx:               ctx,
		cancel:            cancel,
		process:           process,
		logger:            logger,
	}
}

func (wp *FeedbackWorkerPool) Start() {
	wp.logger.Info("Starting feedback worker pool",
		zap.Int("workerCount", wp.workerCount),
		zap.Int("queueCapacity", cap(wp.jobQueue)),
		zap.Duration("maxIdleTime", wp.maxIdleTime))

	for i := 0; i < wp.workerCount; i++ {
		wp.spawn(i)
	}
}

func (wp *FeedbackWorkerPool) spawn(workerID int) {
	atomic.AddInt64(&wp.activeWorkers, 1)
	wp.wg.Add(1)
	go wp.worker(workerID)
}

// Stop drains nothing: queued jobs are abandoned and in-flight ones see a cancelled context.
func (wp *FeedbackWorkerPool) Stop() {
	wp.mu.Lock()
	if wp.stopped {
		wp.mu.Unlock()
		return
	}
	wp.stopped = true
	wp.cancel()
	close(wp.jobQueue)
	wp.mu.Unlock()
	wp.wg.Wait()
}

func (wp *FeedbackWorkerPool) worker(workerID int) {
	defer wp.wg.Done()
	defer atomic.AddInt64(&wp.activeWorkers, -1)

	idleTimer := time.NewTimer(wp.maxIdleTime)
	defer idleTimer.Stop()

	jobsProcessed := 0

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				wp.logger.Info("Worker stopping - job queue closed",
					zap.Int("workerID", workerID),
					zap.Int("jobsProcessed", jobsProcessed))
				return
			}

			wp.logger.Debug("Worker processing job",
				zap.Int("workerID", workerID),
				zap.String("interviewId", job.InterviewID),
				zap.Duration("waitTime", time.Since(job.EnqueuedAt)))

			startTime := time.Now()
			wp.processSafe(job)
			jobsProcessed++

			wp.logger.Debug("Worker completed job",
				zap.Int("workerID", workerID),
				zap.String("interviewId", job.InterviewID),
				zap.Duration("processingTime", time.Since(startTime)),
				zap.Duration("totalTime", time.Since(job.EnqueuedAt)))

			if !idleTimer.Stop() {
				select {
				case <-idleTimer.C:
				default:
				}
			}
			idleTimer.Reset(wp.maxIdleTime)

		case <-idleTimer.C:
			wp.logger.Info("Worker idle timeout, exiting", zap.Int("workerID", workerID),
				zap.Int("jobsProcessed", jobsProcessed))
			return

		case <-wp.ctx.Done():
			wp.logger.Info("Worker stopping - context cancelled", zap.Int("workerID", workerID),
				zap.Int("jobsProcessed", jobsProcessed))
			return
		}
	}
}

func (wp *FeedbackWorkerPool) processSafe(job FeedbackJob) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&wp.totalJobsFailed, 1)
			wp.logger.Error("Panic while processing feedback job",
				zap.String("interviewId", job.InterviewID), zap.Any("panic", r))
		}
	}()

	if err := wp.process(wp.ctx, job); err != nil {
		atomic.AddInt64(&wp.totalJobsFailed, 1)
		wp.logger.Warn("Feedback job failed", zap.String("interviewId", job.InterviewID), zap.Error(err))
		return
	}
	atomic.AddInt64(&wp.totalJobsProcessed, 1)
}

// EnqueueJob waits up to maxTaskWaitTime for queue space and drops the job after that.
// Idle workers that exited are replaced first.
func (wp *FeedbackWorkerPool) EnqueueJob(job FeedbackJob) bool {
	wp.mu.Lock()
	defer wp.mu.Unlock()
	if wp.stopped {
		atomic.AddInt64(&wp.totalJobsDropped, 1)
		return false
	}

	for i := int(atomic.LoadInt64(&wp.activeWorkers)); i < wp.workerCount; i++ {
		wp.spawn(i)
	}

	job.EnqueuedAt = time.Now()
	timer := time.NewTimer(wp.maxTaskWaitTime)
	defer timer.Stop()

	select {
	case wp.jobQueue <- job:
		atomic.AddInt64(&wp.totalJobsEnqueued, 1)
		wp.logger.Debug("Enqueued feedback job", zap.String("interviewId", job.InterviewID),
			zap.Int("queueSize", len(wp.jobQueue)),
			zap.Int("queueCapacity", cap(wp.jobQueue)))
		return true

	case <-timer.C:
		atomic.AddInt64(&wp.totalJobsDropped, 1)
		wp.logger.Error("Job enqueue timeout - queue may be full or workers unavailable",
			zap.String("interviewId", job.InterviewID),
			zap.Duration("timeout", wp.maxTaskWaitTime),
			zap.Int("queueSize", len(wp.jobQueue)),
			zap.Int("queueCapacity", cap(wp.jobQueue)),
			zap.Int64("activeWorkers", atomic.LoadInt64(&wp.activeWorkers)))
		return false
	}
}

// GetMetrics returns worker pool metrics
func (wp *FeedbackWorkerPool) GetMetrics() map[string]interface{} {
	return map[string]interface{}{
		"total_jobs_enqueued":  atomic.LoadInt64(&wp.totalJobsEnqueued),
		"total_jobs_processed": atomic.LoadInt64(&wp.totalJobsProcessed),
		"total_jobs_failed":    atomic.LoadInt64(&wp.totalJobsFailed),
		"total_jobs_dropped":   atomic.LoadInt64(&wp.totalJobsDropped),
		"active_workers":       atomic.LoadInt64(&wp.activeWorkers),
		"queue_size":           len(wp.jobQueue),
		"queue_capacity":       cap(wp.jobQueue),
	}
}

// Prefetch is the pool's job function: load the submission and run the feedback workflow.
func Prefetch(r *repo.Repository, feedback *FeedbackService) func(ctx context.Context, job FeedbackJob) error {
	return func(ctx context.Context, job FeedbackJob) error {
		sub, err := r.Submission.Get(ctx, job.InterviewID)
		if errors.Is(err, repo.ErrNotFound) {
			// deleted before the job ran
			return nil
		}
		if err != nil {
			return err
		}
		_, err = feedback.Get(ctx, sub)
		return err
	}
}
