package worker

import (
	"context"
	"time"

	"github.com/coderunr/judge/internal/processor"
	"github.com/coderunr/judge/internal/queue"
	"github.com/coderunr/judge/internal/sandbox"
	"github.com/sirupsen/logrus"
)

// Runtime is one worker process's dequeue loop: BLPOP the submission
// queue, allocate a sandbox slot for this worker's identity, and hand
// the Snapshot to the Processor. Grounded on the teacher's job.go slot
// bookkeeping (waitForSlot/releaseSlot), generalized from an
// in-process semaphore (single API process, N goroutines) to the
// spec's one-box-per-worker-process model — here "the slot" is which
// isolate box id this process owns, not a concurrency permit.
type Runtime struct {
	Identity string
	BoxID    int

	queue     *queue.Queue
	processor *processor.Processor
	registry  *Registry
	logger    *logrus.Entry

	pollTimeout      time.Duration
	heartbeatEvery   time.Duration
}

// New builds a Runtime, resolving this process's box id from its
// identity via sandbox.AllocateSlot (spec.md section 4.3).
func New(identity string, q *queue.Queue, p *processor.Processor, registry *Registry, logger *logrus.Logger) *Runtime {
	return &Runtime{
		Identity:       identity,
		BoxID:          sandbox.AllocateSlot(identity),
		queue:          q,
		processor:      p,
		registry:       registry,
		logger:         logger.WithField("component", "worker").WithField("worker_identity", identity),
		pollTimeout:    5 * time.Second,
		heartbeatEvery: 30 * time.Second,
	}
}

// Run registers the worker and loops dequeuing submissions until ctx
// is cancelled, deregistering on exit.
func (r *Runtime) Run(ctx context.Context) error {
	if err := r.registry.Register(ctx, r.Identity); err != nil {
		return err
	}
	defer func() {
		deregisterCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := r.registry.Deregister(deregisterCtx, r.Identity); err != nil {
			r.logger.WithError(err).Warn("failed to deregister worker on shutdown")
		}
	}()

	lastHeartbeat := time.Now()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("worker runtime stopping")
			return nil
		default:
		}

		if time.Since(lastHeartbeat) >= r.heartbeatEvery {
			if err := r.registry.Heartbeat(ctx, r.Identity); err != nil {
				r.logger.WithError(err).Warn("heartbeat failed")
			}
			lastHeartbeat = time.Now()
		}

		snapshot, ok, err := r.queue.Dequeue(ctx, r.pollTimeout)
		if err != nil {
			r.logger.WithError(err).Error("dequeue failed")
			continue
		}
		if !ok {
			continue
		}

		r.logger.WithField("submission_id", snapshot.Submission.ID).Info("processing submission")
		if err := r.processor.Process(ctx, *snapshot, r.BoxID); err != nil {
			r.logger.WithError(err).WithField("submission_id", snapshot.Submission.ID).Error("processing failed")
		}
	}
}
