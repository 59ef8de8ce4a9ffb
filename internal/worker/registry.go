// Package worker is the Worker Runtime (spec.md section 4.3): the
// dequeue loop that pulls Snapshots off the queue, assigns each a
// sandbox box id, and hands it to the Submission Processor, plus the
// worker registration/heartbeat bookkeeping used to reap stale workers.
// Grounded on original_source/worker/app/worker_manager.py's
// WorkerManager, adapted from RQ's "rq:worker:*" hash+set registration
// to a heartbeat-key-with-TTL scheme since the judge's queue (a plain
// Redis list) has no built-in worker directory of its own.
package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Registry tracks live worker identities in Redis so stale entries
// (process killed without a graceful deregister) can be reaped.
type Registry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRegistry builds a Registry namespaced under "<prefix>:workers".
func NewRegistry(client *redis.Client, prefix string, heartbeatTTL time.Duration) *Registry {
	return &Registry{client: client, prefix: prefix, ttl: heartbeatTTL}
}

func (r *Registry) setKey() string              { return fmt.Sprintf("%s:workers", r.prefix) }
func (r *Registry) heartbeatKey(id string) string { return fmt.Sprintf("%s:worker:%s:heartbeat", r.prefix, id) }

// Register records a worker's identity and starts its heartbeat,
// mirroring cleanup_worker's inverse (registration instead of teardown).
func (r *Registry) Register(ctx context.Context, identity string) error {
	pipe := r.client.TxPipeline()
	pipe.SAdd(ctx, r.setKey(), identity)
	pipe.Set(ctx, r.heartbeatKey(identity), time.Now().Unix(), r.ttl)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("register worker %s: %w", identity, err)
	}
	return nil
}

// Heartbeat refreshes a worker's liveness TTL; callers invoke this
// periodically from the dequeue loop.
func (r *Registry) Heartbeat(ctx context.Context, identity string) error {
	if err := r.client.Set(ctx, r.heartbeatKey(identity), time.Now().Unix(), r.ttl).Err(); err != nil {
		return fmt.Errorf("heartbeat worker %s: %w", identity, err)
	}
	return nil
}

// Deregister removes a worker's registration on graceful shutdown,
// mirroring cleanup_worker.
func (r *Registry) Deregister(ctx context.Context, identity string) error {
	pipe := r.client.TxPipeline()
	pipe.SRem(ctx, r.setKey(), identity)
	pipe.Del(ctx, r.heartbeatKey(identity))
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("deregister worker %s: %w", identity, err)
	}
	return nil
}

// AllWorkers lists every registered worker identity, mirroring
// get_all_workers.
func (r *Registry) AllWorkers(ctx context.Context) ([]string, error) {
	members, err := r.client.SMembers(ctx, r.setKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list workers: %w", err)
	}
	return members, nil
}

// IsActive reports whether a worker's heartbeat key is still present,
// mirroring is_worker_active's existence + set-membership check
// (collapsed to a single key here since there's no separate RQ set).
func (r *Registry) IsActive(ctx context.Context, identity string) (bool, error) {
	n, err := r.client.Exists(ctx, r.heartbeatKey(identity)).Result()
	if err != nil {
		return false, fmt.Errorf("check worker %s liveness: %w", identity, err)
	}
	return n > 0, nil
}

// CleanupStale removes every registered worker whose heartbeat has
// expired, mirroring cleanup_stale_workers, and returns how many were
// reaped.
func (r *Registry) CleanupStale(ctx context.Context) (int, error) {
	workers, err := r.AllWorkers(ctx)
	if err != nil {
		return 0, err
	}

	cleaned := 0
	for _, w := range workers {
		active, err := r.IsActive(ctx, w)
		if err != nil {
			return cleaned, err
		}
		if active {
			continue
		}
		if err := r.Deregister(ctx, w); err != nil {
			return cleaned, err
		}
		cleaned++
	}
	return cleaned, nil
}
