// Package queue is the Redis-backed job queue standing in for spec.md's
// abstract "distributed job queue": a reliable FIFO with at-least-once
// delivery. Grounded on wilke-cwe-cwl/internal/events's *redis.Client
// wiring (redis.Options{Addr, Password, DB}), with RPUSH/BLPOP replacing
// that file's pub/sub, since the judge needs point-to-point delivery to
// exactly one worker rather than fan-out.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/coderunr/judge/internal/types"
	"github.com/redis/go-redis/v9"
)

// Queue pushes/pops submission Snapshots through a single Redis list.
type Queue struct {
	client *redis.Client
	key    string
}

// New builds a Queue against the given Redis connection, namespaced
// under "<prefix>:queue:submissions" (spec.md section 6 queue payload).
func New(client *redis.Client, prefix string) *Queue {
	return &Queue{client: client, key: fmt.Sprintf("%s:queue:submissions", prefix)}
}

// Connect dials Redis, the way events.ConnectRedis does.
func Connect(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// Enqueue serializes the snapshot as JSON and RPUSHes it onto the
// submissions list.
func (q *Queue) Enqueue(ctx context.Context, snapshot types.Snapshot) error {
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := q.client.RPush(ctx, q.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue submission %s: %w", snapshot.Submission.ID, err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next snapshot (BLPOP), returning
// (nil, false, nil) on a timeout expiry with no error.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) (*types.Snapshot, bool, error) {
	result, err := q.client.BLPop(ctx, timeout, q.key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("dequeue: %w", err)
	}
	// BLPop returns [key, value].
	if len(result) != 2 {
		return nil, false, fmt.Errorf("unexpected BLPOP reply shape: %v", result)
	}
	var snapshot types.Snapshot
	if err := json.Unmarshal([]byte(result[1]), &snapshot); err != nil {
		return nil, false, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &snapshot, true, nil
}

// Len reports the current queue depth.
func (q *Queue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}
