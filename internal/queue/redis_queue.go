package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrTimeout = errors.New("queue timeout")

const (
	JobSourceSync  = "source_sync"
	JobSlaSnapshot = "sla_snapshot"
	JobOutboxDrain = "outbox_drain"
)

type Job struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	TenantID  string    `json:"tenant_id"`
	Priority  int       `json:"priority"`
	CreatedAt time.Time `json:"created_at"`
}

type RedisQueue struct {
	client    *redis.Client
	queueName string
}

func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:    client,
		queueName: "portal_jobs",
	}
}

func (q *RedisQueue) Push(ctx context.Context, job *Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	// Lower score pops first. Zero priority falls back to FIFO by time.
	score := float64(job.Priority)
	if score == 0 {
		score = float64(time.Now().Unix())
	}

	err = q.client.ZAdd(ctx, q.queueName, redis.Z{
		Score:  score,
		Member: data,
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to push job: %w", err)
	}
	return nil
}

func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (*Job, error) {
	result, err := q.client.BZPopMin(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("failed to pop job: %w", err)
	}

	member, ok := result.Member.(string)
	if !ok {
		return nil, errors.New("invalid result from queue")
	}

	var job Job
	if err := json.Unmarshal([]byte(member), &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job: %w", err)
	}
	return &job, nil
}

func (q *RedisQueue) Length(ctx context.Context) (int64, error) {
	return q.client.ZCard(ctx, q.queueName).Result()
}
