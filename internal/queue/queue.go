package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task types
const (
	TypeAssignmentEmail = "email:conversation_assigned"
)

// AssignmentEmailPayload identifies the conversation and agent of an
// assignment notification. The worker re-reads both, so a stale payload
// only ever produces a current email.
type AssignmentEmailPayload struct {
	TenantID       uuid.UUID `json:"tenant_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	AssigneeID     uuid.UUID `json:"assignee_id"`
}

// Client enqueues background tasks on the Redis-backed queue
type Client struct {
	client *asynq.Client
}

// NewClientFromEnv constructs a queue client using the REDIS_URL
// environment variable.
func NewClientFromEnv() (*Client, error) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		return nil, errors.New("queue: REDIS_URL environment variable is not set")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("queue: parse REDIS_URL: %w", err)
	}
	return &Client{client: asynq.NewClient(opt)}, nil
}

// EnqueueAssignmentEmail queues an assignment notification for
// background delivery. The caller's state transition has already
// committed; delivery failures are retried by the worker and never
// reach the caller.
func (c *Client) EnqueueAssignmentEmail(ctx context.Context, p AssignmentEmailPayload) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("queue: marshal payload: %w", err)
	}
	task := asynq.NewTask(TypeAssignmentEmail, payload)
	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue("mailers"), asynq.MaxRetry(3))
	return err
}

// Close releases the underlying Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}
