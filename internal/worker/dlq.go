package worker

// dlq.go — Dead Letter Queue
// Jobs that exhaust MaxJobRetries are parked here for manual inspection,
// one Redis list per source queue: dlq:{original_queue}. RequeueDLQ lets an
// operator push an entry back after fixing the underlying problem.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// SendToDLQ parks a failed job in the dead letter queue.
func SendToDLQ(ctx context.Context, rdb *redis.Client, queue string, jobType string, payload json.RawMessage, reason string, attempts int) {
	entry := DLQEntry{
		OriginalQueue: queue,
		JobType:       jobType,
		Payload:       payload,
		Reason:        reason,
		FailedAt:      time.Now().UTC().Format(time.RFC3339),
		Attempts:      attempts,
	}

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + queue
	if err := rdb.LPush(ctx, dlqKey, data).Err(); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push entry")
		return
	}

	log.Warn().
		Str("queue", queue).
		Str("job_type", jobType).
		Str("reason", reason).
		Int("attempts", attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of parked entries for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

// RequeueDLQ pops the oldest DLQ entry for a queue and re-enqueues its job.
// Returns the entry so the operator can see what was retried, or nil when the
// DLQ is empty.
func RequeueDLQ(ctx context.Context, rdb *redis.Client, queue string) (*DLQEntry, error) {
	raw, err := rdb.RPop(ctx, DLQPrefix+queue).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var entry DLQEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		return nil, err
	}

	job := Job{Type: entry.JobType, Payload: entry.Payload}
	encoded, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	if err := rdb.LPush(ctx, entry.OriginalQueue, encoded).Err(); err != nil {
		return nil, err
	}

	log.Info().
		Str("queue", entry.OriginalQueue).
		Str("job_type", entry.JobType).
		Msg("dlq: entry requeued")
	return &entry, nil
}
