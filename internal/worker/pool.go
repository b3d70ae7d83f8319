package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	// QueueReceiptEmail holds receipt delivery jobs consumed by this service.
	QueueReceiptEmail = "jobs:receipt_email"

	// EventsList is the outbound event stream. The engine only produces here;
	// the CRM and reporting services drain it on their side.
	EventsList = "events:pos"
)

// MaxJobRetries before a job is parked in the dead letter queue.
const MaxJobRetries = 3

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Event is the envelope pushed onto EventsList.
type Event struct {
	Name       string                 `json:"name"`
	OccurredAt string                 `json:"occurred_at"` // ISO 8601
	Payload    map[string]interface{} `json:"payload"`
}

// ReceiptEmailPayload is the job envelope sent to QueueReceiptEmail.
type ReceiptEmailPayload struct {
	ReceiptID string `json:"receipt_id"`
	ToEmail   string `json:"to_email"`
}

// Dispatcher enqueues async jobs and domain events into Redis lists.
// The worker pool dequeues jobs via BRPOP; events are left for the rest of
// the suite to consume.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// Emit publishes a domain event for downstream consumers.
func (d *Dispatcher) Emit(ctx context.Context, event string, payload map[string]interface{}) error {
	evt := Event{
		Name:       event,
		OccurredAt: time.Now().UTC().Format(time.RFC3339),
		Payload:    payload,
	}
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, EventsList, data).Err()
}

// EnqueueReceiptEmail pushes a receipt delivery job to Redis.
func (d *Dispatcher) EnqueueReceiptEmail(ctx context.Context, receiptID uuid.UUID, to string) error {
	return d.enqueue(ctx, QueueReceiptEmail, "receipt_email", ReceiptEmailPayload{
		ReceiptID: receiptID.String(),
		ToEmail:   to,
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// Handler processes one dequeued job. A returned error triggers a retry; the
// job lands in the DLQ once MaxJobRetries is exhausted.
type Handler interface {
	Process(ctx context.Context, raw json.RawMessage) error
}

// StartWorkerPool launches numWorkers goroutines consuming the registered
// queues. Each goroutine blocks on BRPOP — zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers map[string]Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop — waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	handler, ok := handlers[queue]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler registered for queue")
		return
	}

	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")

	err := withRetry(ctx, MaxJobRetries, func(attempt int) error {
		if err := handler.Process(ctx, job.Payload); err != nil {
			log.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("type", job.Type).
				Msg("job attempt failed")
			return err
		}
		return nil
	})
	if err != nil {
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), MaxJobRetries)
	}
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}
