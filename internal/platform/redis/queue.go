package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// defaultPopTimeout bounds each blocking pop so a stop signal is observed
// within one wait at most. It is not a per-message deadline.
const defaultPopTimeout = 5 * time.Second

// queueCommands is the subset of go-redis commands the queue needs.
// *redis.Client satisfies it; tests substitute a fake.
type queueCommands interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Handler processes one dequeued message. The loop waits for the handler to
// return before popping again, so handlers for one queue never overlap.
type Handler func(ctx context.Context, payload []byte) error

// Queue is a FIFO work queue over Redis lists: RPUSH on enqueue, BLPOP in a
// per-queue consumer loop.
//
// Delivery is at most once. The pop is destructive and there is no
// acknowledgement, so a crash between pop and handler completion loses that
// message. Callers needing stronger guarantees must layer them on top.
type Queue struct {
	client     queueCommands
	logger     *slog.Logger
	popTimeout time.Duration

	mu     sync.Mutex
	loops  map[string]chan struct{}
	wg     sync.WaitGroup
	closed bool
}

// NewQueue creates a Queue on top of the given Redis client.
// If logger is nil, a default logger will be used.
func NewQueue(client queueCommands, logger *slog.Logger) *Queue {
	if client == nil {
		panic("client cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Queue{
		client:     client,
		logger:     logger.With(slog.String("component", "queue")),
		popTimeout: defaultPopTimeout,
		loops:      make(map[string]chan struct{}),
	}
}

// Enqueue serializes message as JSON and appends it to the tail of the named
// list. It never blocks on consumers; an unconsumed queue grows unbounded.
func (q *Queue) Enqueue(ctx context.Context, queueName string, message any) error {
	serialized, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("enqueue %q: marshal: %w", queueName, err)
	}

	if err := q.client.RPush(ctx, queueName, serialized).Err(); err != nil {
		return fmt.Errorf("enqueue %q: %w", queueName, err)
	}

	return nil
}

// Process starts the consumer loop for queueName. Calling it again for a
// queue that is already being processed is a no-op. The loop pops messages
// head-first, invoking handler to completion before the next pop; handler
// and transport errors are logged and the loop continues.
func (q *Queue) Process(queueName string, handler Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		q.logger.Warn("process called on closed queue", slog.String("queue", queueName))
		return
	}
	if _, running := q.loops[queueName]; running {
		return
	}

	stop := make(chan struct{})
	q.loops[queueName] = stop

	q.wg.Add(1)
	go q.processLoop(queueName, handler, stop)
}

// Stop signals the consumer loop for queueName to exit. The loop finishes
// its current wait or in-flight handler first; nothing is cancelled
// mid-handler. Stopping a queue that is not processing is a no-op.
func (q *Queue) Stop(queueName string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if stop, running := q.loops[queueName]; running {
		close(stop)
		delete(q.loops, queueName)
	}
}

// Close stops every consumer loop and waits for them to finish.
func (q *Queue) Close() {
	q.mu.Lock()
	q.closed = true
	for name, stop := range q.loops {
		close(stop)
		delete(q.loops, name)
	}
	q.mu.Unlock()

	q.wg.Wait()
}

func (q *Queue) processLoop(queueName string, handler Handler, stop <-chan struct{}) {
	defer q.wg.Done()

	log := q.logger.With(slog.String("queue", queueName))
	log.Info("queue processing started")

	for {
		select {
		case <-stop:
			log.Info("queue processing stopped")
			return
		default:
		}

		ctx := context.Background()
		values, err := q.client.BLPop(ctx, q.popTimeout, queueName).Result()
		if err != nil {
			// redis.Nil is the bounded wait expiring with no message;
			// loop around so the stop signal gets another look.
			if !errors.Is(err, redis.Nil) {
				log.Error("failed to pop from queue", slog.String("error", err.Error()))
			}
			continue
		}

		// BLPOP returns [key, element].
		if len(values) != 2 {
			log.Error("unexpected BLPOP reply shape", slog.Int("len", len(values)))
			continue
		}

		if err := handler(ctx, []byte(values[1])); err != nil {
			log.Error("queue handler failed", slog.String("error", err.Error()))
		}
	}
}
