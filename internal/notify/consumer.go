package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	platformredis "github.com/taskgram/api/internal/platform/redis"
)

// queue is the slice of the work queue the consumer uses.
type queue interface {
	Process(queueName string, handler platformredis.Handler)
	Stop(queueName string)
}

// Dispatcher delivers one notification to its destination channel
// (log, bot, push service, ...).
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// LogDispatcher is the default Dispatcher: it records the notification in
// the structured log. Real delivery channels plug in behind the same
// interface.
type LogDispatcher struct {
	logger *slog.Logger
}

// NewLogDispatcher creates a LogDispatcher.
func NewLogDispatcher(log *slog.Logger) *LogDispatcher {
	if log == nil {
		log = slog.Default()
	}
	return &LogDispatcher{logger: log.With(slog.String("component", "notification_dispatcher"))}
}

// Dispatch implements Dispatcher.
func (d *LogDispatcher) Dispatch(_ context.Context, msg Message) error {
	attrs := []any{
		slog.Int64("owner_id", msg.OwnerID),
		slog.String("task_id", msg.TaskID),
		slog.String("title", msg.Title),
		slog.String("priority", msg.Priority),
	}
	if msg.DueDate != nil {
		attrs = append(attrs, slog.Time("due_date", *msg.DueDate))
	}
	d.logger.Info("task due soon", attrs...)
	return nil
}

// Consumer drains the notification queue, decoding each message and handing
// it to the dispatcher. It runs until Stop is called; the underlying queue
// loop survives individual bad messages.
type Consumer struct {
	queue      queue
	queueName  string
	dispatcher Dispatcher
	logger     *slog.Logger
}

// NewConsumer creates a Consumer for the named queue.
func NewConsumer(q queue, queueName string, dispatcher Dispatcher, log *slog.Logger) (*Consumer, error) {
	if q == nil {
		return nil, fmt.Errorf("queue cannot be nil")
	}
	if queueName == "" {
		return nil, fmt.Errorf("queue name cannot be empty")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("dispatcher cannot be nil")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Consumer{
		queue:      q,
		queueName:  queueName,
		dispatcher: dispatcher,
		logger:     log.With(slog.String("component", "notification_consumer")),
	}, nil
}

// Start begins draining the queue. Calling Start twice is safe; the queue's
// per-name processing guard makes the second call a no-op.
func (c *Consumer) Start() {
	c.logger.Info("starting notification consumer", slog.String("queue", c.queueName))
	c.queue.Process(c.queueName, c.handle)
}

// Stop signals the queue loop to exit after its current wait or handler.
func (c *Consumer) Stop() {
	c.queue.Stop(c.queueName)
}

func (c *Consumer) handle(ctx context.Context, payload []byte) error {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		// The message is already popped; nothing to retry. Surface the
		// decode failure to the queue loop's error log and move on.
		return fmt.Errorf("undecodable notification payload: %w", err)
	}

	if err := c.dispatcher.Dispatch(ctx, msg); err != nil {
		return fmt.Errorf("dispatch notification for task %s: %w", msg.TaskID, err)
	}

	return nil
}
