package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "go.uber.org/zap"
)

// Handler processes one decoded event.  A returned error rejects the
// message without requeueing it.
type Handler func(ctx context.Context, ev ReservationCreatedEvent) error

// Consumer drains the confirmation queue.
type Consumer struct {
    URL     string
    Queue   string
    Handler Handler
    Log     *zap.Logger
    // Timeout bounds each Handler call; zero means no bound.
    Timeout time.Duration
}

// Run connects to the broker, declares the queue (durable) and consumes
// messages until ctx is cancelled.  Connection failures are retried with an
// exponential backoff capped at 30s.  Run returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
    if c.Log == nil {
        c.Log = zap.NewNop()
    }
    if c.Queue == "" {
        c.Queue = DefaultQueue
    }
    backoff := time.Second
    for {
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            c.Log.Warn("notifier: failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.Log.Warn("notifier: consume loop ended; reconnecting", zap.Error(err))
        if !sleep(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.Log.Warn("notifier: set QoS failed", zap.Error(err))
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    c.Log.Info("notifier: consuming", zap.String("queue", c.Queue))

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                c.Log.Error("notifier: handle message failed", zap.String("message_id", d.MessageId), zap.Error(err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var ev ReservationCreatedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.To == "" {
        return errors.New("event has no recipient")
    }
    if c.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, c.Timeout)
        defer cancel()
    }
    return c.Handler(ctx, ev)
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-t.C:
        return true
    case <-ctx.Done():
        return false
    }
}
