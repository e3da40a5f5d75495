package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/meeting-reservation/internal/notify"
)

// Publisher hands confirmations to the broker as ReservationCreatedEvent
// messages.  It implements notify.Sink so the Dispatcher keeps broker
// latency off the request path.
type Publisher struct {
    URL   string
    Queue string
}

// NewPublisher returns a publisher for the given broker URL and queue.
func NewPublisher(url, queue string) *Publisher {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Publisher{URL: url, Queue: queue}
}

// Send publishes one persistent message.  Each call opens its own
// connection; confirmation traffic is low and this keeps the publisher free
// of reconnect state.
func (p *Publisher) Send(ctx context.Context, m notify.Message) error {
    body, err := json.Marshal(NewReservationCreatedEvent(m.To, m.Reservation))
    if err != nil {
        return fmt.Errorf("rabbitmq: marshal event: %w", err)
    }

    conn, err := amqp.Dial(p.URL)
    if err != nil {
        return fmt.Errorf("rabbitmq: dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq: channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        p.Queue, // name
        true,    // durable
        false,   // autoDelete
        false,   // exclusive
        false,   // noWait
        nil,     // args
    ); err != nil {
        return fmt.Errorf("rabbitmq: queue declare: %w", err)
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        MessageId:    m.Reservation.ID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx,
        "",      // default exchange
        p.Queue, // routing key = queue name
        false,   // mandatory
        false,   // immediate
        pub,
    ); err != nil {
        return fmt.Errorf("rabbitmq: publish: %w", err)
    }
    return nil
}

var _ notify.Sink = (*Publisher)(nil)
