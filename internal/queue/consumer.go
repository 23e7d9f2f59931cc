package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/contacts-api/internal/metrics"
)

// EventHandler delivers a decoded MailEvent.
type EventHandler interface {
    HandleMailEvent(ctx context.Context, ev MailEvent) error
}

// Consumer drains the mail queue and hands events to an EventHandler.
type Consumer struct {
    url     string
    queue   string
    handler EventHandler
    log     *slog.Logger
}

func NewConsumer(url, queue string, handler EventHandler, log *slog.Logger) *Consumer {
    return &Consumer{url: url, queue: queue, handler: handler, log: log}
}

// Run connects to RabbitMQ, declares the queue and consumes until ctx is
// cancelled. Broker failures are retried with exponential backoff capped
// at 30s. A message that cannot be handled is rejected without requeue so
// one bad event cannot spin the consumer.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.log.Warn("mail-consumer: failed to dial broker", slog.Any("error", err), slog.Duration("retry_in", backoff))
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
        c.log.Warn("mail-consumer: consume loop ended; reconnecting", slog.Any("error", err))
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
        c.log.Warn("mail-consumer: set QoS failed", slog.Any("error", err))
    }
    if err := declareQueue(ch, c.queue); err != nil {
        return err
    }

    msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handleMessage(ctx, d.Body); err != nil {
                c.log.Error("mail-consumer: handle message failed", slog.Any("error", err))
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
    var ev MailEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    switch ev.Kind {
    case MailConfirmation, MailPasswordReset:
    default:
        return fmt.Errorf("unknown mail kind %q", ev.Kind)
    }
    if ev.Email == "" {
        return errors.New("mail event without recipient")
    }
    if err := c.handler.HandleMailEvent(ctx, ev); err != nil {
        metrics.MailEvents.WithLabelValues(string(ev.Kind), "delivery_failed").Inc()
        return fmt.Errorf("deliver %s mail: %w", ev.Kind, err)
    }
    metrics.MailEvents.WithLabelValues(string(ev.Kind), "delivered").Inc()
    return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
