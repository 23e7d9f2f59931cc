package queue

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    "github.com/iliyamo/contacts-api/internal/metrics"
)

// Publisher sends MailEvents to a durable queue. It implements the mailer
// port of the service layer, so flows enqueue mail and return without
// waiting for SMTP.
type Publisher struct {
    queue   string
    log     *slog.Logger
    now     func() time.Time
    publish func(ctx context.Context, queue string, msg amqp.Publishing) error
}

// NewPublisher returns a Publisher that dials url for every message.
func NewPublisher(url, queue string, log *slog.Logger) *Publisher {
    return &Publisher{
        queue: queue,
        log:   log,
        now:   time.Now,
        publish: func(ctx context.Context, queue string, msg amqp.Publishing) error {
            return dialAndPublish(ctx, url, queue, msg)
        },
    }
}

// SendConfirmation enqueues an email confirmation message.
func (p *Publisher) SendConfirmation(ctx context.Context, email, username, host string) error {
    return p.Publish(ctx, MailEvent{Kind: MailConfirmation, Email: email, Username: username, Host: host})
}

// SendPasswordReset enqueues a password reset message.
func (p *Publisher) SendPasswordReset(ctx context.Context, email, username, host string) error {
    return p.Publish(ctx, MailEvent{Kind: MailPasswordReset, Email: email, Username: username, Host: host})
}

// Publish marshals ev and publishes it as a persistent message. Errors are
// logged and returned so callers decide whether they matter.
func (p *Publisher) Publish(ctx context.Context, ev MailEvent) error {
    if ev.RequestedAt == "" {
        ev.RequestedAt = p.now().UTC().Format(time.RFC3339)
    }
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal mail event: %w", err)
    }

    msg := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    p.now().UTC(),
        Type:         string(ev.Kind),
        Body:         body,
    }
    if err := p.publish(ctx, p.queue, msg); err != nil {
        metrics.MailEvents.WithLabelValues(string(ev.Kind), "publish_failed").Inc()
        p.log.ErrorContext(ctx, "mail event publish failed",
            slog.String("kind", string(ev.Kind)), slog.String("email", ev.Email), slog.Any("error", err))
        return err
    }
    metrics.MailEvents.WithLabelValues(string(ev.Kind), "published").Inc()
    return nil
}

func dialAndPublish(ctx context.Context, url, queue string, msg amqp.Publishing) error {
    conn, err := amqp.Dial(url)
    if err != nil {
        return fmt.Errorf("rabbitmq dial: %w", err)
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("rabbitmq channel: %w", err)
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if err := declareQueue(ch, queue); err != nil {
        return err
    }

    if err := ch.PublishWithContext(ctx,
        "",    // default exchange
        queue, // routing key = queue name
        false, // mandatory
        false, // immediate
        msg,
    ); err != nil {
        return fmt.Errorf("rabbitmq publish: %w", err)
    }
    return nil
}

func declareQueue(ch *amqp.Channel, queue string) error {
    if _, err := ch.QueueDeclare(
        queue, // name
        true,  // durable
        false, // autoDelete
        false, // exclusive
        false, // noWait
        nil,   // args
    ); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    return nil
}
