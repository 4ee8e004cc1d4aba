package events

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// Outbox is the storage side of the publisher.
type Outbox interface {
	// PublishPending hands up to limit unpublished records, oldest first,
	// to publish and marks them published when it returns nil. Both happen
	// in one transaction.
	PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error)
	PrunePublished(ctx context.Context, before time.Time) (int64, error)
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type PublisherConfig struct {
	Brokers     []string
	TopicPrefix string
	PollEvery   time.Duration
	BatchSize   int
}

type Publisher struct {
	outbox    Outbox
	logger    *slog.Logger
	brokers   []string
	prefix    string
	pollEvery time.Duration
	batchSize int
}

func NewPublisher(outbox Outbox, logger *slog.Logger, cfg PublisherConfig) *Publisher {
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		outbox:    outbox,
		logger:    logger.With("component", "outbox_publisher"),
		brokers:   cfg.Brokers,
		prefix:    cfg.TopicPrefix,
		pollEvery: cfg.PollEvery,
		batchSize: cfg.BatchSize,
	}
}

// Run polls the outbox until ctx is done. Without brokers it returns
// immediately and events stay in the table.
func (p *Publisher) Run(ctx context.Context) {
	if len(p.brokers) == 0 {
		p.logger.Warn("outbox publisher disabled (no kafka brokers configured)")
		return
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
	}
	defer writer.Close()

	ticker := time.NewTicker(p.pollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.PublishBatch(ctx, writer)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}
				p.logger.Error("outbox publish failed", "err", err)
				continue
			}
			if n > 0 {
				p.logger.Debug("outbox published", "count", n)
			}
		}
	}
}

func (p *Publisher) PublishBatch(ctx context.Context, w MessageWriter) (int, error) {
	return p.outbox.PublishPending(ctx, p.batchSize, func(ctx context.Context, records []Record) error {
		msgs := make([]kafka.Message, 0, len(records))
		for _, r := range records {
			msgs = append(msgs, p.message(ctx, r))
		}
		return w.WriteMessages(ctx, msgs...)
	})
}

func (p *Publisher) message(ctx context.Context, r Record) kafka.Message {
	msgCtx := ContextWithTraceContext(ctx, r.Traceparent, r.Tracestate)
	msg := kafka.Message{
		Topic: p.prefix + r.EventType,
		Key:   []byte(r.AggregateID),
		Value: []byte(r.Payload),
		Headers: []kafka.Header{
			{Key: "event_id", Value: []byte(r.EventID.String())},
			{Key: "event_type", Value: []byte(r.EventType)},
			{Key: "business_id", Value: []byte(r.BusinessID)},
		},
	}
	msg.Headers = InjectTraceHeaders(msgCtx, msg.Headers)
	return msg
}

// ReadyCheck dials the first broker.
func ReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		_ = conn.Close()
		return nil
	}
}
