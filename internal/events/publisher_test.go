package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

type fakeOutbox struct {
	publishPendingFn func(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error)
	prunePublishedFn func(ctx context.Context, before time.Time) (int64, error)
}

func (f *fakeOutbox) PublishPending(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error) {
	if f.publishPendingFn == nil {
		panic("PublishPending not configured")
	}
	return f.publishPendingFn(ctx, limit, publish)
}

func (f *fakeOutbox) PrunePublished(ctx context.Context, before time.Time) (int64, error) {
	if f.prunePublishedFn == nil {
		panic("PrunePublished not configured")
	}
	return f.prunePublishedFn(ctx, before)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func TestPublishBatch_WritesMessagesWithHeaders(t *testing.T) {
	otel.SetTextMapPropagator(propagation.TraceContext{})

	eventID := uuid.MustParse("00000000-0000-0000-0000-0000000000e1")
	records := []Record{{
		ID:            1,
		EventID:       eventID,
		BusinessID:    "biz-1",
		AggregateType: "appointment",
		AggregateID:   "a-1",
		EventType:     TypeAppointmentCreated,
		Payload:       `{"id":"a-1"}`,
		Traceparent:   "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	}}

	var gotLimit int
	outbox := &fakeOutbox{
		publishPendingFn: func(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error) {
			gotLimit = limit
			if err := publish(ctx, records); err != nil {
				return 0, err
			}
			return len(records), nil
		},
	}
	w := &fakeWriter{}
	p := NewPublisher(outbox, nil, PublisherConfig{TopicPrefix: "planner.", BatchSize: 10})

	n, err := p.PublishBatch(context.Background(), w)
	if err != nil {
		t.Fatalf("PublishBatch error: %v", err)
	}
	if n != 1 || gotLimit != 10 {
		t.Fatalf("n = %d, limit = %d", n, gotLimit)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("len(msgs) = %d, want 1", len(w.msgs))
	}
	msg := w.msgs[0]
	if msg.Topic != "planner.appointment.created" {
		t.Fatalf("topic = %q", msg.Topic)
	}
	if string(msg.Key) != "a-1" {
		t.Fatalf("key = %q", msg.Key)
	}
	if got := HeaderValue(msg.Headers, "event_id"); got != eventID.String() {
		t.Fatalf("event_id header = %q", got)
	}
	if got := HeaderValue(msg.Headers, "traceparent"); got != records[0].Traceparent {
		t.Fatalf("traceparent header = %q, want %q", got, records[0].Traceparent)
	}
}

func TestPublishBatch_WriterErrorPropagates(t *testing.T) {
	writeErr := errors.New("broker down")
	outbox := &fakeOutbox{
		publishPendingFn: func(ctx context.Context, limit int, publish func(ctx context.Context, records []Record) error) (int, error) {
			return 0, publish(ctx, []Record{{EventType: TypeSeriesCreated}})
		},
	}
	p := NewPublisher(outbox, nil, PublisherConfig{})

	_, err := p.PublishBatch(context.Background(), &fakeWriter{err: writeErr})
	if !errors.Is(err, writeErr) {
		t.Fatalf("err = %v, want %v", err, writeErr)
	}
}

func TestJanitorPrune_UsesRetentionCutoff(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var gotBefore time.Time
	outbox := &fakeOutbox{
		prunePublishedFn: func(ctx context.Context, before time.Time) (int64, error) {
			gotBefore = before
			return 3, nil
		},
	}
	j := NewJanitor(outbox, nil, "@daily", 48*time.Hour)
	j.now = func() time.Time { return now }

	j.Prune(context.Background())

	if want := now.Add(-48 * time.Hour); !gotBefore.Equal(want) {
		t.Fatalf("cutoff = %v, want %v", gotBefore, want)
	}
}

func TestJanitorRun_RejectsBadSchedule(t *testing.T) {
	j := NewJanitor(&fakeOutbox{}, nil, "not a schedule", time.Hour)
	if err := j.Run(context.Background()); err == nil {
		t.Fatalf("expected schedule parse error")
	}
}


func TestNew_MarshalsPayload(t *testing.T) {
	evt, err := New("biz-1", "appointment", "a-1", TypeAppointmentDeleted, map[string]string{"id": "a-1"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if string(evt.Payload) != `{"id":"a-1"}` {
		t.Fatalf("payload = %s", evt.Payload)
	}
}
