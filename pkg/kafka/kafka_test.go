package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Fake writer ---

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

// --- Event tests ---

func TestNewEvent_Fields(t *testing.T) {
	data := map[string]string{"review_id": "r-1"}
	event, err := NewEvent("reviews.review.submitted", "r-1", "review", "reviews", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "reviews.review.submitted", event.EventType)
	assert.Equal(t, "r-1", event.AggregateID)
	assert.Equal(t, "review", event.AggregateType)
	assert.Equal(t, 1, event.Version)

	var got map[string]string
	require.NoError(t, event.UnmarshalData(&got))
	assert.Equal(t, data, got)
}

func TestNewEvent_InvalidData(t *testing.T) {
	_, err := NewEvent("x", "a", "t", "s", make(chan int))
	require.Error(t, err)
}

func TestEvent_WithMetadataOnNilMap(t *testing.T) {
	e := &Event{}
	e.WithMetadata("k", "v").WithCorrelationID("corr")
	assert.Equal(t, "v", e.Metadata["k"])
	assert.Equal(t, "corr", e.CorrelationID)
}

// --- Producer tests ---

func TestProducer_Publish_WritesKeyedMessageWithHeaders(t *testing.T) {
	w := &fakeWriter{}
	p := newProducer(w, []string{"localhost:9092"}, testLogger())

	event, err := NewEvent("reviews.review.submitted", "r-42", "review", "reviews", map[string]string{})
	require.NoError(t, err)
	event.WithCorrelationID("corr-1")

	require.NoError(t, p.Publish(context.Background(), "reviews.review.submitted", event))
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "reviews.review.submitted", msg.Topic)
	assert.Equal(t, "r-42", string(msg.Key))
	assert.Equal(t, "reviews.review.submitted", header(msg, "event_type"))
	assert.Equal(t, "reviews", header(msg, "source"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))

	decoded, err := UnmarshalEvent(msg.Value)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
}

func TestProducer_Publish_WriterError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	p := newProducer(w, nil, testLogger())

	event, err := NewEvent("t", "a", "review", "reviews", nil)
	require.NoError(t, err)

	err = p.Publish(context.Background(), "t", event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to t")
}

func TestProducer_Close(t *testing.T) {
	w := &fakeWriter{}
	require.NoError(t, newProducer(w, nil, testLogger()).Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
}

// --- Header carrier ---

func TestHeaderCarrier_SetGetKeys(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("traceparent", "00-abc")
	c.Set("existing", "v2")

	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "traceparent"}, c.Keys())
	assert.Len(t, headers, 2)
}
