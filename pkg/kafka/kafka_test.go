package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	fails int
	calls int
	seen  string
}

func (h *flakyHandler) Topic() string { return "refresh" }

func (h *flakyHandler) Handle(ctx context.Context, b []byte) error {
	h.calls++
	h.seen = TraceID(ctx)
	if h.calls <= h.fails {
		return errors.New("not yet")
	}
	return nil
}

func newTestConsumer(t *testing.T, retries int) *Consumer {
	t.Helper()
	c, err := NewConsumer(
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retries, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestHandleRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	c.WithConsumerHook(TraceHook())
	h := &flakyHandler{fails: 2}

	msg := kafka.Message{Topic: "refresh", Value: []byte(`{}`), Headers: []kafka.Header{{Key: "trace_id", Value: []byte("abc")}}}
	require.NoError(t, c.handle(context.Background(), h, msg))
	assert.Equal(t, 3, h.calls)
	assert.Equal(t, "abc", h.seen)
}

func TestHandleGivesUp(t *testing.T) {
	c := newTestConsumer(t, 1)
	h := &flakyHandler{fails: 5}
	assert.Error(t, c.handle(context.Background(), h, kafka.Message{Topic: "refresh"}))
	assert.Equal(t, 2, h.calls)
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "refresh" }
func (panicHandler) Handle(context.Context, []byte) error { panic("boom") }

func TestHandleRecoversPanic(t *testing.T) {
	c := newTestConsumer(t, 0)
	err := c.handle(context.Background(), panicHandler{}, kafka.Message{Topic: "refresh"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestBeforeHookErrorSkipsHandler(t *testing.T) {
	c := newTestConsumer(t, 0)
	var after int
	c.WithConsumerHook(HookFuncs{
		Before: func(ctx context.Context, _ kafka.Message) (context.Context, error) {
			return ctx, errors.New("rejected")
		},
		After: func(context.Context, kafka.Message, error) { after++ },
	})
	h := &flakyHandler{}
	assert.Error(t, c.handle(context.Background(), h, kafka.Message{Topic: "refresh"}))
	assert.Zero(t, h.calls)
	assert.Zero(t, after)
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt < 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 80*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 80*time.Millisecond)
	}
}

func TestNewRequiresBrokers(t *testing.T) {
	_, err := NewConsumer()
	assert.Error(t, err)
	_, err = NewProducer()
	assert.Error(t, err)
}

func TestEncode(t *testing.T) {
	b, err := encode(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))
	b, _ = encode("raw")
	assert.Equal(t, "raw", string(b))
}
