package redisstreams

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ptvdata/messaging"
)

type fakeClient struct {
	args []*redis.XAddArgs
	err  error
}

func (f *fakeClient) XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd {
	f.args = append(f.args, a)
	cmd := redis.NewStringCmd(ctx)
	if f.err != nil {
		cmd.SetErr(f.err)
		return cmd
	}
	cmd.SetVal("1700000000000-0")
	return cmd
}

func TestPublish_AppendsToTypedStream(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, DefaultConfig())

	msg := messaging.NewMessage("digest-1", messaging.TypeNotificationDigest, map[string]int{"total": 7})
	msg.SetMetadata("organization", "org-1")
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, c.args, 1)
	args := c.args[0]
	assert.Equal(t, "ptv:notification.digest", args.Stream)
	assert.Equal(t, int64(10000), args.MaxLen)
	assert.True(t, args.Approx)

	values := args.Values.(map[string]any)
	assert.Equal(t, "digest-1", values["id"])
	assert.JSONEq(t, `{"total":7}`, values["payload"].(string))
	assert.JSONEq(t, `{"organization":"org-1"}`, values["metadata"].(string))
}

func TestPublish_NoTrimWhenMaxLenUnset(t *testing.T) {
	c := &fakeClient{}
	p := NewPublisher(c, Config{})

	require.NoError(t, p.Publish(context.Background(), messaging.NewMessage("m", "x", nil)))
	assert.Equal(t, "ptv:x", c.args[0].Stream)
	assert.Zero(t, c.args[0].MaxLen)
}

func TestPublish_ReturnsClientError(t *testing.T) {
	boom := errors.New("connection refused")
	p := NewPublisher(&fakeClient{err: boom}, DefaultConfig())

	err := p.Publish(context.Background(), messaging.NewMessage("m", "x", nil))
	assert.ErrorIs(t, err, boom)
}

func TestDecodeEntry(t *testing.T) {
	ts := time.Unix(0, 1700000000000000000)
	msg := &messaging.Message{
		ID:        "msg-1",
		Type:      messaging.TypeNotificationDigest,
		Timestamp: ts,
		Payload:   map[string]any{"total": 42},
		Metadata:  map[string]any{"organization": "org-1"},
	}
	values, err := encodeMessage(msg)
	require.NoError(t, err)

	// 模拟从 Redis 读回：数值字段变为字符串
	values["timestamp"] = "1700000000000000000"
	decoded, err := DecodeEntry(redis.XMessage{ID: "1-0", Values: values})
	require.NoError(t, err)

	assert.Equal(t, "msg-1", decoded.ID)
	assert.Equal(t, ts.UnixNano(), decoded.Timestamp.UnixNano())
	assert.Equal(t, float64(42), decoded.Payload.(map[string]any)["total"])
	assert.Equal(t, "org-1", decoded.Metadata["organization"])

	decoded, err = DecodeEntry(redis.XMessage{ID: "2-0", Values: map[string]any{"type": "x"}})
	require.NoError(t, err)
	assert.Equal(t, "2-0", decoded.ID)
}
