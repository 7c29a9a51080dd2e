package messaging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryPublisher(t *testing.T) {
	p := NewMemoryPublisher()
	msg := NewMessage("m-1", TypeNotificationDigest, map[string]int{"ContentUpdated": 3})
	msg.SetMetadata("organization", "all")

	require.NoError(t, p.Publish(context.Background(), msg))
	got := p.Messages()
	require.Len(t, got, 1)
	assert.Equal(t, "m-1", got[0].GetID())
	assert.Equal(t, "all", got[0].GetMetadata()["organization"])

	p.Err = assert.AnError
	assert.ErrorIs(t, p.Publish(context.Background(), msg), assert.AnError)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Publish(ctx, msg), context.Canceled)
	assert.Len(t, p.Messages(), 1)
}
