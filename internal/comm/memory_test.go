package comm

import (
	"context"
	"testing"
	"time"

	"github.com/Euraxluo/dataflow/common/logger"
	"github.com/stretchr/testify/require"
)

func TestMemoryLayerPublishSubscribe(t *testing.T) {
	layer := NewMemoryLayer("app", logger.New("error", "text"))
	defer layer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	sub, err := layer.Subscribe(ctx, "counter")
	require.NoError(t, err)
	defer sub.Close()

	pub, err := layer.Publisher(ctx, "counter")
	require.NoError(t, err)
	defer pub.Close()

	require.NoError(t, pub.Publish(ctx, []byte("42")))

	data, ok, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "42", string(data))
}

func TestMemoryLayerCloseEndsSubscriptions(t *testing.T) {
	layer := NewMemoryLayer("app", logger.New("error", "text"))

	ctx := context.Background()
	sub, err := layer.Subscribe(ctx, "topic")
	require.NoError(t, err)

	require.NoError(t, layer.Close())

	_, ok, err := sub.Recv(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}
