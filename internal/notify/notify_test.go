package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	assert.Nil(t, n.Last())

	require.NoError(t, n.KeepAlive(context.Background(), "Uploading Service", "Service is running"))
	first := n.Last()
	require.NotNil(t, first)

	require.NoError(t, n.KeepAlive(context.Background(), "Uploading Service", "Service is running"))
	assert.False(t, n.Last().Before(*first))
}
