package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

func TestClientCapture_UnsupportedUntilDeclared(t *testing.T) {
	c := NewClientCapture(zaptest.NewLogger(t))

	_, err := c.Start(context.Background())
	assert.ErrorIs(t, err, repositories.ErrCaptureUnsupported)

	c.SetSupported(true)
	events, err := c.Start(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, events)
	assert.True(t, c.Active())
}

func TestClientCapture_SinglyHeld(t *testing.T) {
	c := NewClientCapture(zaptest.NewLogger(t))
	c.SetSupported(true)

	_, err := c.Start(context.Background())
	require.NoError(t, err)

	_, err = c.Start(context.Background())
	assert.ErrorIs(t, err, repositories.ErrCaptureInUse)

	require.NoError(t, c.Stop())
	_, err = c.Start(context.Background())
	assert.NoError(t, err)
}

func TestClientCapture_PushAndFail(t *testing.T) {
	c := NewClientCapture(zaptest.NewLogger(t))
	c.SetSupported(true)

	assert.ErrorIs(t, c.Push(entities.RecognitionResult{Text: "hi", IsFinal: true}), ErrNotCapturing)

	events, err := c.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Push(entities.RecognitionResult{Text: "I feel calm", IsFinal: true, ResultID: "0"}))
	require.NoError(t, c.Fail("  "))

	ev := <-events
	assert.Equal(t, "I feel calm", ev.Result.Text)
	assert.True(t, ev.Result.IsFinal)
	assert.NoError(t, ev.Err)

	ev = <-events
	require.Error(t, ev.Err)
	assert.Contains(t, ev.Err.Error(), "unknown error")
}

func TestClientCapture_StopClosesStream(t *testing.T) {
	c := NewClientCapture(zaptest.NewLogger(t))
	c.SetSupported(true)

	events, err := c.Start(context.Background())
	require.NoError(t, err)

	require.NoError(t, c.Stop())
	require.NoError(t, c.Stop())

	_, ok := <-events
	assert.False(t, ok)
	assert.False(t, c.Active())
}

func TestClientCapture_BufferFull(t *testing.T) {
	c := NewClientCapture(zaptest.NewLogger(t))
	c.SetSupported(true)

	_, err := c.Start(context.Background())
	require.NoError(t, err)

	for i := 0; i < clientBufferSize; i++ {
		require.NoError(t, c.Push(entities.RecognitionResult{Text: "x"}))
	}
	err = c.Push(entities.RecognitionResult{Text: "overflow"})
	assert.True(t, errors.Is(err, ErrBufferFull))

	// Stop must not block on the full buffer
	assert.NoError(t, c.Stop())
}
