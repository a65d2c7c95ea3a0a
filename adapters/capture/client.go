package capture

import (
	"context"
	"errors"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

const clientBufferSize = 64

var (
	// ErrNotCapturing is returned when results arrive while the source is not held
	ErrNotCapturing = errors.New("speech capture is not running")
	// ErrBufferFull is returned when the consumer falls behind the client
	ErrBufferFull = errors.New("speech capture buffer is full")
)

// ClientCapture is a capture source whose recognition runs on the client,
// for example the browser Web Speech API. The transport feeds results in
// with Push and failures with Fail.
type ClientCapture struct {
	logger *zap.Logger

	mu        sync.Mutex
	supported bool
	events    chan repositories.CaptureEvent
}

var _ repositories.CaptureSource = (*ClientCapture)(nil)

// NewClientCapture creates a client-fed capture source. It reports
// unsupported until the client declares recognition support.
func NewClientCapture(logger *zap.Logger) *ClientCapture {
	return &ClientCapture{logger: logger}
}

// SetSupported records whether the client is able to recognize speech
func (c *ClientCapture) SetSupported(supported bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supported = supported
}

// Start implements repositories.CaptureSource
func (c *ClientCapture) Start(ctx context.Context) (<-chan repositories.CaptureEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.supported {
		return nil, repositories.ErrCaptureUnsupported
	}
	if c.events != nil {
		return nil, repositories.ErrCaptureInUse
	}

	c.events = make(chan repositories.CaptureEvent, clientBufferSize)
	return c.events, nil
}

// Stop implements repositories.CaptureSource
func (c *ClientCapture) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events == nil {
		return nil
	}
	close(c.events)
	c.events = nil
	return nil
}

// Push forwards a recognition result produced by the client
func (c *ClientCapture) Push(result entities.RecognitionResult) error {
	return c.send(repositories.CaptureEvent{Result: result})
}

// Fail reports a client-side recognition failure
func (c *ClientCapture) Fail(reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return c.send(repositories.CaptureEvent{Err: errors.New("client recognition error: " + reason)})
}

// Active reports whether the source is currently held
func (c *ClientCapture) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events != nil
}

func (c *ClientCapture) send(ev repositories.CaptureEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.events == nil {
		return ErrNotCapturing
	}

	// never block while holding the lock, Stop would wait on us
	select {
	case c.events <- ev:
		return nil
	default:
		c.logger.Warn("Dropping capture event, consumer too slow",
			zap.Bool("final", ev.Result.IsFinal))
		return ErrBufferFull
	}
}
