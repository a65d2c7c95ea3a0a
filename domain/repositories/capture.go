package repositories

import (
	"context"
	"errors"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

var (
	// ErrCaptureUnsupported is returned by Start when the capture capability is absent
	ErrCaptureUnsupported = errors.New("speech capture is not supported")
	// ErrCaptureInUse is returned by Start when the source is already held
	ErrCaptureInUse = errors.New("speech capture is already in use")
)

// CaptureSource abstracts a live speech capture + recognition pipeline.
// A source is singly held: Start may only succeed again after Stop.
type CaptureSource interface {
	// Start begins capturing and returns the stream of recognition events.
	// The channel is closed once the source has been stopped.
	Start(ctx context.Context) (<-chan CaptureEvent, error)
	// Stop releases the source. Stopping an idle source is a no-op.
	Stop() error
}

// CaptureEvent carries either a recognition result or a capture failure
type CaptureEvent struct {
	Result entities.RecognitionResult
	Err    error
}

// AudioSink is implemented by capture sources that are fed raw audio
type AudioSink interface {
	WriteAudio(data []byte) error
}
