package stt

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

// ErrNoStream is returned by WriteAudio when capture has not been started
var ErrNoStream = errors.New("no active recognition stream")

// GoogleStreamingCapture is a server-side capture source. Raw audio is fed
// with WriteAudio and recognition results, interim ones included, are
// delivered on the channel returned by Start.
type GoogleStreamingCapture struct {
	config repositories.AudioConfig
	logger *zap.Logger

	mu     sync.Mutex
	client *speech.Client
	stream speechpb.Speech_StreamingRecognizeClient
	cancel context.CancelFunc
	done   chan struct{}
}

var (
	_ repositories.CaptureSource = (*GoogleStreamingCapture)(nil)
	_ repositories.AudioSink     = (*GoogleStreamingCapture)(nil)
)

// NewGoogleStreamingCapture creates a streaming capture source for config
func NewGoogleStreamingCapture(config repositories.AudioConfig, logger *zap.Logger) *GoogleStreamingCapture {
	return &GoogleStreamingCapture{
		config: WithDefaults(config),
		logger: logger,
	}
}

// Start implements repositories.CaptureSource
func (g *GoogleStreamingCapture) Start(ctx context.Context) (<-chan repositories.CaptureEvent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stream != nil {
		return nil, repositories.ErrCaptureInUse
	}

	recognitionConfig, err := recognitionConfig(g.config)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repositories.ErrCaptureUnsupported, err)
	}

	// the stream outlives the start request
	streamCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))

	client, err := speech.NewClient(streamCtx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	stream, err := client.StreamingRecognize(streamCtx)
	if err != nil {
		cancel()
		client.Close()
		return nil, fmt.Errorf("failed to create streaming recognize: %w", err)
	}

	if err := stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config:         recognitionConfig,
				InterimResults: true,
			},
		},
	}); err != nil {
		cancel()
		client.Close()
		return nil, fmt.Errorf("failed to send streaming config: %w", err)
	}

	events := make(chan repositories.CaptureEvent, 16)
	done := make(chan struct{})

	g.client = client
	g.stream = stream
	g.cancel = cancel
	g.done = done

	go g.receive(streamCtx, stream, events, done)

	g.logger.Info("Streaming recognition started",
		zap.String("encoding", g.config.Encoding),
		zap.Int("sampleRate", g.config.SampleRate),
		zap.String("language", g.config.Language))

	return events, nil
}

// WriteAudio implements repositories.AudioSink
func (g *GoogleStreamingCapture) WriteAudio(data []byte) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.stream == nil {
		return ErrNoStream
	}
	if len(data) == 0 {
		return nil
	}

	if err := g.stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{
			AudioContent: data,
		},
	}); err != nil {
		return fmt.Errorf("failed to send audio data: %w", err)
	}
	return nil
}

// Stop implements repositories.CaptureSource
func (g *GoogleStreamingCapture) Stop() error {
	g.mu.Lock()
	stream, client, cancel, done := g.stream, g.client, g.cancel, g.done
	g.stream, g.client, g.cancel, g.done = nil, nil, nil, nil
	g.mu.Unlock()

	if stream == nil {
		return nil
	}

	closeErr := stream.CloseSend()
	cancel()
	<-done

	if err := client.Close(); err != nil {
		g.logger.Warn("Failed to close speech client", zap.Error(err))
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close send stream: %w", closeErr)
	}
	return nil
}

func (g *GoogleStreamingCapture) receive(
	ctx context.Context,
	stream speechpb.Speech_StreamingRecognizeClient,
	events chan<- repositories.CaptureEvent,
	done chan<- struct{},
) {
	defer close(done)
	defer close(events)

	finals := 0
	for {
		resp, err := stream.Recv()
		if err == io.EOF || ctx.Err() != nil {
			return
		}
		if err != nil {
			g.emit(ctx, events, repositories.CaptureEvent{Err: fmt.Errorf("failed to receive response: %w", err)})
			return
		}
		if status := resp.GetError(); status != nil {
			g.emit(ctx, events, repositories.CaptureEvent{Err: fmt.Errorf("recognition error: %s", status.GetMessage())})
			return
		}

		for _, ev := range streamEvents(resp, &finals) {
			if !g.emit(ctx, events, ev) {
				return
			}
		}
	}
}

func (g *GoogleStreamingCapture) emit(ctx context.Context, events chan<- repositories.CaptureEvent, ev repositories.CaptureEvent) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// streamEvents converts one streaming response into capture events. Final
// results are numbered so a redelivered result keeps its ID.
func streamEvents(resp *speechpb.StreamingRecognizeResponse, finals *int) []repositories.CaptureEvent {
	var events []repositories.CaptureEvent
	for _, result := range resp.GetResults() {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}

		r := entities.RecognitionResult{
			Text:    alternatives[0].GetTranscript(),
			IsFinal: result.GetIsFinal(),
		}
		if r.IsFinal {
			r.ResultID = "final-" + strconv.Itoa(*finals)
			*finals++
		}
		events = append(events, repositories.CaptureEvent{Result: r})
	}
	return events
}
