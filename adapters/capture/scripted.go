package capture

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

// Step is one scripted capture event
type Step struct {
	// Delay is waited before the step is emitted
	Delay  time.Duration
	Result entities.RecognitionResult
	Err    error
}

// ScriptedCapture replays a fixed script of recognition events. It is used
// by the demo command and by tests that need a capture source with timing.
type ScriptedCapture struct {
	logger *zap.Logger
	script []Step

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

var _ repositories.CaptureSource = (*ScriptedCapture)(nil)

// NewScriptedCapture creates a capture source that replays script on every Start
func NewScriptedCapture(script []Step, logger *zap.Logger) *ScriptedCapture {
	return &ScriptedCapture{
		logger: logger,
		script: script,
	}
}

// Utterances builds a script of final results spaced by gap
func Utterances(gap time.Duration, texts ...string) []Step {
	steps := make([]Step, 0, len(texts))
	for _, text := range texts {
		steps = append(steps, Step{
			Delay:  gap,
			Result: entities.RecognitionResult{Text: text, IsFinal: true},
		})
	}
	return steps
}

// Start implements repositories.CaptureSource
func (s *ScriptedCapture) Start(ctx context.Context) (<-chan repositories.CaptureEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return nil, repositories.ErrCaptureInUse
	}

	runCtx, cancel := context.WithCancel(context.Background())
	events := make(chan repositories.CaptureEvent)
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.replay(runCtx, events, done)

	s.logger.Info("Scripted capture started", zap.Int("steps", len(s.script)))
	return events, nil
}

// Stop implements repositories.CaptureSource
func (s *ScriptedCapture) Stop() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// replay emits the script and then idles until stopped. The channel is
// closed only after Stop so a finished script does not look like a failure.
func (s *ScriptedCapture) replay(ctx context.Context, events chan<- repositories.CaptureEvent, done chan<- struct{}) {
	defer close(done)
	defer close(events)

	for i, step := range s.script {
		if step.Delay > 0 {
			timer := time.NewTimer(step.Delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
		}

		select {
		case <-ctx.Done():
			return
		case events <- repositories.CaptureEvent{Result: step.Result, Err: step.Err}:
			s.logger.Debug("Scripted capture step emitted",
				zap.Int("step", i),
				zap.String("text", step.Result.Text))
		}
	}

	<-ctx.Done()
}
