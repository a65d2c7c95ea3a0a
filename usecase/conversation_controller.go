package usecase

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
	"github.com/adrianngzz/bisonbytes25-v1/internal/mood"
	"github.com/adrianngzz/bisonbytes25-v1/internal/recommend"
)

const (
	defaultFollowUpDelay = time.Second
	defaultQueueSize     = 64

	greetingText  = "Hi there! I'm here to recommend music based on your mood. How are you feeling today?"
	summaryFormat = "Based on our conversation, I think you're feeling %s. Here are some songs that might match your mood!"
)

// FollowUpPrompts are the scripted agent lines used as conversational filler.
// They carry no information into mood classification.
var FollowUpPrompts = []string{
	"How are you feeling today?",
	"Tell me more about your day.",
	"What kind of music do you usually enjoy?",
	"Do any particular songs or artists help when you feel this way?",
	"I notice you mentioned feeling that way. How long has this been going on?",
}

// ErrControllerStopped is returned when submitting to a controller whose loop has exited
var ErrControllerStopped = errors.New("conversation controller stopped")

var errCaptureClosed = errors.New("capture stream closed")

// CaptureError reports a capture failure in the middle of a session
type CaptureError struct {
	SessionID string
	Err       error
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("speech capture failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error {
	return e.Err
}

// Event is an input processed by the controller loop
type Event interface {
	isEvent()
}

// StartCommand asks the controller to begin a new session
type StartCommand struct{}

// StopCommand asks the controller to end the current session
type StopCommand struct{}

// RecognitionEvent carries a recognition result for a session
type RecognitionEvent struct {
	SessionID string
	Result    entities.RecognitionResult
}

// CaptureFailed reports a mid-session capture failure
type CaptureFailed struct {
	SessionID string
	Err       error
}

// FollowUpDue fires when a scheduled filler line is due
type FollowUpDue struct {
	SessionID string
	Seq       uint64
}

func (StartCommand) isEvent()     {}
func (StopCommand) isEvent()      {}
func (RecognitionEvent) isEvent() {}
func (CaptureFailed) isEvent()    {}
func (FollowUpDue) isEvent()      {}

// ControllerConfig holds optional controller dependencies. Zero values are
// replaced with defaults.
type ControllerConfig struct {
	FollowUpDelay time.Duration
	Scheduler     Scheduler
	Rand          *rand.Rand
	QueueSize     int
}

// ConversationController owns one conversation session and drives it from a
// single event queue. Only the goroutine running Run (or a caller of Handle
// when Run is not used) mutates session state.
type ConversationController struct {
	capture   repositories.CaptureSource
	sink      repositories.UISink
	logger    *zap.Logger
	scheduler Scheduler
	rand      *rand.Rand
	delay     time.Duration

	events   chan Event
	done     chan struct{}
	doneOnce sync.Once

	session   *entities.Session
	collector *TurnCollector
	pending   map[uint64]Timer
	nextSeq   uint64
	stopPump  context.CancelFunc
	snapshot  atomic.Pointer[entities.SessionSnapshot]
}

// NewConversationController creates a controller in the Idle state
func NewConversationController(
	capture repositories.CaptureSource,
	sink repositories.UISink,
	logger *zap.Logger,
	config ControllerConfig,
) *ConversationController {
	if config.FollowUpDelay <= 0 {
		config.FollowUpDelay = defaultFollowUpDelay
	}
	if config.Scheduler == nil {
		config.Scheduler = TimeScheduler{}
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaultQueueSize
	}

	c := &ConversationController{
		capture:   capture,
		sink:      sink,
		logger:    logger,
		scheduler: config.Scheduler,
		rand:      config.Rand,
		delay:     config.FollowUpDelay,
		events:    make(chan Event, config.QueueSize),
		done:      make(chan struct{}),
		session:   entities.NewSession(),
		collector: NewTurnCollector(),
		pending:   make(map[uint64]Timer),
	}
	c.publish()
	return c
}

// Run processes events in arrival order until ctx is done. On exit any held
// capture is released and pending follow-ups are cancelled.
func (c *ConversationController) Run(ctx context.Context) error {
	defer c.doneOnce.Do(func() { close(c.done) })
	defer c.release()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev := <-c.events:
			c.Handle(ctx, ev)
		}
	}
}

// Start enqueues a start command
func (c *ConversationController) Start(ctx context.Context) error {
	return c.Submit(ctx, StartCommand{})
}

// Stop enqueues a stop command
func (c *ConversationController) Stop(ctx context.Context) error {
	return c.Submit(ctx, StopCommand{})
}

// Submit enqueues an event for the controller loop
func (c *ConversationController) Submit(ctx context.Context, ev Event) error {
	select {
	case <-c.done:
		return ErrControllerStopped
	default:
	}

	select {
	case c.events <- ev:
		return nil
	case <-c.done:
		return ErrControllerStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the latest published view of the session
func (c *ConversationController) Snapshot() entities.SessionSnapshot {
	return *c.snapshot.Load()
}

// Handle processes a single event synchronously
func (c *ConversationController) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case StartCommand:
		c.handleStart(ctx)
	case StopCommand:
		c.handleStop()
	case RecognitionEvent:
		c.handleRecognition(e)
	case CaptureFailed:
		c.handleCaptureFailed(e)
	case FollowUpDue:
		c.handleFollowUp(e)
	default:
		c.logger.Warn("Unknown conversation event", zap.String("type", fmt.Sprintf("%T", ev)))
	}
}

func (c *ConversationController) handleStart(ctx context.Context) {
	if c.session.IsListening() {
		c.logger.Info("Start ignored, session already listening",
			zap.String("sessionID", c.session.ID))
		return
	}

	events, err := c.capture.Start(ctx)
	if err != nil {
		c.logger.Warn("Failed to start speech capture", zap.Error(err))
		c.sink.Notice(fmt.Errorf("failed to start speech capture: %w", err))
		return
	}

	c.session.Begin()
	c.collector.Reset()
	c.publish()

	c.logger.Info("Conversation session started", zap.String("sessionID", c.session.ID))
	c.sink.SessionStateChanged(c.session.ID, c.session.State)
	c.appendUtterance(entities.NewUtterance(entities.SpeakerAgent, greetingText))

	c.startPump(ctx, c.session.ID, events)
}

func (c *ConversationController) handleRecognition(e RecognitionEvent) {
	if !c.isCurrent(e.SessionID) {
		c.logger.Debug("Dropping recognition result for inactive session",
			zap.String("sessionID", e.SessionID))
		return
	}

	if !e.Result.IsFinal {
		c.sink.InterimResult(c.session.ID, e.Result.Text)
		return
	}

	u, ok := c.collector.Collect(e.Result)
	if !ok {
		c.logger.Debug("Final result not committed",
			zap.String("sessionID", c.session.ID),
			zap.String("resultID", e.Result.ResultID))
		return
	}

	c.appendUtterance(u)
	c.scheduleFollowUp()
}

func (c *ConversationController) handleCaptureFailed(e CaptureFailed) {
	if !c.isCurrent(e.SessionID) {
		return
	}

	c.logger.Warn("Speech capture failed, ending session early",
		zap.String("sessionID", c.session.ID),
		zap.Int("utterances", len(c.session.Transcript)),
		zap.Error(e.Err))
	c.sink.Notice(&CaptureError{SessionID: e.SessionID, Err: e.Err})
	c.handleStop()
}

func (c *ConversationController) handleFollowUp(e FollowUpDue) {
	if _, ok := c.pending[e.Seq]; !ok || !c.isCurrent(e.SessionID) {
		c.logger.Debug("Discarding stale follow-up",
			zap.String("sessionID", e.SessionID),
			zap.Uint64("seq", e.Seq))
		return
	}
	delete(c.pending, e.Seq)

	line := FollowUpPrompts[c.rand.Intn(len(FollowUpPrompts))]
	c.appendUtterance(entities.NewUtterance(entities.SpeakerAgent, line))
}

func (c *ConversationController) handleStop() {
	if !c.session.IsListening() {
		c.logger.Debug("Stop ignored, no session listening", zap.String("state", string(c.session.State)))
		return
	}

	c.release()

	scores := mood.Score(c.session.Transcript)
	m := mood.Pick(scores)
	recs := recommend.Select(m)

	c.session.End(m, scores, recs)
	c.publish()
	c.sink.SessionStateChanged(c.session.ID, c.session.State)

	c.appendUtterance(entities.NewUtterance(entities.SpeakerAgent, fmt.Sprintf(summaryFormat, m)))

	c.logger.Info("Conversation session ended",
		zap.String("sessionID", c.session.ID),
		zap.String("mood", string(m)),
		zap.Int("utterances", len(c.session.Transcript)))

	c.sink.RecommendationsReady(c.session.ID, m, append([]entities.Recommendation(nil), recs...))
}

func (c *ConversationController) isCurrent(sessionID string) bool {
	return c.session.IsListening() && sessionID == c.session.ID
}

func (c *ConversationController) appendUtterance(u entities.Utterance) {
	c.session.AddUtterance(u)
	c.publish()
	c.sink.TranscriptAppended(c.session.ID, u)
}

func (c *ConversationController) scheduleFollowUp() {
	seq := c.nextSeq
	c.nextSeq++
	sessionID := c.session.ID

	c.pending[seq] = c.scheduler.AfterFunc(c.delay, func() {
		c.enqueueAsync(context.Background(), FollowUpDue{SessionID: sessionID, Seq: seq})
	})
}

// release cancels pending follow-ups and gives the capture source back
func (c *ConversationController) release() {
	for seq, t := range c.pending {
		t.Stop()
		delete(c.pending, seq)
	}

	if c.stopPump == nil {
		return
	}
	c.stopPump()
	c.stopPump = nil

	if err := c.capture.Stop(); err != nil {
		c.logger.Warn("Failed to stop speech capture",
			zap.String("sessionID", c.session.ID),
			zap.Error(err))
	}
}

// startPump forwards capture events into the queue, tagged with the session
func (c *ConversationController) startPump(ctx context.Context, sessionID string, events <-chan repositories.CaptureEvent) {
	pumpCtx, cancel := context.WithCancel(ctx)
	c.stopPump = cancel

	go func() {
		for {
			select {
			case <-pumpCtx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					c.enqueueAsync(pumpCtx, CaptureFailed{SessionID: sessionID, Err: errCaptureClosed})
					return
				}
				if ev.Err != nil {
					c.enqueueAsync(pumpCtx, CaptureFailed{SessionID: sessionID, Err: ev.Err})
					continue
				}
				c.enqueueAsync(pumpCtx, RecognitionEvent{SessionID: sessionID, Result: ev.Result})
			}
		}
	}()
}

// enqueueAsync is used by goroutines other than the loop; it gives up once
// the loop has exited or ctx is cancelled.
func (c *ConversationController) enqueueAsync(ctx context.Context, ev Event) {
	select {
	case c.events <- ev:
	case <-c.done:
	case <-ctx.Done():
	}
}

func (c *ConversationController) publish() {
	snap := c.session.Snapshot()
	c.snapshot.Store(&snap)
}
