package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

type fakeCapture struct {
	mu          sync.Mutex
	unsupported bool
	held        bool
	starts      int
	stops       int
	events      chan repositories.CaptureEvent
}

func newFakeCapture() *fakeCapture {
	return &fakeCapture{}
}

func (f *fakeCapture) Start(ctx context.Context) (<-chan repositories.CaptureEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unsupported {
		return nil, repositories.ErrCaptureUnsupported
	}
	if f.held {
		return nil, repositories.ErrCaptureInUse
	}
	f.held = true
	f.starts++
	f.events = make(chan repositories.CaptureEvent, 16)
	return f.events, nil
}

func (f *fakeCapture) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.held {
		return nil
	}
	f.held = false
	f.stops++
	return nil
}

func (f *fakeCapture) emit(ev repositories.CaptureEvent) {
	f.mu.Lock()
	ch := f.events
	f.mu.Unlock()
	ch <- ev
}

func (f *fakeCapture) counts() (starts, stops int, held bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.stops, f.held
}

type readyCall struct {
	sessionID string
	mood      entities.Mood
	recs      []entities.Recommendation
}

type recordingSink struct {
	mu       sync.Mutex
	appended []entities.Utterance
	interim  []string
	states   []entities.SessionState
	ready    []readyCall
	notices  []error
}

func (s *recordingSink) TranscriptAppended(sessionID string, u entities.Utterance) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appended = append(s.appended, u)
}

func (s *recordingSink) InterimResult(sessionID string, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interim = append(s.interim, text)
}

func (s *recordingSink) SessionStateChanged(sessionID string, state entities.SessionState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.states = append(s.states, state)
}

func (s *recordingSink) RecommendationsReady(sessionID string, mood entities.Mood, recs []entities.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ready = append(s.ready, readyCall{sessionID: sessionID, mood: mood, recs: recs})
}

func (s *recordingSink) Notice(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, err)
}

func (s *recordingSink) readyCalls() []readyCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]readyCall(nil), s.ready...)
}

// manualScheduler records tasks and runs them only when the test fires them
type manualScheduler struct {
	mu    sync.Mutex
	tasks []*manualTimer
}

type manualTimer struct {
	f       func()
	delay   time.Duration
	stopped bool
	fired   bool
}

func (t *manualTimer) Stop() bool {
	wasPending := !t.stopped && !t.fired
	t.stopped = true
	return wasPending
}

func (s *manualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &manualTimer{f: f, delay: d}
	s.tasks = append(s.tasks, t)
	return t
}

// fire runs task i regardless of cancellation, like a timer that raced Stop
func (s *manualScheduler) fire(i int) {
	s.mu.Lock()
	t := s.tasks[i]
	s.mu.Unlock()
	t.fired = true
	t.f()
}

func (s *manualScheduler) task(i int) *manualTimer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasks[i]
}

func (s *manualScheduler) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}
