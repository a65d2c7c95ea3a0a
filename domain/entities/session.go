package entities

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionState represents the lifecycle state of a conversation session
type SessionState string

const (
	SessionStateIdle      SessionState = "idle"
	SessionStateListening SessionState = "listening"
	SessionStateEnded     SessionState = "ended"
)

// Session represents one captured conversation. It is owned by a single
// controller goroutine; everyone else reads SessionSnapshot values.
type Session struct {
	ID              string
	State           SessionState
	Transcript      Transcript
	Scores          MoodScore
	Mood            *Mood
	Recommendations []Recommendation
	StartedAt       time.Time
	EndedAt         *time.Time
}

// NewSession returns an idle session with nothing captured yet
func NewSession() *Session {
	return &Session{
		State:  SessionStateIdle,
		Scores: NewMoodScore(),
	}
}

// Begin resets the session for a new conversation and moves it to Listening
func (s *Session) Begin() {
	s.ID = uuid.NewString()
	s.State = SessionStateListening
	s.Transcript = make(Transcript, 0, 8)
	s.Scores = NewMoodScore()
	s.Mood = nil
	s.Recommendations = nil
	s.StartedAt = time.Now()
	s.EndedAt = nil
}

// AddUtterance appends an utterance to the transcript
func (s *Session) AddUtterance(u Utterance) {
	s.Transcript = append(s.Transcript, u)
}

// End moves the session to Ended and records the classification outcome
func (s *Session) End(mood Mood, scores MoodScore, recs []Recommendation) {
	now := time.Now()
	s.State = SessionStateEnded
	s.Mood = &mood
	s.Scores = scores
	s.Recommendations = recs
	s.EndedAt = &now
}

// IsListening reports whether the session is currently capturing speech
func (s *Session) IsListening() bool {
	return s.State == SessionStateListening
}

// Snapshot returns a deep copy safe to hand to other goroutines
func (s *Session) Snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		ID:         s.ID,
		State:      s.State,
		Transcript: append(Transcript(nil), s.Transcript...),
		Scores:     s.Scores.Clone(),
		StartedAt:  s.StartedAt,
	}
	if s.Mood != nil {
		m := *s.Mood
		snap.Mood = &m
	}
	if s.Recommendations != nil {
		snap.Recommendations = append([]Recommendation(nil), s.Recommendations...)
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		snap.EndedAt = &t
	}
	return snap
}

// Validate validates the session data
func (s *Session) Validate() error {
	switch s.State {
	case SessionStateIdle, SessionStateListening, SessionStateEnded:
	default:
		return errors.New("invalid session state")
	}

	if s.State != SessionStateIdle && s.ID == "" {
		return errors.New("session id is required once started")
	}

	if s.State == SessionStateEnded {
		if s.Mood == nil {
			return errors.New("ended session must have a mood")
		}
		if !s.Mood.Valid() {
			return errors.New("invalid session mood")
		}
	} else if s.Mood != nil || s.Recommendations != nil {
		return errors.New("mood and recommendations are only set once ended")
	}

	return nil
}

// SessionSnapshot is an immutable view of a session
type SessionSnapshot struct {
	ID              string           `json:"session_id"`
	State           SessionState     `json:"state"`
	Transcript      Transcript       `json:"transcript"`
	Scores          MoodScore        `json:"scores"`
	Mood            *Mood            `json:"mood,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	StartedAt       time.Time        `json:"started_at"`
	EndedAt         *time.Time       `json:"ended_at,omitempty"`
}
