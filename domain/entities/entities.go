package entities

import (
	"errors"
	"strings"
	"time"
)

// Speaker identifies who produced an utterance
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// Utterance is one recognized chunk of speech, tagged by speaker
type Utterance struct {
	Speaker Speaker   `json:"speaker"`
	Text    string    `json:"text"`
	At      time.Time `json:"at"`
}

// NewUtterance stamps a new utterance with the current time
func NewUtterance(speaker Speaker, text string) Utterance {
	return Utterance{
		Speaker: speaker,
		Text:    text,
		At:      time.Now(),
	}
}

// Transcript is the ordered utterance history of a session
type Transcript []Utterance

// UserText returns the text of every user utterance, in transcript order
func (t Transcript) UserText() []string {
	var texts []string
	for _, u := range t {
		if u.Speaker == SpeakerUser {
			texts = append(texts, u.Text)
		}
	}
	return texts
}

// Count returns the number of utterances produced by speaker
func (t Transcript) Count(speaker Speaker) int {
	n := 0
	for _, u := range t {
		if u.Speaker == speaker {
			n++
		}
	}
	return n
}

// Mood is the classified emotional category driving recommendation lookup
type Mood string

const (
	MoodHappy     Mood = "happy"
	MoodSad       Mood = "sad"
	MoodEnergetic Mood = "energetic"
	MoodCalm      Mood = "calm"
	MoodNeutral   Mood = "neutral"
)

// ScoredMoods lists the keyword-scored moods in tie-break order.
// Neutral is never scored; it is the fallback when nothing matches.
var ScoredMoods = []Mood{MoodHappy, MoodSad, MoodEnergetic, MoodCalm}

// AllMoods lists every value of the closed Mood enum
var AllMoods = []Mood{MoodHappy, MoodSad, MoodEnergetic, MoodCalm, MoodNeutral}

// Valid reports whether m belongs to the closed Mood enum
func (m Mood) Valid() bool {
	for _, v := range AllMoods {
		if m == v {
			return true
		}
	}
	return false
}

// ParseMood converts user input into a Mood
func ParseMood(s string) (Mood, error) {
	m := Mood(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", errors.New("unknown mood: " + s)
	}
	return m, nil
}

// MoodScore maps each scored mood to its keyword hit count
type MoodScore map[Mood]int

// NewMoodScore returns a score table with every scored mood at zero
func NewMoodScore() MoodScore {
	s := make(MoodScore, len(ScoredMoods))
	for _, m := range ScoredMoods {
		s[m] = 0
	}
	return s
}

// Clone returns an independent copy of the score table
func (s MoodScore) Clone() MoodScore {
	if s == nil {
		return nil
	}
	c := make(MoodScore, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

// Recommendation is a single suggested track
type Recommendation struct {
	Title  string `json:"title" yaml:"title"`
	Artist string `json:"artist" yaml:"artist"`
}

func (r *Recommendation) Validate() error {
	if r.Title == "" {
		return errors.New("title is required")
	}
	if r.Artist == "" {
		return errors.New("artist is required")
	}
	return nil
}

// RecognitionResult is a speech-recognition result emitted by a capture source.
// Final results are committed; interim results are provisional and may be revised.
type RecognitionResult struct {
	Text     string `json:"text"`
	IsFinal  bool   `json:"is_final"`
	ResultID string `json:"result_id,omitempty"`
}
