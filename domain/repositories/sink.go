package repositories

import "github.com/adrianngzz/bisonbytes25-v1/domain/entities"

// UISink receives conversation notifications for rendering
type UISink interface {
	// TranscriptAppended is called for every utterance committed to the transcript
	TranscriptAppended(sessionID string, u entities.Utterance)
	// InterimResult surfaces provisional recognition text; it is never committed
	InterimResult(sessionID string, text string)
	// SessionStateChanged is called on every state transition
	SessionStateChanged(sessionID string, state entities.SessionState)
	// RecommendationsReady is called exactly once per session, when it ends
	RecommendationsReady(sessionID string, mood entities.Mood, recs []entities.Recommendation)
	// Notice reports a user-visible problem such as a capture failure
	Notice(err error)
}
