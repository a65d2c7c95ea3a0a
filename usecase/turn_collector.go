package usecase

import (
	"strings"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

// TurnCollector turns recognition results into committed user utterances.
// Only final results are committed, and each final result at most once.
type TurnCollector struct {
	committed map[string]struct{}
}

// NewTurnCollector creates an empty collector
func NewTurnCollector() *TurnCollector {
	return &TurnCollector{committed: make(map[string]struct{})}
}

// Reset forgets every committed result; called at the start of each session
func (t *TurnCollector) Reset() {
	t.committed = make(map[string]struct{})
}

// Collect returns the utterance to append for r, if any. Interim results,
// blank finals and redelivered finals (same ResultID) are not committed.
func (t *TurnCollector) Collect(r entities.RecognitionResult) (entities.Utterance, bool) {
	if !r.IsFinal {
		return entities.Utterance{}, false
	}

	text := strings.TrimSpace(r.Text)
	if text == "" {
		return entities.Utterance{}, false
	}

	if r.ResultID != "" {
		if _, seen := t.committed[r.ResultID]; seen {
			return entities.Utterance{}, false
		}
		t.committed[r.ResultID] = struct{}{}
	}

	return entities.NewUtterance(entities.SpeakerUser, text), true
}
