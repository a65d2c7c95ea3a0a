// Package mood infers a speaker's mood from the user side of a transcript
// by keyword matching.
package mood

import (
	"strings"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

// Keywords holds the fixed keyword set of every scored mood.
// Matching is substring containment, so "down" also hits "downtown".
var Keywords = map[entities.Mood][]string{
	entities.MoodHappy:     {"happy", "great", "excited", "joy", "wonderful", "amazing"},
	entities.MoodSad:       {"sad", "down", "depressed", "unhappy", "blue", "melancholy"},
	entities.MoodEnergetic: {"energetic", "pumped", "motivated", "energized", "active"},
	entities.MoodCalm:      {"calm", "peaceful", "relaxed", "chill", "tranquil"},
}

// Score counts, per scored mood, how many of its keywords occur in the
// user text of the transcript. Each keyword counts at most once.
func Score(transcript entities.Transcript) entities.MoodScore {
	return ScoreText(blob(transcript))
}

// ScoreText scores a single piece of free text
func ScoreText(text string) entities.MoodScore {
	text = strings.ToLower(text)
	scores := entities.NewMoodScore()
	for _, m := range entities.ScoredMoods {
		for _, kw := range Keywords[m] {
			if strings.Contains(text, kw) {
				scores[m]++
			}
		}
	}
	return scores
}

// Classify returns the dominant mood of the transcript, or neutral when no
// keyword matched.
func Classify(transcript entities.Transcript) entities.Mood {
	return Pick(Score(transcript))
}

// ClassifyText classifies a single piece of free text
func ClassifyText(text string) entities.Mood {
	return Pick(ScoreText(text))
}

// Pick selects the mood with the strictly highest score. Ties go to the
// mood listed first in entities.ScoredMoods.
func Pick(scores entities.MoodScore) entities.Mood {
	best := entities.ScoredMoods[0]
	for _, m := range entities.ScoredMoods[1:] {
		if scores[m] > scores[best] {
			best = m
		}
	}
	if scores[best] == 0 {
		return entities.MoodNeutral
	}
	return best
}

func blob(transcript entities.Transcript) string {
	return strings.ToLower(strings.Join(transcript.UserText(), " "))
}
