package api

import (
	"time"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

// TokenRequest represents the request payload for listener authentication
type TokenRequest struct {
	ClientID string `json:"client_id"`
}

// TokenResponse represents the response payload for listener authentication
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

// ClassifyRequest carries free text to classify
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse is the mood inferred from a piece of text
type ClassifyResponse struct {
	Mood   entities.Mood      `json:"mood"`
	Scores entities.MoodScore `json:"scores"`
}

// RecommendationsResponse lists the tracks for a mood
type RecommendationsResponse struct {
	Mood            entities.Mood             `json:"mood"`
	Recommendations []entities.Recommendation `json:"recommendations"`
}

// TranscriptionResponse is the result of a batch transcription
type TranscriptionResponse struct {
	Transcript string `json:"transcript"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
