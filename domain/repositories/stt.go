package repositories

import "context"

// SpeechToText abstracts batch speech recognition services
type SpeechToText interface {
	// TranscribeAudio converts encoded audio into newline-joined transcript text
	TranscribeAudio(ctx context.Context, audioData []byte, config AudioConfig) (string, error)
}

// AudioConfig represents audio configuration for speech recognition
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}
