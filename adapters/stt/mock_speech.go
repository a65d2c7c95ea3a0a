package stt

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

// MockSpeechToText returns canned transcripts chosen by recording size. It is
// wired in when Google speech is disabled.
type MockSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*MockSpeechToText)(nil)

// NewMockSpeechToText creates a new mock speech-to-text service
func NewMockSpeechToText(logger *zap.Logger) *MockSpeechToText {
	return &MockSpeechToText{
		logger: logger,
	}
}

// TranscribeAudio implements repositories.SpeechToText
func (s *MockSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	config = WithDefaults(config)
	if _, err := getAudioEncoding(config.Encoding); err != nil {
		return "", err
	}

	s.logger.Info("Processing mock speech-to-text",
		zap.Int("audioSize", len(audioData)),
		zap.Int("sampleRate", config.SampleRate),
		zap.String("encoding", config.Encoding))

	switch {
	case len(audioData) == 0:
		return "", fmt.Errorf("no audio data received")
	case len(audioData) > 10000:
		return "I had a wonderful day\nI feel happy and excited about the weekend", nil
	case len(audioData) > 5000:
		return "I feel calm and relaxed", nil
	case len(audioData) > 1000:
		return "I'm a bit down today", nil
	default:
		return "hello", nil
	}
}
