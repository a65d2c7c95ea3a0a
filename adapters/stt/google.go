package stt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

// Defaults used by the standalone transcription utility
const (
	DefaultEncoding   = "WEBM_OPUS"
	DefaultSampleRate = 48000
	DefaultLanguage   = "en-US"
)

// GoogleSpeechToText implements SpeechToText for Google Cloud
type GoogleSpeechToText struct {
	logger *zap.Logger
}

var _ repositories.SpeechToText = (*GoogleSpeechToText)(nil)

// NewGoogleSpeechToText creates a batch transcriber. Credentials are taken
// from the environment on every call.
func NewGoogleSpeechToText(logger *zap.Logger) *GoogleSpeechToText {
	return &GoogleSpeechToText{logger: logger}
}

// TranscribeAudio converts a complete recording to text. The first
// alternative of every result is kept and results are joined by newlines.
func (g *GoogleSpeechToText) TranscribeAudio(ctx context.Context, audioData []byte, config repositories.AudioConfig) (string, error) {
	config = WithDefaults(config)

	recognitionConfig, err := recognitionConfig(config)
	if err != nil {
		return "", err
	}

	client, err := speech.NewClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create speech client: %w", err)
	}
	defer client.Close()

	resp, err := client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: recognitionConfig,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audioData},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to recognize audio: %w", err)
	}

	transcript := joinTranscripts(resp.GetResults())

	g.logger.Info("Transcription completed",
		zap.Int("audioSize", len(audioData)),
		zap.String("encoding", config.Encoding),
		zap.Int("results", len(resp.GetResults())))

	return transcript, nil
}

// WithDefaults fills zero fields of config
func WithDefaults(config repositories.AudioConfig) repositories.AudioConfig {
	if config.Encoding == "" {
		config.Encoding = DefaultEncoding
	}
	if config.SampleRate <= 0 {
		config.SampleRate = DefaultSampleRate
	}
	if config.Language == "" {
		config.Language = DefaultLanguage
	}
	return config
}

func joinTranscripts(results []*speechpb.SpeechRecognitionResult) string {
	lines := make([]string, 0, len(results))
	for _, result := range results {
		alternatives := result.GetAlternatives()
		if len(alternatives) == 0 {
			continue
		}
		lines = append(lines, alternatives[0].GetTranscript())
	}
	return strings.Join(lines, "\n")
}

func recognitionConfig(config repositories.AudioConfig) (*speechpb.RecognitionConfig, error) {
	encoding, err := getAudioEncoding(config.Encoding)
	if err != nil {
		return nil, err
	}
	return &speechpb.RecognitionConfig{
		Encoding:        encoding,
		SampleRateHertz: int32(config.SampleRate),
		LanguageCode:    config.Language,
	}, nil
}

// getAudioEncoding converts string encoding to Google Speech API enum
func getAudioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch strings.ToUpper(encoding) {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "AMR":
		return speechpb.RecognitionConfig_AMR, nil
	case "AMR_WB":
		return speechpb.RecognitionConfig_AMR_WB, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "SPEEX_WITH_HEADER_BYTE":
		return speechpb.RecognitionConfig_SPEEX_WITH_HEADER_BYTE, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}

// SupportedEncoding reports whether encoding can be sent to the recognizer
func SupportedEncoding(encoding string) bool {
	_, err := getAudioEncoding(encoding)
	return err == nil
}
