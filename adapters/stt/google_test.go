package stt

import (
	"context"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap/zaptest"

	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

func TestGetAudioEncoding(t *testing.T) {
	tests := []struct {
		input   string
		want    speechpb.RecognitionConfig_AudioEncoding
		wantErr bool
	}{
		{"WEBM_OPUS", speechpb.RecognitionConfig_WEBM_OPUS, false},
		{"webm_opus", speechpb.RecognitionConfig_WEBM_OPUS, false},
		{"WAV", speechpb.RecognitionConfig_LINEAR16, false},
		{"LINEAR16", speechpb.RecognitionConfig_LINEAR16, false},
		{"OGG_OPUS", speechpb.RecognitionConfig_OGG_OPUS, false},
		{"mp3", speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := getAudioEncoding(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("getAudioEncoding(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("getAudioEncoding(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestWithDefaults(t *testing.T) {
	got := WithDefaults(repositories.AudioConfig{})
	want := repositories.AudioConfig{SampleRate: 48000, Encoding: "WEBM_OPUS", Language: "en-US"}
	if got != want {
		t.Errorf("WithDefaults() = %+v, want %+v", got, want)
	}

	custom := repositories.AudioConfig{SampleRate: 16000, Encoding: "LINEAR16", Language: "id-ID"}
	if got := WithDefaults(custom); got != custom {
		t.Errorf("WithDefaults() overwrote explicit config: %+v", got)
	}
}

func alternative(text string) []*speechpb.SpeechRecognitionAlternative {
	return []*speechpb.SpeechRecognitionAlternative{
		{Transcript: text},
		{Transcript: text + " (second guess)"},
	}
}

func TestJoinTranscripts(t *testing.T) {
	results := []*speechpb.SpeechRecognitionResult{
		{Alternatives: alternative("I feel great")},
		{Alternatives: nil},
		{Alternatives: alternative("thanks for asking")},
	}

	got := joinTranscripts(results)
	want := "I feel great\nthanks for asking"
	if got != want {
		t.Errorf("joinTranscripts() = %q, want %q", got, want)
	}

	if got := joinTranscripts(nil); got != "" {
		t.Errorf("joinTranscripts(nil) = %q, want empty", got)
	}
}

func TestStreamEvents(t *testing.T) {
	finals := 0

	interim := &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{Alternatives: alternative("I feel"), IsFinal: false},
		},
	}
	events := streamEvents(interim, &finals)
	if len(events) != 1 || events[0].Result.IsFinal || events[0].Result.ResultID != "" {
		t.Fatalf("Unexpected interim events: %+v", events)
	}

	final := &speechpb.StreamingRecognizeResponse{
		Results: []*speechpb.StreamingRecognitionResult{
			{Alternatives: alternative("I feel calm"), IsFinal: true},
			{Alternatives: nil, IsFinal: true},
			{Alternatives: alternative("and relaxed"), IsFinal: true},
		},
	}
	events = streamEvents(final, &finals)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Result.Text != "I feel calm" || events[0].Result.ResultID != "final-0" {
		t.Errorf("Unexpected first final: %+v", events[0].Result)
	}
	if events[1].Result.ResultID != "final-1" {
		t.Errorf("Expected final-1, got %q", events[1].Result.ResultID)
	}
	if finals != 2 {
		t.Errorf("Expected finals counter 2, got %d", finals)
	}
}

func TestGoogleStreamingCapture_WriteWithoutStart(t *testing.T) {
	g := NewGoogleStreamingCapture(repositories.AudioConfig{}, zaptest.NewLogger(t))

	if err := g.WriteAudio([]byte{1, 2, 3}); err != ErrNoStream {
		t.Errorf("Expected ErrNoStream, got %v", err)
	}
	if err := g.Stop(); err != nil {
		t.Errorf("Stop on idle capture returned %v", err)
	}
}

func TestMockSpeechToText_TranscribeAudio(t *testing.T) {
	s := NewMockSpeechToText(zaptest.NewLogger(t))
	ctx := context.Background()

	tests := []struct {
		name    string
		size    int
		config  repositories.AudioConfig
		want    string
		wantErr bool
	}{
		{name: "empty audio", size: 0, wantErr: true},
		{name: "short clip", size: 10, want: "hello"},
		{name: "medium clip", size: 6000, want: "I feel calm and relaxed"},
		{name: "long clip is multi-line", size: 20000, want: "I had a wonderful day\nI feel happy and excited about the weekend"},
		{name: "bad encoding", size: 10, config: repositories.AudioConfig{Encoding: "mp3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.TranscribeAudio(ctx, make([]byte, tt.size), tt.config)
			if (err != nil) != tt.wantErr {
				t.Fatalf("TranscribeAudio() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TranscribeAudio() = %q, want %q", got, tt.want)
			}
		})
	}
}
