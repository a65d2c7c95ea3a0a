package websocket

import (
	"encoding/json"
	"testing"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

func TestMessageValidator_ValidateMessage(t *testing.T) {
	validator := NewMessageValidator()

	tests := []struct {
		name     string
		message  string
		wantErr  bool
		wantType interface{}
	}{
		{
			name:     "hello client mode",
			message:  `{"type": "hello", "speech_recognition": true, "capture_mode": "client"}`,
			wantType: &HelloMessage{},
		},
		{
			name:     "hello without mode",
			message:  `{"type": "hello", "speech_recognition": false}`,
			wantType: &HelloMessage{},
		},
		{
			name:    "hello unknown mode",
			message: `{"type": "hello", "speech_recognition": true, "capture_mode": "telepathy"}`,
			wantErr: true,
		},
		{
			name:     "start",
			message:  `{"type": "start"}`,
			wantType: &ControlMessage{},
		},
		{
			name:     "stop",
			message:  `{"type": "stop"}`,
			wantType: &ControlMessage{},
		},
		{
			name:     "ping",
			message:  `{"type": "ping", "data": "hb"}`,
			wantType: &PingMessage{},
		},
		{
			name:     "final speech result",
			message:  `{"type": "speech_result", "text": "I feel great", "is_final": true, "result_id": "3"}`,
			wantType: &SpeechResultMessage{},
		},
		{
			name:    "speech result with wrong field type",
			message: `{"type": "speech_result", "text": 12, "is_final": true}`,
			wantErr: true,
		},
		{
			name:     "speech error",
			message:  `{"type": "speech_error", "reason": "not-allowed"}`,
			wantType: &SpeechErrorMessage{},
		},
		{
			name:    "speech error without reason",
			message: `{"type": "speech_error"}`,
			wantErr: true,
		},
		{
			name:    "missing type",
			message: `{"text": "hi"}`,
			wantErr: true,
		},
		{
			name:    "unknown type",
			message: `{"type": "audio_chunk"}`,
			wantErr: true,
		},
		{
			name:    "not json",
			message: `hello`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := validator.ValidateMessage([]byte(tt.message))
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateMessage() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			switch tt.wantType.(type) {
			case *HelloMessage:
				if _, ok := msg.(*HelloMessage); !ok {
					t.Errorf("Expected *HelloMessage, got %T", msg)
				}
			case *ControlMessage:
				if _, ok := msg.(*ControlMessage); !ok {
					t.Errorf("Expected *ControlMessage, got %T", msg)
				}
			case *PingMessage:
				if _, ok := msg.(*PingMessage); !ok {
					t.Errorf("Expected *PingMessage, got %T", msg)
				}
			case *SpeechResultMessage:
				if _, ok := msg.(*SpeechResultMessage); !ok {
					t.Errorf("Expected *SpeechResultMessage, got %T", msg)
				}
			case *SpeechErrorMessage:
				if _, ok := msg.(*SpeechErrorMessage); !ok {
					t.Errorf("Expected *SpeechErrorMessage, got %T", msg)
				}
			}
		})
	}
}

func TestMessageValidator_SpeechResultFields(t *testing.T) {
	msg, err := NewMessageValidator().ValidateMessage([]byte(
		`{"type": "speech_result", "text": "so relaxed", "is_final": true, "result_id": "r-1"}`))
	if err != nil {
		t.Fatalf("ValidateMessage() error = %v", err)
	}

	result := msg.(*SpeechResultMessage)
	if result.Text != "so relaxed" || !result.IsFinal || result.ResultID != "r-1" {
		t.Errorf("Unexpected decoded message: %+v", result)
	}
}

func TestCreateErrorMessage(t *testing.T) {
	msg := CreateErrorMessage("capture_unsupported", "speech capture is not supported", "")

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Failed to marshal error message: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Failed to unmarshal error message: %v", err)
	}

	if decoded["type"] != string(MessageTypeError) {
		t.Errorf("Expected type error, got %v", decoded["type"])
	}
	if decoded["error_code"] != "capture_unsupported" {
		t.Errorf("Expected error_code capture_unsupported, got %v", decoded["error_code"])
	}
	if _, ok := decoded["details"]; ok {
		t.Error("Expected empty details to be omitted")
	}
	if decoded["timestamp"] == "" {
		t.Error("Expected timestamp to be set")
	}
}

func TestRecommendationsReadyMessage_JSON(t *testing.T) {
	msg := RecommendationsReadyMessage{
		BaseMessage: newBase(MessageTypeRecommendationsReady),
		SessionID:   "s-1",
		Mood:        entities.MoodCalm,
		Recommendations: []entities.Recommendation{
			{Title: "Weightless", Artist: "Marconi Union"},
		},
	}

	data, err := json.Marshal(msg)
	if err != nil {
		t.Fatal(err)
	}

	var decoded struct {
		Type            string `json:"type"`
		Mood            string `json:"mood"`
		Recommendations []struct {
			Title  string `json:"title"`
			Artist string `json:"artist"`
		} `json:"recommendations"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Type != "recommendations_ready" || decoded.Mood != "calm" {
		t.Errorf("Unexpected envelope: %+v", decoded)
	}
	if len(decoded.Recommendations) != 1 || decoded.Recommendations[0].Artist != "Marconi Union" {
		t.Errorf("Unexpected recommendations: %+v", decoded.Recommendations)
	}
}
