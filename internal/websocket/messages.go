package websocket

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
)

// MessageType defines the type of WebSocket message
type MessageType string

// Inbound message types
const (
	MessageTypeHello        MessageType = "hello"
	MessageTypeStart        MessageType = "start"
	MessageTypeStop         MessageType = "stop"
	MessageTypePing         MessageType = "ping"
	MessageTypeSpeechResult MessageType = "speech_result"
	MessageTypeSpeechError  MessageType = "speech_error"
)

// Outbound message types
const (
	MessageTypeTranscriptAppended   MessageType = "transcript_appended"
	MessageTypeInterimResult        MessageType = "interim_result"
	MessageTypeSessionState         MessageType = "session_state"
	MessageTypeRecommendationsReady MessageType = "recommendations_ready"
	MessageTypeError                MessageType = "error"
	MessageTypePong                 MessageType = "pong"
)

// Capture modes a client can declare in hello
const (
	CaptureModeClient = "client"
	CaptureModeServer = "server"
)

// BaseMessage defines the common structure for all WebSocket messages
type BaseMessage struct {
	Type      MessageType `json:"type" validate:"required"`
	Timestamp string      `json:"timestamp,omitempty"`
	MessageID string      `json:"message_id,omitempty"`
}

// HelloMessage declares the recognition capability of the client
type HelloMessage struct {
	BaseMessage
	SpeechRecognition bool   `json:"speech_recognition"`
	CaptureMode       string `json:"capture_mode,omitempty" validate:"omitempty,oneof=client server"`
}

// ControlMessage is a start or stop request
type ControlMessage struct {
	BaseMessage
}

// PingMessage represents a ping message for connection health check
type PingMessage struct {
	BaseMessage
	Data string `json:"data,omitempty" validate:"max=256"`
}

// SpeechResultMessage carries a recognition result produced on the client
type SpeechResultMessage struct {
	BaseMessage
	Text     string `json:"text" validate:"max=4096"`
	IsFinal  bool   `json:"is_final"`
	ResultID string `json:"result_id,omitempty" validate:"omitempty,max=128"`
}

// SpeechErrorMessage reports a client-side recognition failure
type SpeechErrorMessage struct {
	BaseMessage
	Reason string `json:"reason" validate:"required,max=512"`
}

// TranscriptAppendedMessage announces a committed utterance
type TranscriptAppendedMessage struct {
	BaseMessage
	SessionID string           `json:"session_id"`
	Speaker   entities.Speaker `json:"speaker"`
	Text      string           `json:"text"`
}

// InterimResultMessage carries provisional recognition text
type InterimResultMessage struct {
	BaseMessage
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// SessionStateMessage announces a session state transition
type SessionStateMessage struct {
	BaseMessage
	SessionID string                `json:"session_id,omitempty"`
	State     entities.SessionState `json:"state"`
}

// RecommendationsReadyMessage carries the final mood and tracks
type RecommendationsReadyMessage struct {
	BaseMessage
	SessionID       string                    `json:"session_id"`
	Mood            entities.Mood             `json:"mood"`
	Recommendations []entities.Recommendation `json:"recommendations"`
}

// PongMessage represents a pong response
type PongMessage struct {
	BaseMessage
	Data string `json:"data,omitempty"`
}

// ErrorMessage represents an error response
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"error_code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// MessageValidator provides validation for WebSocket messages
type MessageValidator struct {
	validate *validator.Validate
}

// NewMessageValidator creates a new message validator
func NewMessageValidator() *MessageValidator {
	return &MessageValidator{
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ValidateMessage decodes and validates an incoming message. The concrete
// message type is selected by the type field.
func (v *MessageValidator) ValidateMessage(messageBytes []byte) (interface{}, error) {
	// First parse as base message to get type
	var base BaseMessage
	if err := json.Unmarshal(messageBytes, &base); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}

	var msg interface{}
	switch base.Type {
	case MessageTypeHello:
		msg = &HelloMessage{}
	case MessageTypeStart, MessageTypeStop:
		msg = &ControlMessage{}
	case MessageTypePing:
		msg = &PingMessage{}
	case MessageTypeSpeechResult:
		msg = &SpeechResultMessage{}
	case MessageTypeSpeechError:
		msg = &SpeechErrorMessage{}
	case "":
		return nil, fmt.Errorf("message missing type field")
	default:
		return nil, fmt.Errorf("unsupported message type: %s", base.Type)
	}

	if err := json.Unmarshal(messageBytes, msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	if err := v.validate.Struct(msg); err != nil {
		return nil, fmt.Errorf("invalid %s message: %w", base.Type, err)
	}
	return msg, nil
}

func newBase(t MessageType) BaseMessage {
	return BaseMessage{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorMessage creates a standardized error message
func CreateErrorMessage(code, message, details string) *ErrorMessage {
	return &ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
		Details:     details,
	}
}

// CreatePongMessage creates a pong response message
func CreatePongMessage(data string) *PongMessage {
	return &PongMessage{
		BaseMessage: newBase(MessageTypePong),
		Data:        data,
	}
}
