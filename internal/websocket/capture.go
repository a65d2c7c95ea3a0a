package websocket

import (
	"context"
	"errors"
	"sync"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/capture"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
)

// ServerCapture is a capture source fed with raw audio frames from the socket
type ServerCapture interface {
	repositories.CaptureSource
	repositories.AudioSink
}

// ServerCaptureFactory builds one server-side capture source per client
type ServerCaptureFactory func() ServerCapture

var (
	errServerCaptureDisabled = errors.New("server-side capture is not enabled")
	errModeChangeWhileActive = errors.New("capture mode cannot change while listening")
	errNoAudioSink           = errors.New("client is not in server capture mode")
)

// modeCapture routes the controller's capture source to either the
// client-fed source or a server-side recognizer, as declared in hello.
type modeCapture struct {
	client *capture.ClientCapture
	newSrv ServerCaptureFactory

	mu     sync.Mutex
	server ServerCapture
	useSrv bool
	held   repositories.CaptureSource
}

var _ repositories.CaptureSource = (*modeCapture)(nil)

func newModeCapture(client *capture.ClientCapture, newSrv ServerCaptureFactory) *modeCapture {
	return &modeCapture{client: client, newSrv: newSrv}
}

// configure applies a hello declaration
func (m *modeCapture) configure(mode string, speechRecognition bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.held != nil {
		return errModeChangeWhileActive
	}

	switch mode {
	case CaptureModeServer:
		if m.newSrv == nil {
			return errServerCaptureDisabled
		}
		if m.server == nil {
			m.server = m.newSrv()
		}
		m.useSrv = true
	default:
		m.useSrv = false
		m.client.SetSupported(speechRecognition)
	}
	return nil
}

func (m *modeCapture) Start(ctx context.Context) (<-chan repositories.CaptureEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var src repositories.CaptureSource = m.client
	if m.useSrv {
		src = m.server
	}

	events, err := src.Start(ctx)
	if err != nil {
		return nil, err
	}
	m.held = src
	return events, nil
}

func (m *modeCapture) Stop() error {
	m.mu.Lock()
	src := m.held
	m.held = nil
	m.mu.Unlock()

	if src == nil {
		return nil
	}
	return src.Stop()
}

// WriteAudio forwards a binary frame to the server-side recognizer
func (m *modeCapture) WriteAudio(data []byte) error {
	m.mu.Lock()
	server, useSrv := m.server, m.useSrv
	m.mu.Unlock()

	if !useSrv || server == nil {
		return errNoAudioSink
	}
	return server.WriteAudio(data)
}
