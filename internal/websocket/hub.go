package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/capture"
	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
	"github.com/adrianngzz/bisonbytes25-v1/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	sendBufferSize = 256
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// HubConfig configures the controllers created for each client
type HubConfig struct {
	FollowUpDelay time.Duration
	// ServerCapture enables capture_mode "server" when set
	ServerCapture ServerCaptureFactory
}

// Hub maintains the set of connected listeners. Each client owns exactly one
// conversation controller.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	config    HubConfig
	validator *MessageValidator
	logger    *zap.Logger
}

// NewHub creates a new WebSocket hub
func NewHub(config HubConfig, logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		config:     config,
		validator:  NewMessageValidator(),
		logger:     logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				client.close()
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if previous, ok := h.clients[client.clientID]; ok {
				h.logger.Info("Replacing existing connection", zap.String("clientID", client.clientID))
				previous.close()
			}
			h.clients[client.clientID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered", zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.clientID]; ok && current == client {
				delete(h.clients, client.clientID)
			}
			h.mu.Unlock()
			client.close()
			h.logger.Info("Client unregistered", zap.String("clientID", client.clientID))
		}
	}
}

// Snapshot returns the session snapshot of a connected client
func (h *Hub) Snapshot(clientID string) (entities.SessionSnapshot, bool) {
	h.mu.RLock()
	client, ok := h.clients[clientID]
	h.mu.RUnlock()

	if !ok {
		return entities.SessionSnapshot{}, false
	}
	return client.controller.Snapshot(), true
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and its
// conversation controller. It is the controller's UI sink.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Closed when the client leaves the hub.
	done      chan struct{}
	closeOnce sync.Once

	clientID string
	logger   *zap.Logger

	controller    *usecase.ConversationController
	capture       *modeCapture
	clientCapture *capture.ClientCapture

	ctx    context.Context
	cancel context.CancelFunc
}

var _ repositories.UISink = (*Client)(nil)

// HandleWebSocketWithAuth handles websocket requests with a pre-authenticated client ID
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := newClient(hub, conn, clientID, logger.With(zap.String("clientID", clientID)))
	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.runController()
	go client.writePump()
	go client.readPump()

	return nil
}

func newClient(hub *Hub, conn *websocket.Conn, clientID string, logger *zap.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())

	client := &Client{
		hub:           hub,
		conn:          conn,
		send:          make(chan WriteData, sendBufferSize),
		done:          make(chan struct{}),
		clientID:      clientID,
		logger:        logger,
		clientCapture: capture.NewClientCapture(logger),
		ctx:           ctx,
		cancel:        cancel,
	}
	client.capture = newModeCapture(client.clientCapture, hub.config.ServerCapture)
	client.controller = usecase.NewConversationController(client.capture, client, logger, usecase.ControllerConfig{
		FollowUpDelay: hub.config.FollowUpDelay,
	})
	return client
}

func (c *Client) runController() {
	err := c.controller.Run(c.ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		c.logger.Error("Conversation controller stopped", zap.Error(err))
	}
}

// close stops the controller and the write pump. Safe to call repeatedly.
func (c *Client) close() {
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.done)
	})
}

// readPump pumps messages from the websocket connection to the controller.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processMessage(message)
		case websocket.BinaryMessage:
			c.processBinaryAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the controller to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processMessage processes incoming JSON messages from the client
func (c *Client) processMessage(message []byte) {
	msg, err := c.hub.validator.ValidateMessage(message)
	if err != nil {
		c.logger.Warn("Rejected client message", zap.Error(err))
		c.sendJSON(CreateErrorMessage("invalid_message", "Message could not be processed", err.Error()))
		return
	}

	switch m := msg.(type) {
	case *HelloMessage:
		c.handleHello(m)
	case *ControlMessage:
		c.handleControl(m)
	case *PingMessage:
		c.sendJSON(CreatePongMessage(m.Data))
	case *SpeechResultMessage:
		c.handleSpeechResult(m)
	case *SpeechErrorMessage:
		if err := c.clientCapture.Fail(m.Reason); err != nil {
			c.logger.Debug("Ignoring speech error outside capture", zap.String("reason", m.Reason))
		}
	}
}

func (c *Client) handleHello(m *HelloMessage) {
	mode := m.CaptureMode
	if mode == "" {
		mode = CaptureModeClient
	}

	if err := c.capture.configure(mode, m.SpeechRecognition); err != nil {
		c.logger.Warn("Failed to apply capture mode",
			zap.String("captureMode", mode),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("capture_mode_rejected", "Capture mode could not be applied", err.Error()))
		return
	}

	c.logger.Info("Client capabilities declared",
		zap.String("captureMode", mode),
		zap.Bool("speechRecognition", m.SpeechRecognition))

	snap := c.controller.Snapshot()
	c.sendJSON(&SessionStateMessage{
		BaseMessage: newBase(MessageTypeSessionState),
		SessionID:   snap.ID,
		State:       snap.State,
	})
}

func (c *Client) handleControl(m *ControlMessage) {
	var err error
	switch m.Type {
	case MessageTypeStart:
		err = c.controller.Start(c.ctx)
	case MessageTypeStop:
		err = c.controller.Stop(c.ctx)
	}
	if err != nil {
		c.logger.Warn("Failed to submit command", zap.String("command", string(m.Type)), zap.Error(err))
	}
}

func (c *Client) handleSpeechResult(m *SpeechResultMessage) {
	err := c.clientCapture.Push(entities.RecognitionResult{
		Text:     m.Text,
		IsFinal:  m.IsFinal,
		ResultID: m.ResultID,
	})
	switch {
	case errors.Is(err, capture.ErrNotCapturing):
		c.sendJSON(CreateErrorMessage("not_listening", "No session is listening", ""))
	case err != nil:
		c.sendJSON(CreateErrorMessage("capture_overloaded", "Speech result dropped", err.Error()))
	}
}

// processBinaryAudioChunk handles binary audio data for server-side capture
func (c *Client) processBinaryAudioChunk(data []byte) {
	if err := c.capture.WriteAudio(data); err != nil {
		c.logger.Warn("Failed to forward audio chunk",
			zap.Int("size", len(data)),
			zap.Error(err))
		c.sendJSON(CreateErrorMessage("audio_rejected", "Audio chunk could not be processed", err.Error()))
	}
}

// TranscriptAppended implements repositories.UISink
func (c *Client) TranscriptAppended(sessionID string, u entities.Utterance) {
	c.sendJSON(&TranscriptAppendedMessage{
		BaseMessage: newBase(MessageTypeTranscriptAppended),
		SessionID:   sessionID,
		Speaker:     u.Speaker,
		Text:        u.Text,
	})
}

// InterimResult implements repositories.UISink
func (c *Client) InterimResult(sessionID string, text string) {
	c.sendJSON(&InterimResultMessage{
		BaseMessage: newBase(MessageTypeInterimResult),
		SessionID:   sessionID,
		Text:        text,
	})
}

// SessionStateChanged implements repositories.UISink
func (c *Client) SessionStateChanged(sessionID string, state entities.SessionState) {
	c.sendJSON(&SessionStateMessage{
		BaseMessage: newBase(MessageTypeSessionState),
		SessionID:   sessionID,
		State:       state,
	})
}

// RecommendationsReady implements repositories.UISink
func (c *Client) RecommendationsReady(sessionID string, mood entities.Mood, recs []entities.Recommendation) {
	c.sendJSON(&RecommendationsReadyMessage{
		BaseMessage:     newBase(MessageTypeRecommendationsReady),
		SessionID:       sessionID,
		Mood:            mood,
		Recommendations: recs,
	})
}

// Notice implements repositories.UISink
func (c *Client) Notice(err error) {
	c.sendJSON(CreateErrorMessage(noticeCode(err), err.Error(), ""))
}

func noticeCode(err error) string {
	var captureErr *usecase.CaptureError
	switch {
	case errors.Is(err, repositories.ErrCaptureUnsupported):
		return "capture_unsupported"
	case errors.Is(err, repositories.ErrCaptureInUse):
		return "capture_in_use"
	case errors.As(err, &captureErr):
		return "capture_failed"
	default:
		return "notice"
	}
}

// sendJSON queues a message without blocking the caller
func (c *Client) sendJSON(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		c.logger.Error("Failed to marshal outbound message", zap.Error(err))
		return
	}

	select {
	case <-c.done:
		return
	default:
	}

	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	default:
		c.logger.Warn("Send buffer full, dropping message")
	}
}
