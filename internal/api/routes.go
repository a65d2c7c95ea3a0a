package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/adrianngzz/bisonbytes25-v1/adapters/stt"
	"github.com/adrianngzz/bisonbytes25-v1/domain/entities"
	"github.com/adrianngzz/bisonbytes25-v1/domain/repositories"
	"github.com/adrianngzz/bisonbytes25-v1/internal/auth"
	"github.com/adrianngzz/bisonbytes25-v1/internal/mood"
	"github.com/adrianngzz/bisonbytes25-v1/internal/recommend"
	"github.com/adrianngzz/bisonbytes25-v1/internal/websocket"
)

const maxAudioUpload = 10 << 20

// Dependencies bundles what the HTTP handlers need
type Dependencies struct {
	Hub         *websocket.Hub
	Tokens      *auth.TokenIssuer
	Transcriber repositories.SpeechToText
	Logger      *zap.Logger
}

type handlers struct {
	Dependencies
}

// InitRoutes initializes all API routes
func InitRoutes(e *echo.Echo, deps Dependencies) {
	h := &handlers{deps}

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":  "ok",
			"service": "mood-music-server",
			"clients": h.Hub.ClientCount(),
		})
	})

	// API v1 routes
	v1 := e.Group("/api/v1")
	v1.POST("/auth/token", h.issueToken)
	v1.GET("/recommendations/:mood", h.getRecommendations)
	v1.POST("/classify", h.classify)
	v1.POST("/transcriptions", h.transcribe)
	v1.GET("/sessions/:client_id", h.getSession)

	// WebSocket endpoint with JWT validation
	e.GET("/ws", h.websocketWithAuth)
}

func (h *handlers) issueToken(c echo.Context) error {
	var req TokenRequest
	if err := c.Bind(&req); err != nil {
		h.Logger.Warn("Failed to bind token request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	clientID := strings.TrimSpace(req.ClientID)
	if clientID == "" {
		clientID = uuid.NewString()
	}

	token, expiresAt, err := h.Tokens.GenerateListenerToken(clientID)
	if err != nil {
		h.Logger.Error("Failed to generate listener token",
			zap.String("clientID", clientID),
			zap.Error(err))
		return c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "token_generation_failed",
			Message: "Failed to generate authentication token",
		})
	}

	h.Logger.Info("Listener token issued", zap.String("clientID", clientID))

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		ClientID:  clientID,
	})
}

func (h *handlers) getRecommendations(c echo.Context) error {
	m, err := entities.ParseMood(c.Param("mood"))
	if err != nil {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_mood",
			Message: err.Error(),
		})
	}

	recs, err := recommend.Lookup(m)
	if errors.Is(err, recommend.ErrUnknownMood) {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "unknown_mood",
			Message: err.Error(),
		})
	}
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, RecommendationsResponse{Mood: m, Recommendations: recs})
}

func (h *handlers) classify(c echo.Context) error {
	var req ClassifyRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request format",
		})
	}

	scores := mood.ScoreText(req.Text)
	return c.JSON(http.StatusOK, ClassifyResponse{
		Mood:   mood.Pick(scores),
		Scores: scores,
	})
}

func (h *handlers) transcribe(c echo.Context) error {
	config := repositories.AudioConfig{
		Encoding: strings.ToUpper(c.FormValue("encoding")),
		Language: c.FormValue("language"),
	}
	if raw := c.FormValue("sample_rate"); raw != "" {
		rate, err := strconv.Atoi(raw)
		if err != nil || rate <= 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_sample_rate",
				Message: "sample_rate must be a positive integer",
			})
		}
		config.SampleRate = rate
	}
	config = stt.WithDefaults(config)

	if !stt.SupportedEncoding(config.Encoding) {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "unsupported_encoding",
			Message: "Unsupported audio encoding: " + config.Encoding,
		})
	}

	fileHeader, err := c.FormFile("audio")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "missing_audio",
			Message: "Multipart field 'audio' is required",
		})
	}
	if fileHeader.Size > maxAudioUpload {
		return c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "audio_too_large",
			Message: "Audio upload exceeds 10MB",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioUpload))
	if err != nil {
		return err
	}

	transcript, err := h.Transcriber.TranscribeAudio(c.Request().Context(), audio, config)
	if err != nil {
		h.Logger.Error("Transcription failed",
			zap.Int("audioSize", len(audio)),
			zap.String("encoding", config.Encoding),
			zap.Error(err))
		return c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "transcription_failed",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, TranscriptionResponse{Transcript: transcript})
}

func (h *handlers) getSession(c echo.Context) error {
	snap, ok := h.Hub.Snapshot(c.Param("client_id"))
	if !ok {
		return c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "client_not_connected",
			Message: "No connected client with this id",
		})
	}
	return c.JSON(http.StatusOK, snap)
}

// websocketWithAuth handles WebSocket connections with JWT authentication
func (h *handlers) websocketWithAuth(c echo.Context) error {
	var token string
	authHeader := c.Request().Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		token = strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token == "" {
		token = c.QueryParam("token")
	}

	if token == "" {
		h.Logger.Warn("WebSocket connection rejected: missing token")
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "missing_token",
			Message: "JWT token is required in Authorization header or token query parameter",
		})
	}

	claims, err := h.Tokens.ValidateToken(token)
	if err != nil {
		h.Logger.Warn("WebSocket connection rejected: invalid token", zap.Error(err))
		return c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "invalid_token",
			Message: "Invalid or expired JWT token",
		})
	}

	h.Logger.Info("WebSocket connection authenticated", zap.String("clientID", claims.ClientID))

	return websocket.HandleWebSocketWithAuth(h.Hub, c, claims.ClientID, h.Logger)
}
