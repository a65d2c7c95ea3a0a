// Command wsclient drives one full conversation against a running server,
// playing the part of a browser with client-side speech recognition.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	ClientID  string    `json:"client_id"`
}

type serverMessage struct {
	Type            string `json:"type"`
	SessionID       string `json:"session_id"`
	State           string `json:"state"`
	Speaker         string `json:"speaker"`
	Text            string `json:"text"`
	Mood            string `json:"mood"`
	Code            string `json:"error_code"`
	Message         string `json:"message"`
	Recommendations []struct {
		Title  string `json:"title"`
		Artist string `json:"artist"`
	} `json:"recommendations"`
}

func main() {
	var (
		serverURL string
		clientID  string
		lines     []string
		pause     time.Duration
	)

	cmd := &cobra.Command{
		Use:          "wsclient",
		Short:        "Run a scripted conversation over the websocket API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(serverURL, clientID, lines, pause)
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8080", "server base URL")
	cmd.Flags().StringVar(&clientID, "client-id", "", "client id to request a token for")
	cmd.Flags().StringArrayVar(&lines, "line", []string{"I'm feeling a bit down today", "everything feels so blue"}, "utterance to send (repeatable)")
	cmd.Flags().DurationVar(&pause, "pause", 1500*time.Millisecond, "pause after each utterance")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(serverURL, clientID string, lines []string, pause time.Duration) error {
	fmt.Println("Step 1: Getting authentication token...")
	token, err := requestToken(serverURL, clientID)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Token issued for client %s\n", token.ClientID)

	fmt.Println("Step 2: Connecting to WebSocket with token...")
	conn, err := connect(serverURL, token.Token)
	if err != nil {
		return err
	}
	defer conn.Close()

	messages := make(chan serverMessage, 64)
	go readLoop(conn, messages)

	fmt.Println("Step 3: Declaring client-side recognition...")
	if err := conn.WriteJSON(map[string]interface{}{
		"type":               "hello",
		"speech_recognition": true,
		"capture_mode":       "client",
	}); err != nil {
		return fmt.Errorf("failed to send hello: %w", err)
	}
	if _, err := waitFor(messages, "session_state", 5*time.Second); err != nil {
		return err
	}

	fmt.Println("Step 4: Starting the conversation...")
	if err := conn.WriteJSON(map[string]string{"type": "start"}); err != nil {
		return fmt.Errorf("failed to send start: %w", err)
	}
	if _, err := waitFor(messages, "session_state", 5*time.Second); err != nil {
		return err
	}

	for i, line := range lines {
		words := strings.Fields(line)
		if len(words) > 1 {
			partial := strings.Join(words[:len(words)/2], " ")
			conn.WriteJSON(map[string]interface{}{"type": "speech_result", "text": partial, "is_final": false})
		}
		if err := conn.WriteJSON(map[string]interface{}{
			"type":      "speech_result",
			"text":      line,
			"is_final":  true,
			"result_id": fmt.Sprintf("line-%d", i),
		}); err != nil {
			return fmt.Errorf("failed to send speech result: %w", err)
		}
		drain(messages, pause)
	}

	fmt.Println("Step 5: Stopping and waiting for recommendations...")
	if err := conn.WriteJSON(map[string]string{"type": "stop"}); err != nil {
		return fmt.Errorf("failed to send stop: %w", err)
	}
	ready, err := waitFor(messages, "recommendations_ready", 5*time.Second)
	if err != nil {
		return err
	}

	fmt.Printf("✓ Detected mood: %s\n", ready.Mood)
	for i, r := range ready.Recommendations {
		fmt.Printf("  %d. %s - %s\n", i+1, r.Title, r.Artist)
	}
	return nil
}

func requestToken(serverURL, clientID string) (*tokenResponse, error) {
	reqBody, _ := json.Marshal(map[string]string{"client_id": clientID})

	resp, err := http.Post(serverURL+"/api/v1/auth/token", "application/json", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("authentication failed with status: %d", resp.StatusCode)
	}

	var token tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	return &token, nil
}

func connect(serverURL, token string) (*websocket.Conn, error) {
	base, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	wsURL := url.URL{Scheme: "ws", Host: base.Host, Path: "/ws"}
	if base.Scheme == "https" {
		wsURL.Scheme = "wss"
	}
	q := wsURL.Query()
	q.Set("token", token)
	wsURL.RawQuery = q.Encode()

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}
	return conn, nil
}

func readLoop(conn *websocket.Conn, messages chan<- serverMessage) {
	defer close(messages)
	for {
		var msg serverMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		printMessage(msg)
		messages <- msg
	}
}

func printMessage(msg serverMessage) {
	switch msg.Type {
	case "transcript_appended":
		fmt.Printf("  [%s] %s\n", msg.Speaker, msg.Text)
	case "interim_result":
		fmt.Printf("  ... %s\n", msg.Text)
	case "session_state":
		fmt.Printf("  -- session is %s\n", msg.State)
	case "error":
		fmt.Printf("  !! %s: %s\n", msg.Code, msg.Message)
	}
}

func waitFor(messages <-chan serverMessage, want string, timeout time.Duration) (serverMessage, error) {
	deadline := time.After(timeout)
	for {
		select {
		case msg, ok := <-messages:
			if !ok {
				return serverMessage{}, fmt.Errorf("connection closed while waiting for %s", want)
			}
			if msg.Type == want {
				return msg, nil
			}
		case <-deadline:
			return serverMessage{}, fmt.Errorf("timed out waiting for %s", want)
		}
	}
}

func drain(messages <-chan serverMessage, d time.Duration) {
	deadline := time.After(d)
	for {
		select {
		case _, ok := <-messages:
			if !ok {
				return
			}
		case <-deadline:
			return
		}
	}
}
