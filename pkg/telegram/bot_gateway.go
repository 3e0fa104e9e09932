package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Telegram caps message text at 4096 chars; stay under it with headroom.
const maxMessageLength = 4000

// BotGateway implements staff notification delivery via the Telegram Bot API
type BotGateway struct {
	apiURL string
	token  string
	client *http.Client
}

// BotConfig holds configuration for the Telegram Bot Gateway
type BotConfig struct {
	APIURL string // Defaults to https://api.telegram.org
	Token  string
}

// NewBotGateway creates a new Telegram Bot API client
func NewBotGateway(config BotConfig) *BotGateway {
	apiURL := config.APIURL
	if apiURL == "" {
		apiURL = "https://api.telegram.org"
	}
	return &BotGateway{
		apiURL: apiURL,
		token:  config.Token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// sendMessageRequest represents the sendMessage request structure
type sendMessageRequest struct {
	ChatID int64  `json:"chat_id"`
	Text   string `json:"text"`
}

// sendMessageResponse represents the Bot API response envelope
type sendMessageResponse struct {
	OK          bool   `json:"ok"`
	ErrorCode   int    `json:"error_code,omitempty"`
	Description string `json:"description,omitempty"`
}

// SendMessage delivers a text message to a chat via the Bot API
func (g *BotGateway) SendMessage(chatID int64, text string) error {
	if g.token == "" {
		return fmt.Errorf("telegram bot token is not configured")
	}

	if len(text) > maxMessageLength {
		text = text[:maxMessageLength]
	}

	body, err := json.Marshal(sendMessageRequest{ChatID: chatID, Text: text})
	if err != nil {
		return fmt.Errorf("failed to marshal sendMessage request: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", g.apiURL, g.token)
	resp, err := g.client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to call telegram API: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read telegram response: %w", err)
	}

	var result sendMessageResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if !result.OK {
		return fmt.Errorf("telegram API error %d: %s", result.ErrorCode, result.Description)
	}

	return nil
}

// GetName returns the gateway name
func (g *BotGateway) GetName() string {
	return "telegram-bot"
}
