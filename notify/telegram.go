// Package notify delivers login codes out of band through the Telegram
// Bot API.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.telegram.org"

// Update is the webhook payload Telegram posts on incoming bot messages.
type Update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Text string `json:"text"`
		Chat struct {
			ID int64 `json:"id"`
		} `json:"chat"`
	} `json:"message"`
}

// TelegramNotifier talks to one bot. A zero token disables delivery at
// the wiring level, not here.
type TelegramNotifier struct {
	log     *slog.Logger
	client  *http.Client
	token   string
	baseURL string
}

func NewTelegramNotifier(log *slog.Logger, token string) *TelegramNotifier {
	return NewTelegramNotifierWithBaseURL(log, token, defaultBaseURL)
}

// NewTelegramNotifierWithBaseURL points the bot at a different API host,
// for tests.
func NewTelegramNotifierWithBaseURL(log *slog.Logger, token, baseURL string) *TelegramNotifier {
	return &TelegramNotifier{
		log:     log,
		client:  &http.Client{Timeout: 10 * time.Second},
		token:   token,
		baseURL: baseURL,
	}
}

// SendCode delivers a login code to the user's Telegram chat.
func (n *TelegramNotifier) SendCode(ctx context.Context, telegramChatID, code string) error {
	text := fmt.Sprintf("Your login code: %s\nIt expires in 10 minutes.", code)
	return n.SendMessage(ctx, telegramChatID, text)
}

// SendMessage posts one text message through the bot.
func (n *TelegramNotifier) SendMessage(ctx context.Context, chatID, text string) error {
	payload, err := json.Marshal(map[string]string{
		"chat_id": chatID,
		"text":    text,
	})
	if err != nil {
		return fmt.Errorf("encoding telegram payload: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", n.baseURL, n.token)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling telegram: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("telegram replied %d: %s", resp.StatusCode, body)
	}
	return nil
}

// HandleStart answers a /start command with the chat id the user needs at
// login. Other texts are ignored.
func (n *TelegramNotifier) HandleStart(ctx context.Context, update Update) {
	if update.Message == nil || update.Message.Text != "/start" {
		return
	}
	chatID := fmt.Sprintf("%d", update.Message.Chat.ID)
	text := fmt.Sprintf("Your Telegram chat id is %s.\nEnter it with your phone number to receive login codes here.", chatID)
	if err := n.SendMessage(ctx, chatID, text); err != nil {
		n.log.Warn("Replying to /start failed", "chat_id", chatID, "error", err)
	}
}
