// Package client wraps the REST surface for console and test use. It also
// backs the session reconciler's directory and backlog reads.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mio-messenger/domain"
	"mio-messenger/search"
)

// API is an authenticated HTTP client. Token may be empty until Verify
// succeeds.
type API struct {
	http    *http.Client
	baseURL string
	token   string
}

func NewAPI(baseURL string) *API {
	return &API{
		http:    &http.Client{Timeout: 15 * time.Second},
		baseURL: baseURL,
	}
}

// SetToken installs the bearer token used by authenticated calls.
func (a *API) SetToken(token string) {
	a.token = token
}

func (a *API) Token() string {
	return a.token
}

// Login requests a verification code for the phone.
func (a *API) Login(ctx context.Context, phone, telegramChatID string) error {
	body := map[string]string{"phone": phone}
	if telegramChatID != "" {
		body["telegramChatId"] = telegramChatID
	}
	return a.call(ctx, http.MethodPost, "/api/auth/login", body, nil)
}

// VerifyResponse carries the session token and the account it belongs to.
type VerifyResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// Verify submits the code and installs the returned token on success.
func (a *API) Verify(ctx context.Context, phone, code string) (VerifyResponse, error) {
	var resp VerifyResponse
	err := a.call(ctx, http.MethodPost, "/api/auth/verify",
		map[string]string{"phone": phone, "code": code}, &resp)
	if err != nil {
		return VerifyResponse{}, err
	}
	a.token = resp.Token
	return resp, nil
}

// ListChats implements session.Directory. The server scopes the listing
// to the token's account; userID only exists to satisfy the interface.
func (a *API) ListChats(ctx context.Context, _ string) ([]domain.Chat, error) {
	var chats []domain.Chat
	if err := a.call(ctx, http.MethodGet, "/api/chats", nil, &chats); err != nil {
		return nil, err
	}
	return chats, nil
}

func (a *API) CreateChat(ctx context.Context, name string, participantPhones []string) (domain.Chat, error) {
	var chat domain.Chat
	err := a.call(ctx, http.MethodPost, "/api/chats", map[string]any{
		"name":               name,
		"participant_phones": participantPhones,
	}, &chat)
	return chat, err
}

func (a *API) AddMember(ctx context.Context, chatID domain.ChatID, phone string) (domain.Chat, error) {
	var chat domain.Chat
	err := a.call(ctx, http.MethodPost, fmt.Sprintf("/api/chats/%s/members", chatID),
		map[string]string{"phone": phone}, &chat)
	return chat, err
}

// ReadRange implements session.Backlog.
func (a *API) ReadRange(ctx context.Context, chatID domain.ChatID, limit int, beforeID *int64) ([]domain.Message, error) {
	var messages []domain.Message
	err := a.call(ctx, http.MethodPost, "/api/history", map[string]any{
		"chat_id":   chatID,
		"limit":     limit,
		"before_id": beforeID,
	}, &messages)
	return messages, err
}

func (a *API) SearchUsers(ctx context.Context, phoneFragment string) ([]search.Result, error) {
	var results []search.Result
	err := a.call(ctx, http.MethodGet, "/api/users?phone="+phoneFragment, nil, &results)
	return results, err
}

func (a *API) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error != "" {
			return fmt.Errorf("%s %s: %s (status %d)", method, path, apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
