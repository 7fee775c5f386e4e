package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"mio-messenger/auth"
	"mio-messenger/domain"
	"mio-messenger/errors"
	"mio-messenger/notify"
	"mio-messenger/search"
)

const maxBodyBytes = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

// handleLogin issues a login code for a phone number. The response never
// reveals whether the phone already has an account.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.auths.RequestCode(r.Context(), req); err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "code sent"})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req auth.VerifyRequest
	if !s.decode(w, r, &req) {
		return
	}

	token, user, err := s.auths.VerifyCode(r.Context(), req)
	if err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"token": token.String(),
		"user":  user,
	})
}

func (s *Server) handleTelegramWebhook(w http.ResponseWriter, r *http.Request) {
	var update notify.Update
	if !s.decode(w, r, &update) {
		return
	}
	s.notifier.HandleStart(r.Context(), update)
	s.writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleListChats(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	chats, err := s.chats.ListChats(userID)
	if err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	if chats == nil {
		chats = []domain.Chat{}
	}
	s.writeJSON(w, http.StatusOK, chats)
}

type createChatRequest struct {
	Name              string   `json:"name"`
	ParticipantPhones []string `json:"participant_phones"`
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !s.decode(w, r, &req) {
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	chat, err := s.chats.CreateChat(r.Context(), userID, req.Name, req.ParticipantPhones)
	if err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusCreated, chat)
}

type addMemberRequest struct {
	Phone string `json:"phone"`
}

func (s *Server) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var req addMemberRequest
	if !s.decode(w, r, &req) {
		return
	}

	chatID := domain.ChatID(mux.Vars(r)["id"])
	userID := auth.UserIDFromContext(r.Context())
	chat, err := s.chats.AddMember(r.Context(), userID, chatID, req.Phone)
	if err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	s.writeJSON(w, http.StatusOK, chat)
}

type historyRequest struct {
	ChatID   domain.ChatID `json:"chat_id"`
	Limit    int           `json:"limit"`
	BeforeID *int64        `json:"before_id"`
}

// handleHistory serves a page of the chat log, newest page first when no
// cursor is given. Limit is capped server-side.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	var req historyRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 100
	}

	userID := auth.UserIDFromContext(r.Context())
	messages, err := s.chats.History(userID, req.ChatID, req.Limit, req.BeforeID)
	if err != nil {
		s.writeError(w, errors.MapToHTTPStatus(err), err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	s.writeJSON(w, http.StatusOK, messages)
}

func (s *Server) handleSearchUsers(w http.ResponseWriter, r *http.Request) {
	fragment := r.URL.Query().Get("phone")
	if fragment == "" {
		s.writeError(w, http.StatusBadRequest, errors.ErrInvalidPhone)
		return
	}

	results, err := s.index.SearchByPhone(r.Context(), fragment)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	s.writeJSON(w, http.StatusOK, results)
}
