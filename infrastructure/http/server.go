// Package http exposes the REST and live WebSocket surface.
package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"

	"mio-messenger/auth"
	"mio-messenger/contract"
	"mio-messenger/notify"
	"mio-messenger/observability"
	"mio-messenger/search"
	"mio-messenger/services"
)

type Server struct {
	log        *slog.Logger
	auths      contract.IAuthService
	chats      services.IChatService
	index      *search.UserIndex
	notifier   *notify.TelegramNotifier
	issuer     auth.TokenIssuer
	counters   *observability.Counters
	bufferSize int
	upgrader   websocket.Upgrader
}

func NewServer(log *slog.Logger, auths contract.IAuthService, chats services.IChatService,
	index *search.UserIndex, notifier *notify.TelegramNotifier, issuer auth.TokenIssuer,
	counters *observability.Counters, bufferSize int) *Server {
	return &Server{
		log:        log,
		auths:      auths,
		chats:      chats,
		index:      index,
		notifier:   notifier,
		issuer:     issuer,
		counters:   counters,
		bufferSize: bufferSize,
	}
}

// Router wires every endpoint. Everything under /api except the auth
// endpoints requires a bearer token; /ws authenticates with a token query
// parameter since browsers cannot set headers on WebSocket upgrades.
func (s *Server) Router(allowedOrigins []string) http.Handler {
	s.upgrader = newUpgrader(allowedOrigins)
	r := mux.NewRouter()

	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/verify", s.handleVerify).Methods(http.MethodPost)
	r.HandleFunc("/api/telegram/webhook", s.handleTelegramWebhook).Methods(http.MethodPost)
	r.HandleFunc("/ws", s.handleWebSocket).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.issuer.Middleware)
	api.HandleFunc("/chats", s.handleListChats).Methods(http.MethodGet)
	api.HandleFunc("/chats", s.handleCreateChat).Methods(http.MethodPost)
	api.HandleFunc("/chats/{id}/members", s.handleAddMember).Methods(http.MethodPost)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodPost)
	api.HandleFunc("/users", s.handleSearchUsers).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})
	return c.Handler(r)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Encoding response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
