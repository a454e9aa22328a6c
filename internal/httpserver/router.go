package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"elearning_go/internal/config"
	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
	"elearning_go/internal/service"
	"elearning_go/internal/ws"
)

// Deps are the services the router exposes.
type Deps struct {
	Config    *config.Config
	Auth      *service.AuthService
	Directory *service.DirectoryService
	Chat      *service.ChatService
	Hub       *ws.Hub
	Presence  ws.Presence
	Log       zerolog.Logger
}

// NewRouter constructs the HTTP router serving the inbox endpoints and sockets.
func NewRouter(d Deps) http.Handler {
	log := observability.WithComponent(d.Log, "http")
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	wsHandler := ws.NewHandler(d.Hub, d.Auth, d.Chat, d.Presence, d.Config.CORSOrigins, d.Log)
	r.Get("/ws/chat/inbox/", wsHandler.Inbox)
	r.Get("/ws/chat/{conversationID}/", wsHandler.Conversation)

	// sockets stay open past any request deadline
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "app": d.Config.AppName})
		})

		r.Route("/api/auth", func(r chi.Router) {
			r.Post("/register", handleRegister(d.Auth))
			r.Post("/login", handleLogin(d.Auth))
			r.With(AuthMiddleware(d.Auth)).Post("/logout", handleLogout(d.Auth))
			r.With(AuthMiddleware(d.Auth)).Get("/me", handleMe())
		})

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(d.Auth))

			r.Get("/users/search/", handleSearchUsers(d.Directory))
			r.Get("/api/users/{username}/", handleProfile(d.Directory))
			r.Get("/accounts/profile/{userID}/", handleLegacyProfile(d.Directory))

			r.Route("/chat", func(r chi.Router) {
				r.Get("/conversations/", handleListConversations(d.Chat))
				r.Get("/history/{conversationID}/", handleHistory(d.Chat))
				r.Get("/start/{userID}/", handleStartConversation(d.Chat))
				r.Post("/send/{conversationID}/", handleSendMessage(d.Chat, d.Hub))
			})
		})
	})

	return r
}

// writeJSON is a small helper to send JSON responses.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeError maps service errors to status codes. Unexpected errors are
// logged and hidden from the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyMessage):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
