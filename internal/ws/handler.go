package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
	"elearning_go/internal/service"
)

const maxFrameBytes = 64 << 10

// Authenticator resolves a bearer token to a user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// Chat stores messages sent over a socket.
type Chat interface {
	Send(ctx context.Context, senderID, conversationID int64, text string) (*service.Delivery, error)
	IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error)
}

// Presence records whether a user has an open inbox socket.
type Presence interface {
	SetOnlineStatus(ctx context.Context, id int64, isOnline bool) error
}

type wsAuthError struct {
	status int
	msg    string
}

func (e wsAuthError) Error() string {
	return e.msg
}

// Handler serves the inbox socket and the legacy per-conversation sockets.
type Handler struct {
	hub         *Hub
	auth        Authenticator
	chat        Chat
	presence    Presence
	log         zerolog.Logger
	checkOrigin func(r *http.Request) bool
	upgrader    websocket.Upgrader
}

func NewHandler(hub *Hub, auth Authenticator, chat Chat, presence Presence, allowedOrigins []string, log zerolog.Logger) *Handler {
	checkOrigin := makeCheckOrigin(allowedOrigins)
	return &Handler{
		hub:         hub,
		auth:        auth,
		chat:        chat,
		presence:    presence,
		log:         observability.WithComponent(log, "ws"),
		checkOrigin: checkOrigin,
		upgrader: websocket.Upgrader{
			CheckOrigin:  checkOrigin,
			Subprotocols: []string{"bearer"},
		},
	}
}

func normalizeAllowedOrigins(origins []string) map[string]struct{} {
	res := make(map[string]struct{}, len(origins))
	for _, origin := range origins {
		o := strings.TrimSpace(strings.ToLower(origin))
		if o != "" {
			res[o] = struct{}{}
		}
	}
	return res
}

// makeCheckOrigin accepts requests without an Origin header, which is what
// non-browser clients send, and browser requests from an allowed origin.
func makeCheckOrigin(allowedOrigins []string) func(r *http.Request) bool {
	allowed := normalizeAllowedOrigins(allowedOrigins)
	return func(r *http.Request) bool {
		origin := strings.TrimSpace(strings.ToLower(r.Header.Get("Origin")))
		if origin == "" {
			return true
		}
		if _, ok := allowed[origin]; ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		_, ok := allowed[strings.ToLower(fmt.Sprintf("%s://%s", u.Scheme, u.Host))]
		return ok
	}
}

func extractTokenFromWSRequest(r *http.Request) (string, error) {
	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		if token := strings.TrimSpace(authHeader[len("Bearer "):]); token != "" {
			return token, nil
		}
	}

	if protocolHeader := r.Header.Get("Sec-WebSocket-Protocol"); protocolHeader != "" {
		parts := strings.Split(protocolHeader, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) >= 2 && strings.EqualFold(parts[0], "bearer") && parts[1] != "" {
			return parts[1], nil
		}
	}

	if token := r.URL.Query().Get("token"); token != "" {
		return token, nil
	}
	return "", wsAuthError{status: http.StatusUnauthorized, msg: "missing bearer token"}
}

func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) *domain.User {
	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return nil
	}
	tokenStr, err := extractTokenFromWSRequest(r)
	if err != nil {
		var authErr wsAuthError
		if errors.As(err, &authErr) {
			http.Error(w, authErr.msg, authErr.status)
			return nil
		}
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return nil
	}
	user, err := h.auth.Authenticate(r.Context(), tokenStr)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return nil
	}
	return user
}

// Inbox serves /ws/chat/inbox/: one socket per client carrying frames for
// every conversation of the user.
func (h *Handler) Inbox(w http.ResponseWriter, r *http.Request) {
	user := h.authenticate(w, r)
	if user == nil {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	log := h.log.With().Int64("user_id", user.ID).Logger()
	c := newClient(conn, user.ID)

	h.hub.Register(c)
	if err := h.presence.SetOnlineStatus(ctx, user.ID, true); err != nil {
		log.Warn().Err(err).Msg("set online")
	}
	log.Debug().Msg("inbox connected")
	defer func() {
		h.hub.Unregister(c)
		if h.hub.Connections(user.ID) == 0 {
			if err := h.presence.SetOnlineStatus(context.Background(), user.ID, false); err != nil {
				log.Warn().Err(err).Msg("set offline")
			}
		}
		log.Debug().Msg("inbox disconnected")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("inbox read")
			}
			return
		}
		var frame domain.SendFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			sendError(c, "malformed frame")
			continue
		}
		switch frame.Type {
		case domain.FrameTypeSend:
			h.deliver(ctx, c, int64(frame.ConversationID), frame.Message)
		default:
			log.Debug().Str("type", frame.Type).Msg("unknown frame type")
			sendError(c, "unsupported frame type")
		}
	}
}

// Conversation serves the legacy /ws/chat/{conversationID}/ socket, which
// only carries one conversation.
func (h *Handler) Conversation(w http.ResponseWriter, r *http.Request) {
	user := h.authenticate(w, r)
	if user == nil {
		return
	}
	convID, err := strconv.ParseInt(chi.URLParam(r, "conversationID"), 10, 64)
	if err != nil || convID <= 0 {
		http.Error(w, "invalid conversation id", http.StatusBadRequest)
		return
	}
	ok, err := h.chat.IsParticipant(r.Context(), convID, user.ID)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "not a participant in this conversation", http.StatusForbidden)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	ctx := r.Context()
	c := newClient(conn, user.ID)
	h.hub.Join(convID, c)
	defer h.hub.Leave(convID, c)

	for {
		var frame domain.LegacySendFrame
		if err := conn.ReadJSON(&frame); err != nil {
			var syntaxErr *json.SyntaxError
			if errors.As(err, &syntaxErr) {
				continue
			}
			return
		}
		if strings.TrimSpace(frame.Message) == "" {
			continue
		}
		h.deliver(ctx, c, convID, frame.Message)
	}
}

func (h *Handler) deliver(ctx context.Context, c *Client, conversationID int64, text string) {
	d, err := h.chat.Send(ctx, c.userID, conversationID, text)
	if err != nil {
		h.log.Debug().Err(err).Int64("user_id", c.userID).Int64("conversation_id", conversationID).Msg("send rejected")
		sendError(c, describe(err))
		return
	}
	h.hub.Deliver(d)
}

func describe(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyMessage):
		return "message is empty"
	case errors.Is(err, domain.ErrNotFound):
		return "conversation not found"
	case errors.Is(err, domain.ErrForbidden):
		return "not a participant in this conversation"
	case errors.Is(err, domain.ErrInvalidInput):
		return err.Error()
	}
	return "failed to send message"
}

func sendError(c *Client, msg string) {
	_ = c.WriteJSON(domain.NewErrorFrame(msg))
}
