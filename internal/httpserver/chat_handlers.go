package httpserver

import (
	"encoding/json"
	"net/http"

	"elearning_go/internal/domain"
	"elearning_go/internal/service"
	"elearning_go/internal/ws"
)

func handleListConversations(chat *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convs, err := chat.List(r.Context(), CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.ConversationsResponse{Conversations: convs})
	}
}

func handleHistory(chat *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convID, ok := pathID(w, r, "conversationID")
		if !ok {
			return
		}
		msgs, err := chat.History(r.Context(), convID, CurrentUser(r).ID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.HistoryResponse{Messages: msgs})
	}
}

func handleStartConversation(chat *service.ChatService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		otherID, ok := pathID(w, r, "userID")
		if !ok {
			return
		}
		convID, err := chat.Start(r.Context(), CurrentUser(r).ID, otherID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, domain.StartResponse{ConversationID: domain.ID(convID)})
	}
}

// handleSendMessage is the HTTP fallback for clients without a socket. The
// stored message is pushed to sockets exactly as if it had arrived on one.
func handleSendMessage(chat *service.ChatService, hub *ws.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		convID, ok := pathID(w, r, "conversationID")
		if !ok {
			return
		}
		var req domain.LegacySendFrame
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeMessage(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		d, err := chat.Send(r.Context(), CurrentUser(r).ID, convID, req.Message)
		if err != nil {
			writeError(w, r, err)
			return
		}
		hub.Deliver(d)
		writeJSON(w, http.StatusCreated, d.Frame)
	}
}
