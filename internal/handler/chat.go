package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/askchopper-dev/askchopper/internal/domain"
)

// Chat handles one conversational turn: persist the user message with its
// attachments, run the remote exchange and return both sides of the turn.
func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	type bodyJson struct {
		Message   string `validate:"required" json:"message"`
		SessionId string `json:"session_id"`
	}

	body, pendingFiles, cleanup, err := parseMultipartRequest[bodyJson](w, r, h)
	if err != nil {
		writeError(w, err)
		return
	}
	defer cleanup()

	userMsg, err := h.ledger.Append(r.Context(), body.SessionId, domain.MessageTypeUser, body.Message)
	if err != nil {
		writeError(w, err)
		return
	}

	for _, pf := range pendingFiles {
		att, err := h.attachments.Ingest(r.Context(), userMsg.Id, pf)
		if err != nil {
			// The turn already exists; a broken attachment degrades it
			// instead of failing the whole exchange.
			slog.Error("attachment ingestion failed", "message_id", userMsg.Id, "filename", pf.Filename, "error", err)
			continue
		}
		userMsg.Attachments = append(userMsg.Attachments, att)
		userMsg.HasAttachments = true
	}

	assistantMsg, err := h.orchestrator.Respond(r.Context(), userMsg)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, chatResponseJSON{
		UserMessage:      renderMessage(userMsg),
		AssistantMessage: renderMessage(assistantMsg),
	})
}

// History returns the session's conversation in chronological order.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("session_id")

	msgs, err := h.ledger.History(r.Context(), sessionID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{"messages": renderMessages(msgs)})
}

// GetMessage returns a single turn with its attachments.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	msgId, err := parseIntParam(chi.URLParam(r, "message"), "message id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.ledger.Get(r.Context(), int64(msgId))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, renderMessage(msg))
}

// DeleteMessage removes a turn together with its attachment rows and files.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	msgId, err := parseIntParam(chi.URLParam(r, "message"), "message id")
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.ledger.Delete(r.Context(), int64(msgId)); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
}
