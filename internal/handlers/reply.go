package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/felo/reply-drafter/internal/reply"
	"github.com/felo/reply-drafter/internal/webhook"
)

// NormalizedReply is the API view of a normalized reply
type NormalizedReply struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Normalize runs a raw endpoint response through the normalization chain
func (h *Handlers) Normalize(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "Request body too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to read request body"})
		return
	}

	h.respond(w, string(raw))
}

// Reply forwards a message context payload to the automation endpoint and
// returns the normalized reply
func (h *Handlers) Reply(w http.ResponseWriter, r *http.Request) {
	if h.source == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "No automation endpoint configured"})
		return
	}

	var req webhook.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid payload"})
		return
	}

	raw, err := h.source.Send(r.Context(), req.Payload.MessageContext())
	if err != nil {
		h.logger.Error("automation endpoint failed", "err", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	h.respond(w, raw)
}

func (h *Handlers) respond(w http.ResponseWriter, raw string) {
	content, err := h.normalizer.Normalize(raw)
	if err != nil {
		if reply.IsEmptyReplyError(err) {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("failed to normalize reply", "err", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to normalize reply"})
		return
	}

	writeJSON(w, http.StatusOK, NormalizedReply{HTML: content, Text: reply.PlainText(content)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
