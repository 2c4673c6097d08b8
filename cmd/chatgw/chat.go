package main

import (
	"encoding/json"
	"errors"
	"net/http"

	chatgw "github.com/blueember/storefront-chat"
	"github.com/blueember/storefront-chat/plugin"
)

// maxChatBody bounds the POST /api/chat body.
const maxChatBody = 64 << 10

// Response headers identifying who answered.
const (
	HeaderProvider = "X-Chat-Provider"
	HeaderSource   = "X-Chat-Source"
)

type chatResponse struct {
	Reply string `json:"reply"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Details     string `json:"details,omitempty"`
	Note        string `json:"note,omitempty"`
	ChainLength int    `json:"chainLength,omitempty"`
}

func chatHandler(gw *chatgw.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatgw.ChatRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxChatBody)).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid request body", Details: err.Error()})
			return
		}

		reply, err := gw.Chat(r.Context(), req)
		if err != nil {
			writeChatError(w, err)
			return
		}

		if reply.Provider != "" {
			w.Header().Set(HeaderProvider, string(reply.Provider))
		}
		w.Header().Set(HeaderSource, reply.Source)
		writeJSON(w, http.StatusOK, chatResponse{Reply: reply.Reply})
	}
}

func writeChatError(w http.ResponseWriter, err error) {
	var (
		rej *plugin.RejectError
		nc  *chatgw.NoCredentialsError
		fe  *chatgw.FailoverError
	)
	switch {
	case errors.Is(err, chatgw.ErrMessageRequired):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message required"})
	case errors.As(err, &rej):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Message rejected", Details: rej.Reason})
	case errors.As(err, &nc):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:   "No valid API keys found for this model config.",
			Details: nc.Guidance(),
		})
	case errors.As(err, &fe):
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error:       "All API providers failed.",
			Details:     fe.Details(),
			Note:        "Check server logs for individual key errors.",
			ChainLength: fe.ChainLength,
		})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal error", Details: err.Error()})
	}
}
