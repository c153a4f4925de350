// Package handlers exposes the tool dispatcher over HTTP. This layer is
// deliberately thin: decode, dispatch, encode. All semantics live in the
// tools and publisher packages.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"pressbridge/internal/tools"
)

// Bulk requests carry full article bodies; anything beyond this is abuse.
const maxBodyBytes = 4 << 20

// Tools handles tool-invocation requests.
type Tools struct {
	dispatcher *tools.Dispatcher
}

// NewTools creates the tools handler.
func NewTools(d *tools.Dispatcher) *Tools {
	return &Tools{dispatcher: d}
}

type invokeResponse struct {
	Content []tools.TextBlock `json:"content"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Invoke runs the named tool with the JSON argument body and returns its
// text blocks.
func (h *Tools) Invoke(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read request body")
		return
	}

	blocks, err := h.dispatcher.Dispatch(r.Context(), name, json.RawMessage(body))
	switch {
	case errors.Is(err, tools.ErrUnknownOperation):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, tools.ErrInvalidRequest):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		slog.Error("tool invocation failed", "tool", name, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, invokeResponse{Content: blocks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
