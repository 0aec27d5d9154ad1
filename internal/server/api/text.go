package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ayusman/signlens/internal/app"
	"github.com/ayusman/signlens/internal/transcript"
)

// Editor reads and edits the recognized text.
type Editor interface {
	Text() string
	Edit(ctx context.Context, op transcript.Op) (string, error)
}

// TextHandler serves GET and POST /api/text.
type TextHandler struct {
	editor Editor
}

// NewTextHandler creates a new TextHandler.
func NewTextHandler(e Editor) *TextHandler {
	return &TextHandler{editor: e}
}

type textRequest struct {
	Op string `json:"op"`
}

type textResponse struct {
	Text string `json:"text"`
}

func (h *TextHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, textResponse{Text: h.editor.Text()})
	case http.MethodPost:
		h.edit(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TextHandler) edit(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	op := transcript.Op(req.Op)
	if !op.Valid() {
		writeError(w, http.StatusBadRequest, "Op must be space, backspace or clear")
		return
	}

	text, err := h.editor.Edit(r.Context(), op)
	switch {
	case errors.Is(err, app.ErrNotRunning):
		writeError(w, http.StatusServiceUnavailable, "Recognition is not running")
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "Failed to edit text")
		return
	}

	writeJSON(w, http.StatusOK, textResponse{Text: text})
}

// Toggle switches detection on and off.
type Toggle interface {
	IsEnabled() bool
	SetEnabled(enabled bool)
}

// EnabledHandler serves GET and POST /api/enabled.
type EnabledHandler struct {
	toggle Toggle
}

// NewEnabledHandler creates a new EnabledHandler.
func NewEnabledHandler(t Toggle) *EnabledHandler {
	return &EnabledHandler{toggle: t}
}

type enabledBody struct {
	Enabled *bool `json:"enabled"`
}

func (h *EnabledHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
	case http.MethodPost:
		var req enabledBody
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid JSON")
			return
		}
		if req.Enabled == nil {
			writeError(w, http.StatusBadRequest, "Enabled is required")
			return
		}
		h.toggle.SetEnabled(*req.Enabled)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	enabled := h.toggle.IsEnabled()
	writeJSON(w, http.StatusOK, enabledBody{Enabled: &enabled})
}
