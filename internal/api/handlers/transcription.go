package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"mediascribe/internal/errs"
	"mediascribe/internal/pipeline"
)

// Pipeline is the orchestrator surface the handler depends on.
type Pipeline interface {
	Run(ctx context.Context, rawURL string) (*pipeline.Result, error)
}

type TranscriptionHandler struct {
	pipeline Pipeline
}

func NewTranscriptionHandler(p Pipeline) *TranscriptionHandler {
	return &TranscriptionHandler{pipeline: p}
}

type transcriptionRequest struct {
	AudioURL string `json:"audio_url"`
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
	Language      string `json:"language,omitempty"`
}

// Transcribe resolves, downloads and transcribes the submitted URL.
// Every failure maps to a flat 400 with a descriptive message, matching
// the original client contract.
func (h *TranscriptionHandler) Transcribe(w http.ResponseWriter, r *http.Request) {
	var req transcriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be JSON"})
		return
	}

	if req.AudioURL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "audio_url is required"})
		return
	}

	result, err := h.pipeline.Run(r.Context(), req.AudioURL)
	if err != nil {
		kind := errs.KindOf(err)
		slog.Warn("transcription request failed", "kind", kind.String(), "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, transcriptionResponse{
		Transcription: result.Text,
		Language:      result.Language,
	})
}
