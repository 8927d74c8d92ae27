package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"mediascribe/internal/queue"
)

// FeedHandler triggers ad-hoc feed ingestion runs; the periodic schedule
// lives in the worker process.
type FeedHandler struct {
	queue         *queue.Client
	defaultSource string
}

func NewFeedHandler(qc *queue.Client, defaultSource string) *FeedHandler {
	return &FeedHandler{queue: qc, defaultSource: defaultSource}
}

type feedRefreshRequest struct {
	Source string `json:"source"`
}

func (h *FeedHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req feedRefreshRequest
	// An empty body means "use the configured source".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "body must be JSON"})
		return
	}

	source := req.Source
	if source == "" {
		source = h.defaultSource
	}
	if source == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no feed source configured"})
		return
	}

	if err := h.queue.EnqueueFeedIngest(queue.FeedIngestPayload{Source: source}); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "could not enqueue feed ingest"})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "source": source})
}
