package http

import (
	"encoding/json"
	"net/http"

	"ocstat/internal/ingestors"
)

type AppHttpHandler interface {
	Handle(w http.ResponseWriter, r *http.Request) error
}

type ingestSessionResponse struct {
	BatchID     string `json:"batchId"`
	StoredCount int    `json:"storedCount"`
}

type ingestSessionHandler struct {
	ingestionService ingestors.IngestionService
}

func NewIngestSessionHandler(ingestionService ingestors.IngestionService) AppHttpHandler {
	return &ingestSessionHandler{
		ingestionService: ingestionService,
	}
}

// Handle processes POST /sessions requests.
func (h *ingestSessionHandler) Handle(w http.ResponseWriter, r *http.Request) error {
	result, err := h.ingestionService.IngestBatch(r.Context(), idempotencyKey(r), contentType(r), r.Body)
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(ingestSessionResponse{
		BatchID:     result.BatchID,
		StoredCount: result.StoredCount,
	})
	return nil
}
