package zkhmon

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
	"zkhmon-backend/lib/readingstore"
	"zkhmon-backend/lib/scrapers/zkh"
)

type snapshotResponse struct {
	FetchedAt string          `json:"fetched_at"`
	Data      zkh.FetchResult `json:"data"`
}

type readingPointResponse struct {
	Time  string `json:"time"`
	Value int64  `json:"value"`
}

func (s *Service) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/meters/{key}/history", s.handleMeterHistory)
}

func writeJson(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(body)
	if err != nil {
		slog.Warn("failed to encode response body", "err", err)
	}
}

func (s *Service) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.Snapshot(r.Context())
	if errors.Is(err, readingstore.ErrNoSnapshot) {
		http.Error(w, "no snapshot available yet", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	writeJson(w, snapshotResponse{
		FetchedAt: snapshot.Time.Format(time.RFC3339),
		Data:      snapshot.Result,
	})
}

func (s *Service) handleMeterHistory(w http.ResponseWriter, r *http.Request) {
	points, err := s.MeterHistory(r.Context(), r.PathValue("key"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body := make([]readingPointResponse, len(points))
	for i, p := range points {
		body[i] = readingPointResponse{
			Time:  p.Time.Format(time.RFC3339),
			Value: p.Value,
		}
	}
	writeJson(w, body)
}
