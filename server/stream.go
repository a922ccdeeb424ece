package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sig-0/fxpoints/workset"
)

const streamKeepAlive = 25 * time.Second

var errStreamingUnsupported = errors.New("streaming unsupported")

// StreamEvent notifies about a new working set version
type StreamEvent struct {
	UpdatedAt time.Time `json:"updated_at"`
	City      string    `json:"city"`
	Version   uint64    `json:"version"`
	Outlets   int       `json:"outlets"`
}

// Stream streams the city working set updates as server-sent events.
// The current version is sent first
func (s *Server) Stream(w http.ResponseWriter, r *http.Request) {
	cityParam := chi.URLParam(r, "city")

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errStreamingUnsupported)

		return
	}

	updates, cancel, err := s.service.Subscribe(cityParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	defer cancel()

	snap, err := s.service.Snapshot(cityParam)
	if err != nil {
		s.writeServiceError(w, err)

		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err = writeEvent(w, snap); err != nil {
		return
	}

	flusher.Flush()

	keepAlive := time.NewTicker(streamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err = io.WriteString(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case snap = <-updates:
			if err = writeEvent(w, snap); err != nil {
				s.logger.Debug(
					"unable to write stream event",
					"err", err,
				)

				return
			}
		}

		flusher.Flush()
	}
}

// writeEvent writes a single snapshot SSE event
func writeEvent(w io.Writer, snap *workset.Snapshot) error {
	data, err := json.Marshal(&StreamEvent{
		City:      snap.City,
		Version:   snap.Version,
		UpdatedAt: snap.UpdatedAt,
		Outlets:   snap.Len(),
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "id: %d\nevent: snapshot\ndata: %s\n\n", snap.Version, data)

	return err
}
