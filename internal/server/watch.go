package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/veritylabs/fosight/internal/db"
)

// watchPollInterval is how often the watch endpoint re-reads job state.
const watchPollInterval = time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type watchEvent struct {
	JobID        string  `json:"job_id"`
	Status       string  `json:"status"`
	ErrorMessage *string `json:"error_message,omitempty"`
}

// watch streams job status changes over a websocket until the job reaches a
// terminal state, then closes. Clients that prefer polling can use the
// report endpoint instead.
func (h *handlers) watch(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["job_id"]

	if _, err := h.svc.Job(r.Context(), jobID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			writeError(w, http.StatusNotFound, "job not found")
			return
		}
		h.logger.Error("job lookup failed", "job_id", jobID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load job")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "job_id", jobID, "error", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(watchPollInterval)
	defer ticker.Stop()

	var lastStatus string
	for {
		job, err := h.svc.Job(r.Context(), jobID)
		if err != nil {
			h.logger.Error("watch lookup failed", "job_id", jobID, "error", err)
			return
		}

		if string(job.Status) != lastStatus {
			lastStatus = string(job.Status)
			event := watchEvent{
				JobID:        job.JobID(),
				Status:       lastStatus,
				ErrorMessage: job.ErrorMessage,
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}

		if job.Status.Terminal() {
			return
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
