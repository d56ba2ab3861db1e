package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mattjoyce/grouse/internal/complaint"
	"github.com/mattjoyce/grouse/internal/events"
	"github.com/mattjoyce/grouse/internal/metrics"
	"github.com/mattjoyce/grouse/internal/slack"
)

// handleCommand handles POST on the command path. The raw body is verified
// before any parsing: the signature covers the bytes on the wire, not a
// re-encoding.
func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	req := slack.Request{
		Headers: make(map[string]string, 2),
		Body:    string(body),
	}
	for _, name := range []string{slack.HeaderTimestamp, slack.HeaderSignature} {
		if vs := r.Header.Values(name); len(vs) > 0 {
			req.Headers[name] = vs[0]
		}
	}

	if err := s.authenticator.Authenticate(req); err != nil {
		s.metrics.AuthOutcome(authOutcome(err))
		s.events.Publish(events.TypeAuthRejected, events.AuthRejected{
			Reason: err.Error(),
			Remote: r.RemoteAddr,
		})
		s.logger.Warn("command rejected", "reason", err.Error(), "remote", r.RemoteAddr)
		s.writeError(w, http.StatusForbidden, err.Error())
		return
	}
	s.metrics.AuthOutcome(metrics.OutcomeOK)

	cmd, err := slack.ParseSlashCommand(req.Body)
	if err != nil {
		s.logger.Warn("bad command payload", "error", err)
		s.writeError(w, http.StatusBadRequest, "invalid command payload")
		return
	}

	rec := complaint.NewRecord(cmd, time.Now().UTC())
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.logger.Error("failed to record complaint", "id", rec.ID, "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to record complaint")
		return
	}
	s.metrics.ComplaintRecorded()

	// The tally is best effort. A complaint already stored is worth
	// acknowledging even when the count query fails.
	count, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Warn("failed to count complaints", "error", err)
		count = complaint.CountUnknown
	}

	s.events.Publish(events.TypeComplaintRecorded, events.ComplaintRecorded{
		ID:       rec.ID,
		Reporter: rec.Reporter,
		Text:     rec.Text,
		Channel:  rec.Channel,
		Total:    count,
	})
	s.logger.Info("complaint recorded", "id", rec.ID, "reporter", rec.Reporter, "total", count)

	respondJSON(w, http.StatusOK, slack.InChannel(complaint.ReplyText(s.config.Subject, cmd.Text, count)))
}

// authOutcome maps an authentication error to its metric label.
func authOutcome(err error) string {
	var missing *slack.MissingHeaderError
	switch {
	case errors.As(err, &missing):
		return metrics.OutcomeMissingHeader
	case errors.Is(err, slack.ErrMalformedTimestamp):
		return metrics.OutcomeMalformedTimestamp
	case errors.Is(err, slack.ErrStaleTimestamp):
		return metrics.OutcomeStaleTimestamp
	case errors.Is(err, slack.ErrInvalidSignature):
		return metrics.OutcomeInvalidSignature
	default:
		return "error"
	}
}

// handleHealthz handles GET /healthz (no auth).
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("failed to count complaints", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to count complaints")
		return
	}

	respondJSON(w, http.StatusOK, HealthzResponse{
		Status:          "ok",
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		StorageBackend:  s.config.Backend,
		ComplaintsTotal: total,
	})
}

// handleListComplaints handles GET /admin/complaints.
func (s *Server) handleListComplaints(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer between 1 and 500")
			return
		}
		limit = n
	}

	recs, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		s.logger.Error("failed to list complaints", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to list complaints")
		return
	}
	total, err := s.store.Count(r.Context())
	if err != nil {
		s.logger.Error("failed to count complaints", "error", err)
		s.writeError(w, http.StatusInternalServerError, "failed to count complaints")
		return
	}

	resp := ComplaintListResponse{
		Total:      total,
		Complaints: make([]ComplaintData, 0, len(recs)),
	}
	for _, rec := range recs {
		resp.Complaints = append(resp.Complaints, ComplaintData{
			ID:       rec.ID,
			At:       rec.At,
			Reporter: rec.Reporter,
			Text:     rec.Text,
			Channel:  rec.Channel,
			Command:  rec.Command,
		})
	}

	respondJSON(w, http.StatusOK, resp)
}

// respondJSON is a helper to write JSON responses
func respondJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response
func (s *Server) writeError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{Error: message})
}
