package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/miraijuku/kanri/internal/restore"
)

// RestoreService runs one destructive restore, streaming progress to the
// reporter. Implemented by restore.Service.
type RestoreService interface {
	StartRestore(ctx context.Context, fileName string, rep restore.Reporter) (restore.Summary, error)
}

// RestoreLogReader lists past restore audit records.
type RestoreLogReader interface {
	ListRestoreLogs(ctx context.Context, limit int) ([]restore.Summary, error)
}

// Handler bundles dependencies for the restore admin endpoints.
type Handler struct {
	svc  RestoreService
	logs RestoreLogReader
	log  *slog.Logger
}

// New constructs a new Handler with its dependencies.
func New(svc RestoreService, logs RestoreLogReader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, logs: logs, log: log}
}

// Router wires the handler into a chi router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Post("/admin/backups/{fileName}/restore", h.postRestore)
	r.Get("/admin/restore-logs", h.getRestoreLogs)
	return r
}

// markingReporter notes whether anything was written, so the handler can
// still send a proper error status for failures that happen before the
// stream starts (bad slot name, concurrent restore).
type markingReporter struct {
	inner restore.Reporter
	wrote bool
}

func (m *markingReporter) Report(ev restore.Event) {
	m.wrote = true
	m.inner.Report(ev)
}

// postRestore triggers a restore and streams newline-delimited JSON
// progress events over one long-lived response. The connection closing does
// not cancel in-flight work; the run always drives itself to a terminal
// state and an audit record.
func (h *Handler) postRestore(w http.ResponseWriter, r *http.Request) {
	fileName := chi.URLParam(r, "fileName")
	h.log.Info("restore requested", "file", fileName, "remote", r.RemoteAddr)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")

	rep := &markingReporter{inner: restore.NewStreamReporter(w)}
	// Detach from the request context: an operator closing the tab must not
	// abort a half-done destructive restore.
	_, err := h.svc.StartRestore(context.WithoutCancel(r.Context()), fileName, rep)
	if err != nil && !rep.wrote {
		switch {
		case errors.Is(err, restore.ErrInvalidFileName):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, restore.ErrRestoreInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}
	// Errors mid-stream already surfaced as a terminal error event.
}

func (h *Handler) getRestoreLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	items, err := h.logs.ListRestoreLogs(r.Context(), limit)
	if err != nil {
		h.log.Error("list restore logs failed", "error", err)
		http.Error(w, "failed to list restore logs", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if items == nil {
		items = []restore.Summary{}
	}
	_ = json.NewEncoder(w).Encode(items)
}
