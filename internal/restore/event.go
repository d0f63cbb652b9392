package restore

import (
	"encoding/json"
	"io"
	"net/http"
	"sync"
)

// Phases of a restore run, in execution order.
const (
	PhaseDownload     = "download"
	PhaseSafetyBackup = "safety_backup"
	PhaseDelete       = "delete"
	PhaseInsert       = "insert"
	PhaseComplete     = "complete"
	PhaseError        = "error"
)

// Event statuses.
const (
	EvInProgress = "in_progress"
	EvComplete   = "complete"
	EvWarning    = "warning"
	EvError      = "error"
	EvPartial    = "partial"
	EvSuccess    = "success"
)

// Counts carries per-table row totals on terminal events.
type Counts struct {
	Deleted  int64 `json:"deleted,omitempty"`
	Inserted int   `json:"inserted,omitempty"`
}

// Event is one unit of the streamed status protocol. Events are emitted in
// the exact order operations occur; a stream carries exactly one terminal
// complete or error event, always last.
type Event struct {
	Phase    string   `json:"phase"`
	Table    string   `json:"table,omitempty"`
	Status   string   `json:"status"`
	Progress int      `json:"progress,omitempty"`
	Total    int      `json:"total,omitempty"`
	Counts   *Counts  `json:"counts,omitempty"`
	Errors   []string `json:"errors,omitempty"`
	Message  string   `json:"message,omitempty"`
}

// Reporter receives progress events as the run proceeds. Report must not
// block indefinitely; the engine calls it from the restore goroutine.
type Reporter interface {
	Report(ev Event)
}

// StreamReporter writes newline-delimited JSON events to w, flushing after
// each event when w supports it, so clients can render progress live.
type StreamReporter struct {
	mu  sync.Mutex
	enc *json.Encoder
	fl  http.Flusher
}

func NewStreamReporter(w io.Writer) *StreamReporter {
	r := &StreamReporter{enc: json.NewEncoder(w)}
	if fl, ok := w.(http.Flusher); ok {
		r.fl = fl
	}
	return r
}

func (r *StreamReporter) Report(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Encode appends the newline that delimits the stream. A write error
	// means the client went away; the run continues regardless, since a
	// destructive restore must not stop halfway once deletes have started.
	_ = r.enc.Encode(ev)
	if r.fl != nil {
		r.fl.Flush()
	}
}

// NopReporter discards events; used when the caller has no interest in
// incremental progress.
type NopReporter struct{}

func (NopReporter) Report(Event) {}
