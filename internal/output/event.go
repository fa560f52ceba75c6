package output

import (
	"time"

	"fedsearch/internal/repository"
)

// Event types.
const (
	EventSearchStarted  = "search.started"
	EventObject         = "object"
	EventSearchFinished = "search.finished"
	EventSearchFailed   = "search.failed"
)

// Event is a lifecycle record for NDJSON streaming output.
//
// In NDJSON mode, sinks emit Events (one JSON object per line):
// - search.started
// - object (one per result object)
// - search.finished or search.failed
//
// JSON mode folds the same events into one document per search.
type Event struct {
	Type   string `json:"type"`
	Search string `json:"search,omitempty"`
	RunID  string `json:"run_id,omitempty"`
	*repository.Object
	Domains    []repository.Domain `json:"domains,omitempty"`
	Objects    int                 `json:"objects,omitempty"`
	Error      string              `json:"error,omitempty"`
	ExitCode   int                 `json:"exit_code,omitempty"`
	DurationMS int64               `json:"duration_ms,omitempty"`

	// DomainCounts is filled in by the Manager on search.finished.
	DomainCounts []DomainCount `json:"domain_counts,omitempty"`
	// View is a search specific rendering of the objects.
	View any `json:"view,omitempty"`
}

// DomainCount is the number of objects one domain contributed.
type DomainCount struct {
	Domain  repository.Domain `json:"domain"`
	Objects int               `json:"objects"`
}

func eventFromObject(o repository.Object) Event {
	return Event{Type: EventObject, Object: &o}
}

// DurationMillis converts d for Event.DurationMS.
func DurationMillis(d time.Duration) int64 {
	return d.Milliseconds()
}
