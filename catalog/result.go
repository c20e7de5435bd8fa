package catalog

// Status is the engine's lifecycle state.
type Status int

const (
	// StatusIdle means no fetch has been triggered yet.
	StatusIdle Status = iota
	// StatusLoading means a fetch is in flight. The previous result, if
	// any, stays visible.
	StatusLoading
	// StatusReady means the current result matches the current query.
	StatusReady
	// StatusError means the last fetch failed. The result is cleared so
	// a stale page is never shown against an error banner.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Result is one fetched page.
type Result struct {
	Page     int    `json:"page"`
	PageSize int    `json:"pageSize"`
	Total    int    `json:"total"`
	Items    []Item `json:"data"`
}

// TotalPages derives the page count from the total. Never below 1, so
// an empty collection still has a valid current page.
func (r *Result) TotalPages() int {
	if r == nil || r.PageSize <= 0 || r.Total <= 0 {
		return 1
	}
	pages := (r.Total + r.PageSize - 1) / r.PageSize
	if pages < 1 {
		pages = 1
	}
	return pages
}

// Snapshot is an immutable view of the engine at one instant.
type Snapshot struct {
	Status   Status
	Filters  map[string]string
	Page     int
	PageSize int
	SortBy   string
	SortDir  string

	// Result is the last successful page, or nil when idle, errored, or
	// loading before the first success.
	Result *Result
	// Err is set only when Status is StatusError.
	Err error
}

// TotalPages is the page count of the snapshot's result, or 1 when no
// result is present.
func (s Snapshot) TotalPages() int {
	return s.Result.TotalPages()
}
