package audit

import "time"

// TimelineFilters holds the filters for the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	ActorID  int64
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one row of the audit timeline.
type TimelineRow struct {
	At         time.Time
	ActorID    int64
	ActorEmail string
	Action     string
	Entity     string
	EntityID   string
	Meta       map[string]any
}

// PagingInfo carries simple pagination metadata.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// Result wraps timeline rows with paging information.
type Result struct {
	Rows   []TimelineRow
	Paging PagingInfo
}
