package events

import "time"

// ResolveStart is emitted when an executor begins its single resolve pass.
type ResolveStart struct {
	Endpoint string
	Queries  int
}

// ResolveFinish is emitted after a resolve pass. Err is nil when every query
// succeeded and the results were committed.
type ResolveFinish struct {
	Endpoint string
	Queries  int
	Err      error
	Duration time.Duration
}

// QueryStart is emitted before a registered query is executed.
type QueryStart struct {
	Name string
	Kind string
}

// QueryFinish is emitted after a registered query executed or failed.
// Fallback reports that the query name was not a top-level response field and
// the whole data object became the result.
type QueryFinish struct {
	Name     string
	Kind     string
	Fallback bool
	Err      error
	Duration time.Duration
}
