package models

// SyncRequest is the "request sync" message. An empty Identifier means the
// handle is resolved by the daemon.
type SyncRequest struct {
	Identifier string `json:"identifier,omitempty"`
}

type SyncResponse struct {
	Success         bool            `json:"success"`
	Problems        []SolvedProblem `json:"problems"`
	LatestTimestamp int64           `json:"latestTimestamp"`
	Error           string          `json:"error,omitempty"`
}

type SyncFailure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// SyncOutcome describes what an orchestrator run ended up doing.
type SyncOutcome string

const (
	OutcomeRefreshed SyncOutcome = "refreshed"
	OutcomeApplied   SyncOutcome = "applied"
	OutcomeSkipped   SyncOutcome = "skipped"
	OutcomeFailed    SyncOutcome = "failed"
)

type SyncResult struct {
	RunID    string             `json:"runId"`
	Outcome  SyncOutcome        `json:"outcome"`
	Snapshot *FreshnessSnapshot `json:"snapshot,omitempty"`
}

type NavigateRequest struct {
	URL string `json:"url"`
}

type PageRequest struct {
	URL  string `json:"url"`
	HTML string `json:"html"`
}

type PageResponse struct {
	ID string `json:"id"`
}
