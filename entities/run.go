package entities

import "time"

// SourceSummary describes how one reference source fared during a run.
type SourceSummary struct {
	Origin   Origin `json:"origin"`
	URL      string `json:"url,omitempty"`
	Updated  string `json:"updated"`
	Cached   bool   `json:"cached"`
	Tables   int    `json:"tables"`
	Accepted int    `json:"accepted_tables"`
	Rows     int    `json:"rows"`
	Matches  int    `json:"matches"`
	Failure  string `json:"failure,omitempty"`
}

// RunResult is the outcome of one screening run.
type RunResult struct {
	ID            string          `json:"id"`
	StartedAt     time.Time       `json:"started_at"`
	FinishedAt    time.Time       `json:"finished_at"`
	Products      int             `json:"products"`
	HistoryLoaded bool            `json:"history_loaded"`
	NewRecords    int             `json:"new_records"`
	Records       []MatchRecord   `json:"records"`
	Sources       []SourceSummary `json:"sources"`
	Diagnostics   []string        `json:"diagnostics"`
	FDARaw        RawTable        `json:"-"`
	EMARaw        RawTable        `json:"-"`
}

// Failed reports whether any source failed.
func (r *RunResult) Failed() bool {
	for _, s := range r.Sources {
		if s.Failure != "" {
			return true
		}
	}
	return false
}

// AppState is the per-session state the screening runs work from.
type AppState struct {
	Products      []ProductEntry `json:"products"`
	ProductOrigin string         `json:"product_origin,omitempty"`
	ProductsAt    time.Time      `json:"products_loaded_at"`
	History       []MatchRecord  `json:"-"`
	HistoryLoaded bool           `json:"history_loaded"`
	LastRun       *RunResult     `json:"-"`
}
