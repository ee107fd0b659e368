package ingest

// Outcome is the per-item result of a run.
type Outcome string

const (
	OutcomeInserted Outcome = "inserted"
	OutcomeSkipped  Outcome = "skipped" // exact duplicate already persisted
	OutcomeFailed   Outcome = "failed"
)

// ItemResult records what happened to one fetched item, in processing
// order (oldest first).
type ItemResult struct {
	ItemID  int64   `json:"item_id"`
	Outcome Outcome `json:"outcome"`
	Err     error   `json:"-"`
}

// RunReport summarizes one run of the pipeline for one source.
type RunReport struct {
	SourceID   string       `json:"source_id"`
	Fetched    int          `json:"fetched"`
	Inserted   int          `json:"inserted"`
	Skipped    int          `json:"skipped"`
	Checkpoint int64        `json:"checkpoint,omitempty"` // set only after a successful advance
	Results    []ItemResult `json:"results,omitempty"`
}

func (r *RunReport) record(id int64, outcome Outcome, err error) {
	r.Results = append(r.Results, ItemResult{ItemID: id, Outcome: outcome, Err: err})
	switch outcome {
	case OutcomeInserted:
		r.Inserted++
	case OutcomeSkipped:
		r.Skipped++
	}
}
