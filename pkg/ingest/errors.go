package ingest

import "errors"

// Failure kinds. Every error returned by Runner.Run wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	// ErrSourceNotFound means the source id is unknown; nothing was
	// persisted.
	ErrSourceNotFound = errors.New("source not found")

	// ErrOrigin means the message origin could not be reached or the
	// session handshake failed; the checkpoint is unchanged and the run
	// is safe to retry.
	ErrOrigin = errors.New("origin unavailable")

	// ErrEmbedding means the embedding call failed; the batch is aborted
	// with the checkpoint unchanged. Documents inserted earlier in the
	// batch remain, and the duplicate check makes the retried run skip
	// them.
	ErrEmbedding = errors.New("embedding failed")

	// ErrStore means a persistence operation failed; same retry
	// semantics as ErrEmbedding.
	ErrStore = errors.New("store failure")
)
