package document

import "errors"

// Rendering-infrastructure faults. The HTTP layer surfaces these as generic
// 500s after the one-retry policy; backend internals never reach callers.
var (
	// ErrRenderTimeout means the rendering backend missed the deadline.
	// The lease involved is discarded, never reused.
	ErrRenderTimeout = errors.New("document render timed out")

	// ErrRenderBackendUnavailable means a headless browser could not be
	// started or acquired.
	ErrRenderBackendUnavailable = errors.New("render backend unavailable")

	// ErrSnapshotStale means the order disappeared between lookup and
	// snapshot persistence; the generated bytes are discarded.
	ErrSnapshotStale = errors.New("order deleted while generating document")
)
