package index

import "sync/atomic"

// Holder publishes the current artifact to concurrent readers. Readers take
// a snapshot with Load and keep using it for the whole request; a reload
// swaps in a new artifact without touching snapshots already handed out.
type Holder struct {
	current atomic.Pointer[Artifact]
}

// NewHolder returns a Holder serving a, which may be nil until the first build.
func NewHolder(a *Artifact) *Holder {
	h := &Holder{}
	if a != nil {
		h.current.Store(a)
	}
	return h
}

// Load returns the current artifact, or nil if none has been stored.
func (h *Holder) Load() *Artifact {
	return h.current.Load()
}

// Store replaces the current artifact.
func (h *Holder) Store(a *Artifact) {
	h.current.Store(a)
}
