package library

// Handoff carries a freshly imported book from the platform file-open event
// to whichever screen consumes it. It replaces a module-level mutable slot
// with an explicit single-slot channel: set once, consumed once, clearable.
type Handoff struct {
	ch chan *BookRecord
}

// NewHandoff returns an empty handoff slot.
func NewHandoff() *Handoff {
	return &Handoff{ch: make(chan *BookRecord, 1)}
}

// Offer places a book in the slot. It reports false when a previous book is
// still waiting; the caller decides whether to drop or retry.
func (h *Handoff) Offer(book *BookRecord) bool {
	select {
	case h.ch <- book:
		return true
	default:
		return false
	}
}

// Take removes and returns the pending book, or nil when the slot is empty.
func (h *Handoff) Take() *BookRecord {
	select {
	case b := <-h.ch:
		return b
	default:
		return nil
	}
}

// Clear discards any pending book.
func (h *Handoff) Clear() {
	h.Take()
}
