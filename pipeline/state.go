package pipeline

import "sync"

// OpState holds the observable flags of one operation scope: a loading
// flag, the normalized error, the validation field-error map, and an
// optional success message. It is mutated only by the pipeline's phase
// handlers and read by the UI layer.
type OpState struct {
	mu          sync.Mutex
	loading     bool
	errMsg      string
	fieldErrors map[string][]string
	successMsg  string
}

// begin enters the requested phase: loading on, prior settle cleared.
func (s *OpState) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = true
	s.errMsg = ""
	s.fieldErrors = nil
	s.successMsg = ""
}

// settleOK enters the settled-ok phase.
func (s *OpState) settleOK(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.successMsg = msg
}

// settleErr enters the settled-error phase.
func (s *OpState) settleErr(msg string, fields map[string][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.errMsg = msg
	s.fieldErrors = fields
}

// Loading reports whether the operation is in flight.
func (s *OpState) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Err returns the normalized error message of the last settle, or "".
func (s *OpState) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

// FieldErrors returns the validation field-error map of the last settle.
func (s *OpState) FieldErrors() map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fieldErrors == nil {
		return nil
	}
	out := make(map[string][]string, len(s.fieldErrors))
	for k, v := range s.fieldErrors {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// SuccessMessage returns the success message of the last settle, or "".
func (s *OpState) SuccessMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.successMsg
}

// Clear dismisses any settled error or success message without touching
// the loading flag. The next requested phase clears them implicitly.
func (s *OpState) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
	s.fieldErrors = nil
	s.successMsg = ""
}

// BusyTracker marks individual items busy during batch and approval
// actions so that concurrent actions on different items don't block each
// other, while a second action on the same item is refused until the
// first settles.
type BusyTracker struct {
	mu   sync.Mutex
	busy map[string]struct{}
}

// NewBusyTracker returns an empty tracker.
func NewBusyTracker() *BusyTracker {
	return &BusyTracker{busy: make(map[string]struct{})}
}

// Begin marks the item busy. Returns false if an action for the item is
// already in flight.
func (t *BusyTracker) Begin(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, inFlight := t.busy[itemID]; inFlight {
		return false
	}
	t.busy[itemID] = struct{}{}
	return true
}

// End clears the busy marker for the item.
func (t *BusyTracker) End(itemID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.busy, itemID)
}

// Busy reports whether an action for the item is in flight.
func (t *BusyTracker) Busy(itemID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, inFlight := t.busy[itemID]
	return inFlight
}
