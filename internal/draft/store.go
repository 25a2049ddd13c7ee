package draft

import (
	"errors"
	"sync"
	"time"
)

// Store is the single source of truth for one expense draft. All mutation
// goes through its methods; each method applies a single merge under the
// store lock so interleaved pipeline completions cannot corrupt another
// receipt's fields.
type Store struct {
	mu sync.Mutex

	receipts   []Receipt
	assignment Assignment
	profile    Profile
	summary    string
	selectedID string

	phase           Phase
	submissionError string
	expenseID       string

	subscribers []chan struct{}
}

// NewStore creates an empty draft in the draft phase.
func NewStore() *Store {
	return &Store{phase: PhaseDraft}
}

// Subscribe returns a channel that receives a coalesced signal after every
// mutation. Intended for waiters that re-read derived state on wakeup.
func (s *Store) Subscribe() <-chan struct{} {
	ch := make(chan struct{}, 1)
	s.mu.Lock()
	s.subscribers = append(s.subscribers, ch)
	s.mu.Unlock()
	return ch
}

// notifyLocked signals subscribers; callers must hold s.mu.
func (s *Store) notifyLocked() {
	for _, ch := range s.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// AddReceipt appends a receipt to the draft.
func (s *Store) AddReceipt(receipt Receipt) {
	now := time.Now()
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = append(s.receipts, receipt)
	s.notifyLocked()
}

// InsertReceiptAfter inserts a receipt immediately following the receipt
// with the anchor id. If the anchor is not found the receipt is appended.
func (s *Store) InsertReceiptAfter(anchorID string, receipt Receipt) {
	now := time.Now()
	receipt.CreatedAt = now
	receipt.UpdatedAt = now

	s.mu.Lock()
	defer s.mu.Unlock()
	idx := -1
	for i := range s.receipts {
		if s.receipts[i].ID == anchorID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.receipts = append(s.receipts, receipt)
	} else {
		s.receipts = append(s.receipts, Receipt{})
		copy(s.receipts[idx+2:], s.receipts[idx+1:])
		s.receipts[idx+1] = receipt
	}
	s.notifyLocked()
}

// UpdateReceipt applies a mutation to the receipt with the given id. The
// mutation runs under the store lock as a single merge. Updating a missing
// id is a no-op; the return value reports whether the receipt was found.
func (s *Store) UpdateReceipt(id string, mutate func(*Receipt)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.receipts {
		if s.receipts[i].ID == id {
			mutate(&s.receipts[i])
			s.receipts[i].UpdatedAt = time.Now()
			s.notifyLocked()
			return true
		}
	}
	return false
}

// RemoveReceipt removes the receipt with the given id and any statement
// child attached to it. Removing the selected receipt clears the selection.
func (s *Store) RemoveReceipt(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.receipts[:0]
	found := false
	for _, r := range s.receipts {
		if r.ID == id || r.ParentID == id {
			if r.ID == id {
				found = true
			}
			if s.selectedID == r.ID {
				s.selectedID = ""
			}
			continue
		}
		kept = append(kept, r)
	}
	s.receipts = kept
	if found {
		s.notifyLocked()
	}
	return found
}

// Receipt returns a copy of the receipt with the given id.
func (s *Store) Receipt(id string) (Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.receipts {
		if s.receipts[i].ID == id {
			return s.receipts[i], true
		}
	}
	return Receipt{}, false
}

// Receipts returns a copy of the receipt sequence in insertion order.
func (s *Store) Receipts() []Receipt {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]Receipt, len(s.receipts))
	copy(cp, s.receipts)
	return cp
}

// Select marks a receipt as selected for editing in the consuming surface.
func (s *Store) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.receipts {
		if s.receipts[i].ID == id {
			s.selectedID = id
			s.notifyLocked()
			return true
		}
	}
	return false
}

// ClearSelection drops the current selection.
func (s *Store) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = ""
	s.notifyLocked()
}

// SelectedID returns the currently selected receipt id, if any.
func (s *Store) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedID
}

// SetAssignment replaces the campus/department tuple atomically.
func (s *Store) SetAssignment(assignment Assignment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignment = assignment
	s.notifyLocked()
}

// Assignment returns the current campus/department tuple.
func (s *Store) Assignment() Assignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.assignment
}

// SetProfile records the submitter snapshot.
func (s *Store) SetProfile(profile Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = profile
	s.notifyLocked()
}

// Profile returns the submitter snapshot.
func (s *Store) Profile() Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// SetSummary replaces the draft description.
func (s *Store) SetSummary(summary string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = summary
	s.notifyLocked()
}

// Summary returns the draft description.
func (s *Store) Summary() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Phase returns the submission phase.
func (s *Store) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// SubmissionError returns the error from the last submission attempt.
func (s *Store) SubmissionError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submissionError
}

// ExpenseID returns the backend id of the created expense, if any.
func (s *Store) ExpenseID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expenseID
}

// ErrNotReady is returned when submission is attempted before the readiness
// gate holds.
var ErrNotReady = errors.New("draft is not ready to submit")

// ErrAlreadySubmitting is returned when a submission is already in flight
// or the draft has completed.
var ErrAlreadySubmitting = errors.New("submission already in progress")

// BeginSubmission transitions draft -> submitting after re-checking the
// readiness gate under the lock. A refused submission leaves the phase and
// the draft untouched.
func (s *Store) BeginSubmission() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.phase != PhaseDraft {
		return ErrAlreadySubmitting
	}
	if !s.isReadyToSubmitLocked() {
		return ErrNotReady
	}
	s.phase = PhaseSubmitting
	s.submissionError = ""
	s.notifyLocked()
	return nil
}

// CompleteSubmission transitions submitting -> complete and records the
// created expense id.
func (s *Store) CompleteSubmission(expenseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseComplete
	s.expenseID = expenseID
	s.notifyLocked()
}

// FailSubmission reverts submitting -> draft and records the failure. The
// receipt set is preserved so a retry does not re-upload.
func (s *Store) FailSubmission(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.phase = PhaseDraft
	s.submissionError = message
	s.notifyLocked()
}

// Reset discards the draft and returns the store to its initial state.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receipts = nil
	s.assignment = Assignment{}
	s.summary = ""
	s.selectedID = ""
	s.phase = PhaseDraft
	s.submissionError = ""
	s.expenseID = ""
	s.notifyLocked()
}
