package draft

import "github.com/shopspring/decimal"

// Derived queries are computed fresh against the current snapshot on every
// call, never cached, so a reader can never observe a stale intermediate
// from a different in-flight pipeline.

// TotalAmount sums Amount across all receipts, including statement children
// (which default to zero so they never double count).
func (s *Store) TotalAmount() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for i := range s.receipts {
		total = total.Add(s.receipts[i].Amount)
	}
	return total
}

// AllReceiptsReady reports whether the draft has at least one receipt and
// every receipt has reached the ready state.
func (s *Store) AllReceiptsReady() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.allReceiptsReadyLocked()
}

func (s *Store) allReceiptsReadyLocked() bool {
	if len(s.receipts) == 0 {
		return false
	}
	for i := range s.receipts {
		if s.receipts[i].Status != StatusReady {
			return false
		}
	}
	return true
}

// IsReadyToSubmit is the single gate consulted before submission: every
// receipt ready, assignment complete, and a bank account on the profile.
func (s *Store) IsReadyToSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isReadyToSubmitLocked()
}

func (s *Store) isReadyToSubmitLocked() bool {
	return s.allReceiptsReadyLocked() &&
		s.assignment.Complete() &&
		s.profile.BankAccount != ""
}

// StatementFor returns the bank-statement child attached to the given
// receipt. The child receipt is the canonical representation of the link;
// a parent's "verified" state is derived from its presence.
func (s *Store) StatementFor(parentID string) (Receipt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.receipts {
		if s.receipts[i].ParentID == parentID {
			return s.receipts[i], true
		}
	}
	return Receipt{}, false
}

// HasStatement reports whether a statement child is attached to the receipt.
func (s *Store) HasStatement(parentID string) bool {
	_, ok := s.StatementFor(parentID)
	return ok
}

// MissingStatements returns the ids of receipts that want a corroborating
// statement but have none attached. Advisory only; it does not gate
// submission.
func (s *Store) MissingStatements() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	attached := make(map[string]struct{})
	for i := range s.receipts {
		if pid := s.receipts[i].ParentID; pid != "" {
			attached[pid] = struct{}{}
		}
	}
	var missing []string
	for i := range s.receipts {
		r := &s.receipts[i]
		if !r.StatementRequired || r.IsStatement() {
			continue
		}
		if _, ok := attached[r.ID]; !ok {
			missing = append(missing, r.ID)
		}
	}
	return missing
}
