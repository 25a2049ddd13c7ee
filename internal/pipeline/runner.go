package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"kvitt/internal/draft"
)

// Runner tracks in-flight ingestion tasks so removal can cancel them.
// Every task runs under a per-receipt cancel function; removing a receipt
// stops its task at the next suspension point instead of wasting the
// network round trip.
type Runner struct {
	pipeline *Pipeline
	store    *draft.Store

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
	wg      sync.WaitGroup
}

// NewRunner constructs a runner over the given pipeline and store.
func NewRunner(p *Pipeline, store *draft.Store) *Runner {
	return &Runner{
		pipeline: p,
		store:    store,
		cancels:  make(map[string]context.CancelFunc),
	}
}

// Ingest creates one receipt per file and starts an independent ingestion
// task for each. Receipts appear in the store in drop order immediately;
// tasks complete in arbitrary order. The returned ids follow the input
// order.
func (r *Runner) Ingest(ctx context.Context, files ...LocalFile) []string {
	ids := make([]string, 0, len(files))
	for _, file := range files {
		id := uuid.NewString()
		ids = append(ids, id)
		r.store.AddReceipt(NewReceipt(id, file))
		r.spawn(ctx, id, func(taskCtx context.Context) error {
			return r.pipeline.Run(taskCtx, id, file)
		})
	}
	return ids
}

// AttachStatement uploads a bank statement as a child receipt inserted
// immediately after its parent. The parent must be a foreign-currency
// receipt that is no longer in flight.
func (r *Runner) AttachStatement(ctx context.Context, parentID string, file LocalFile) (string, error) {
	parent, ok := r.store.Receipt(parentID)
	if !ok {
		return "", errors.New("parent receipt not found")
	}
	if parent.IsInFlight() {
		return "", errors.New("parent receipt is still being ingested")
	}
	if parent.IsStatement() {
		return "", errors.New("cannot attach a statement to a statement")
	}
	if r.store.HasStatement(parentID) {
		return "", errors.New("parent already has a statement attached")
	}

	id := uuid.NewString()
	child := NewReceipt(id, file)
	child.ParentID = parentID
	r.store.InsertReceiptAfter(parentID, child)
	r.spawn(ctx, id, func(taskCtx context.Context) error {
		return r.pipeline.RunStatement(taskCtx, id, parentID, file)
	})
	return id, nil
}

// Remove cancels any in-flight task for the receipt and removes it from
// the store. A task that already passed its last suspension point settles
// harmlessly: updates to a missing id are no-ops.
func (r *Runner) Remove(id string) bool {
	r.mu.Lock()
	if cancel, ok := r.cancels[id]; ok {
		cancel()
		delete(r.cancels, id)
	}
	r.mu.Unlock()
	return r.store.RemoveReceipt(id)
}

// Wait blocks until every started task has settled.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) spawn(ctx context.Context, id string, task func(context.Context) error) {
	taskCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.cancels[id] = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			if existing, ok := r.cancels[id]; ok {
				existing()
				delete(r.cancels, id)
			}
			r.mu.Unlock()
		}()
		_ = task(taskCtx)
	}()
}
