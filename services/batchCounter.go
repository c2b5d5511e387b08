package services

import (
	"context"
	"fmt"
	"log"

	"lms/database"
	"lms/models"
)

// CapacityStore is the external system tracking batch member capacity. It is
// updated first; the index and ledger mirror its counters.
type CapacityStore interface {
	GetCounter(ctx context.Context, entityID, counterName string) (int, error)
	SetCounter(ctx context.Context, entityID, counterName string, value int) error
}

// BatchCounterUpdater owns the ordered three-way counter update: capacity
// system, then index, then ledger. Each step gates the next; completed steps
// are never rolled back. A stale ledger after a late-step failure is repaired
// by the next resync pass.
type BatchCounterUpdater struct {
	capacity CapacityStore
	ledger   database.LedgerStore
	index    database.IndexStore
}

// NewBatchCounterUpdater wires the three stores the update walks in order.
func NewBatchCounterUpdater(capacity CapacityStore, ledger database.LedgerStore, index database.IndexStore) *BatchCounterUpdater {
	return &BatchCounterUpdater{capacity: capacity, ledger: ledger, index: index}
}

// counterNameFor maps an enrollment type to its capacity counter.
func counterNameFor(enrollmentType string) (string, error) {
	switch enrollmentType {
	case models.EnrollmentTypeOpen:
		return models.CounterOpenMembers, nil
	case models.EnrollmentTypeInviteOnly:
		return models.CounterPrivateMembers, nil
	default:
		return "", NewValidationError(fmt.Sprintf("unknown enrollment type %q", enrollmentType))
	}
}

// UpdateBatchCount adjusts the member counter for a batch by one. The counter
// never goes below zero; decrementing zero stays at zero.
func (u *BatchCounterUpdater) UpdateBatchCount(ctx context.Context, batchID, courseID, enrollmentType string, increment bool) error {
	counterName, err := counterNameFor(enrollmentType)
	if err != nil {
		return err
	}

	// Step 1: the external capacity system. Failure aborts everything.
	current, err := u.capacity.GetCounter(ctx, batchID, counterName)
	if err != nil {
		return fmt.Errorf("capacity read failed for batch %s: %w", batchID, err)
	}
	updated := current + 1
	if !increment {
		updated = current - 1
		if updated < 0 {
			updated = 0
		}
	}
	if err := u.capacity.SetCounter(ctx, batchID, counterName, updated); err != nil {
		return fmt.Errorf("capacity update failed for batch %s: %w", batchID, err)
	}

	attrs := database.Record{
		models.ColCourseID: courseID,
		counterName:        updated,
	}

	// Step 2: the index. Failure skips the ledger; the capacity system has
	// already taken the new value.
	if err := u.index.Update(ctx, models.IndexCourseBatch, batchID, attrs); err != nil {
		return fmt.Errorf("index counter update failed for batch %s: %w", batchID, err)
	}

	// Step 3: the ledger. The batch stays inconsistent until the next
	// resync if this fails.
	if err := u.ledger.Update(ctx, models.TableCourseBatch, models.BatchKey(batchID), attrs); err != nil {
		log.Printf("[BATCH-COUNT] ledger counter update failed for batch %s, ledger is stale until resync: %v", batchID, err)
		return fmt.Errorf("ledger counter update failed for batch %s: %w", batchID, err)
	}
	return nil
}
