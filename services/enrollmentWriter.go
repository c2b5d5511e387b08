package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"lms/database"
	"lms/models"
)

// EnrollmentWriter turns cohorts of user ids into enrollment rows, writes
// them to the ledger in bounded batches and mirrors successful writes into
// the index. The ledger is authoritative; index mirroring is best effort and
// repaired by resync.
type EnrollmentWriter struct {
	ledger    database.LedgerStore
	index     database.IndexStore
	batchSize int
}

// NewEnrollmentWriter builds a writer flushing ledger batches of batchSize
// records (defaults to 10 when non-positive).
func NewEnrollmentWriter(ledger database.LedgerStore, index database.IndexStore, batchSize int) *EnrollmentWriter {
	if batchSize <= 0 {
		batchSize = 10
	}
	return &EnrollmentWriter{ledger: ledger, index: index, batchSize: batchSize}
}

// Enroll writes one enrollment per user id. An empty cohort is a no-op.
// Duplicate user ids are not deduplicated here; deterministic keys make the
// resulting writes collapse in both stores.
func (w *EnrollmentWriter) Enroll(ctx context.Context, batchID, courseID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	enrolledAt := time.Now()
	buffer := make([]database.Record, 0, w.batchSize)

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		written, err := w.performBatchInsert(ctx, buffer)
		if err != nil {
			return err
		}
		// Ledger writes for this buffer are done; only now touch the index.
		w.mirrorToIndex(ctx, written)
		buffer = buffer[:0]
		return nil
	}

	for _, userID := range userIDs {
		enrollment := models.Enrollment{
			UserID:       userID,
			CourseID:     courseID,
			BatchID:      batchID,
			EnrolledDate: enrolledAt,
			Active:       true,
			Status:       models.StatusNotStarted,
		}
		buffer = append(buffer, enrollment.Record())
		if len(buffer) >= w.batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	return flush()
}

// performBatchInsert tries the all-or-nothing batch call first. When the
// batch fails it retries the same records one by one, skipping any record
// whose individual insert also fails, so one bad record never blocks the
// rest of the cohort. It returns an error only when nothing was written.
func (w *EnrollmentWriter) performBatchInsert(ctx context.Context, recs []database.Record) ([]database.Record, error) {
	err := w.ledger.BatchInsert(ctx, models.TableUserEnrollment, recs)
	if err == nil {
		return recs, nil
	}
	log.Printf("[ENROLL] batch insert of %d records failed, falling back to per-record writes: %v", len(recs), err)

	written := make([]database.Record, 0, len(recs))
	lastErr := err
	for _, rec := range recs {
		if insErr := w.ledger.Insert(ctx, models.TableUserEnrollment, rec); insErr != nil {
			log.Printf("[ENROLL] insert failed for user %v in batch %v: %v",
				rec[models.ColUserID], rec[models.ColBatchID], insErr)
			lastErr = insErr
			continue
		}
		written = append(written, rec)
	}
	if len(written) == 0 {
		return nil, fmt.Errorf("enrollment write failed for all %d records: %w", len(recs), lastErr)
	}
	return written, nil
}

// mirrorToIndex upserts the given ledger records into the index. Failures
// are logged and swallowed: the ledger write already succeeded and a later
// resync pass repairs the index.
func (w *EnrollmentWriter) mirrorToIndex(ctx context.Context, recs []database.Record) {
	for _, rec := range recs {
		batchID, _ := rec[models.ColBatchID].(string)
		userID, _ := rec[models.ColUserID].(string)
		docID := EnrollmentDocID(batchID, userID)
		if err := w.index.Upsert(ctx, models.IndexUserCourses, docID, rec); err != nil {
			log.Printf("[ENROLL] index mirror failed for doc %s: %v", docID, err)
		}
	}
}

// Unenroll logically deletes one enrollment by setting active=false. The
// enrollment must exist, be active and not be completed.
func (w *EnrollmentWriter) Unenroll(ctx context.Context, batchID, courseID, userID string) error {
	key := models.EnrollmentKey(userID, courseID, batchID)
	rec, err := w.ledger.GetByKey(ctx, models.TableUserEnrollment, key)
	if errors.Is(err, database.ErrRecordNotFound) {
		return NewValidationError("user is not enrolled in this batch")
	}
	if err != nil {
		return fmt.Errorf("unenroll lookup failed: %w", err)
	}

	enrollment := models.EnrollmentFromRecord(rec)
	if !enrollment.Active {
		return NewValidationError("user is not enrolled in this batch")
	}
	if enrollment.Status == models.StatusCompleted {
		return NewValidationError("a completed enrollment cannot be removed")
	}

	attrs := database.Record{models.ColActive: false}
	if err := w.ledger.Update(ctx, models.TableUserEnrollment, key, attrs); err != nil {
		return fmt.Errorf("unenroll update failed: %w", err)
	}

	docID := EnrollmentDocID(batchID, userID)
	if err := w.index.Update(ctx, models.IndexUserCourses, docID, attrs); err != nil {
		log.Printf("[ENROLL] index mirror failed for unenroll of doc %s: %v", docID, err)
	}
	return nil
}
