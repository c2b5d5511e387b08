package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"lms/database"
	"lms/models"
)

// Object types the resynchronizer knows how to rebuild.
const (
	ObjectTypeEnrollment = "enrollment"
	ObjectTypeBatch      = "batch"
)

// FailureNotifier is told about scans that died. Delivery is outside the
// core; implementations must not block for long.
type FailureNotifier interface {
	NotifyScanFailure(objectType, scanID string, cause error)
}

// syncTarget binds an object type to its ledger table, index, scoping column
// and document-id derivation.
type syncTarget struct {
	table        string
	indexName    string
	partitionKey string
	docID        func(database.Record) string
}

var syncTargets = map[string]syncTarget{
	ObjectTypeEnrollment: {
		table:        models.TableUserEnrollment,
		indexName:    models.IndexUserCourses,
		partitionKey: models.ColBatchID,
		docID: func(rec database.Record) string {
			batchID, _ := rec[models.ColBatchID].(string)
			userID, _ := rec[models.ColUserID].(string)
			return EnrollmentDocID(batchID, userID)
		},
	},
	ObjectTypeBatch: {
		table:        models.TableCourseBatch,
		indexName:    models.IndexCourseBatch,
		partitionKey: models.ColCourseID,
		docID: func(rec database.Record) string {
			batchID, _ := rec[models.ColBatchID].(string)
			return batchID
		},
	},
}

// Resynchronizer rebuilds index documents from ledger rows. Sync calls return
// before any row is processed; each scan runs in its own goroutine and fails
// independently of the others. Re-running a scan is always safe because
// document ids are re-derived from the rows themselves.
type Resynchronizer struct {
	ledger    database.LedgerStore
	index     database.IndexStore
	chunkSize int
	pageSize  int
	notifier  FailureNotifier

	wg sync.WaitGroup
}

// NewResynchronizer builds a resynchronizer flushing bulk-index chunks of
// chunkSize documents (default 100) from ledger pages of pageSize rows.
// notifier may be nil.
func NewResynchronizer(ledger database.LedgerStore, index database.IndexStore, chunkSize, pageSize int, notifier FailureNotifier) *Resynchronizer {
	if chunkSize <= 0 {
		chunkSize = 100
	}
	if pageSize <= 0 {
		pageSize = chunkSize
	}
	return &Resynchronizer{
		ledger:    ledger,
		index:     index,
		chunkSize: chunkSize,
		pageSize:  pageSize,
		notifier:  notifier,
	}
}

// Sync re-indexes ledger rows of the given object type. With no objectIDs the
// whole table is scanned; otherwise the ids scope the scan by the type's
// partition column (batchId for enrollments, courseId for batches). The call
// acknowledges immediately; callers must not expect index freshness on
// return.
func (r *Resynchronizer) Sync(objectType string, objectIDs []string) error {
	target, ok := syncTargets[objectType]
	if !ok {
		return NewValidationError(fmt.Sprintf("unknown sync object type %q", objectType))
	}

	var filters []database.Filter
	if len(objectIDs) == 0 {
		filters = []database.Filter{nil}
	} else {
		filters = []database.Filter{{target.partitionKey: objectIDs}}
	}
	r.start(objectType, target, filters)
	return nil
}

// SyncFiltered re-indexes rows matching each of the given compound filters.
// One scan runs per filter; a failing scan does not cancel the others.
func (r *Resynchronizer) SyncFiltered(objectType string, filters []map[string]interface{}) error {
	target, ok := syncTargets[objectType]
	if !ok {
		return NewValidationError(fmt.Sprintf("unknown sync object type %q", objectType))
	}
	if len(filters) == 0 {
		r.start(objectType, target, []database.Filter{nil})
		return nil
	}
	scans := make([]database.Filter, 0, len(filters))
	for _, f := range filters {
		scans = append(scans, database.Filter(f))
	}
	r.start(objectType, target, scans)
	return nil
}

// Wait blocks until every in-flight scan has finished. Used by shutdown and
// by tests; request paths never call it.
func (r *Resynchronizer) Wait() {
	r.wg.Wait()
}

func (r *Resynchronizer) start(objectType string, target syncTarget, filters []database.Filter) {
	for _, filter := range filters {
		scanID := uuid.NewString()
		r.wg.Add(1)
		go r.runScan(context.Background(), objectType, target, filter, scanID)
	}
}

// runScan consumes one paged ledger scan, re-derives document ids and writes
// chunked bulk-index calls. Any store failure terminates this scan only.
func (r *Resynchronizer) runScan(ctx context.Context, objectType string, target syncTarget, filter database.Filter, scanID string) {
	defer r.wg.Done()
	log.Printf("[RESYNC] scan %s started: type=%s filter=%v", scanID, objectType, filter)

	buffer := make([]database.Document, 0, r.chunkSize)
	total := 0

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		if err := r.index.BulkInsert(ctx, target.indexName, buffer); err != nil {
			return err
		}
		total += len(buffer)
		buffer = buffer[:0]
		return nil
	}

	for page := range r.ledger.ScanPages(ctx, target.table, filter, r.pageSize) {
		if page.Err != nil {
			r.failScan(objectType, scanID, fmt.Errorf("ledger scan failed: %w", page.Err))
			return
		}
		for _, row := range page.Rows {
			buffer = append(buffer, database.Document{
				ID:     target.docID(row),
				Source: indexDocument(row),
			})
			if len(buffer) >= r.chunkSize {
				if err := flush(); err != nil {
					r.failScan(objectType, scanID, fmt.Errorf("bulk index failed: %w", err))
					return
				}
			}
		}
		// Remainder of the page goes out before the next page is read.
		if err := flush(); err != nil {
			r.failScan(objectType, scanID, fmt.Errorf("bulk index failed: %w", err))
			return
		}
	}
	log.Printf("[RESYNC] scan %s completed: %d documents indexed", scanID, total)
}

func (r *Resynchronizer) failScan(objectType, scanID string, cause error) {
	log.Printf("[RESYNC] scan %s failed: %v", scanID, cause)
	if r.notifier != nil {
		r.notifier.NotifyScanFailure(objectType, scanID, cause)
	}
}

// indexDocument maps one ledger row to an index document. Structured column
// values are re-serialized to JSON strings; the index does not accept nested
// values for those fields.
func indexDocument(rec database.Record) database.Record {
	doc := make(database.Record, len(rec))
	for col, val := range rec {
		switch v := val.(type) {
		case map[string]interface{}, []interface{}, []string, database.Record:
			encoded, err := json.Marshal(v)
			if err != nil {
				doc[col] = v
				continue
			}
			doc[col] = string(encoded)
		default:
			doc[col] = val
		}
	}
	return doc
}
