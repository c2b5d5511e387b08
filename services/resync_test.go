package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lms/database"
	"lms/models"
)

func seedEnrollmentRows(ledger *fakeLedger, perBatch map[string]int) int {
	total := 0
	for batchID, n := range perBatch {
		for i := 0; i < n; i++ {
			rec := models.Enrollment{
				UserID:   fmt.Sprintf("%s-user-%03d", batchID, i),
				CourseID: "course-1",
				BatchID:  batchID,
				Active:   true,
				Status:   models.StatusNotStarted,
			}.Record()
			ledger.scanRows[models.TableUserEnrollment] = append(ledger.scanRows[models.TableUserEnrollment], rec)
			total++
		}
	}
	return total
}

func TestSyncRebuildsAllEnrollmentsInChunks(t *testing.T) {
	ledger := newFakeLedger()
	index := &fakeIndex{}
	total := seedEnrollmentRows(ledger, map[string]int{"batch-a": 90, "batch-b": 80, "batch-c": 80})
	require.Equal(t, 250, total)

	resync := NewResynchronizer(ledger, index, 100, 100, nil)
	require.NoError(t, resync.Sync(ObjectTypeEnrollment, nil))
	resync.Wait()

	// 250 rows in chunks of at most 100
	require.Len(t, index.bulkCalls, 3)
	assert.Len(t, index.bulkCalls[0].docs, 100)
	assert.Len(t, index.bulkCalls[1].docs, 100)
	assert.Len(t, index.bulkCalls[2].docs, 50)

	indexed := 0
	for _, call := range index.bulkCalls {
		assert.Equal(t, models.IndexUserCourses, call.index)
		for _, doc := range call.docs {
			// Document ids are re-derived from the row, never trusted
			batchID, _ := doc.Source[models.ColBatchID].(string)
			userID, _ := doc.Source[models.ColUserID].(string)
			assert.Equal(t, EnrollmentDocID(batchID, userID), doc.ID)
			indexed++
		}
	}
	assert.Equal(t, 250, indexed)
}

func TestSyncScopedByPartitionKey(t *testing.T) {
	ledger := newFakeLedger()
	index := &fakeIndex{}
	for i := 0; i < 15; i++ {
		courseID := "course-other"
		if i < 5 {
			courseID = "courseX"
		}
		rec := models.CourseBatch{
			BatchID:        fmt.Sprintf("batch-%02d", i),
			CourseID:       courseID,
			EnrollmentType: models.EnrollmentTypeOpen,
		}.Record()
		ledger.scanRows[models.TableCourseBatch] = append(ledger.scanRows[models.TableCourseBatch], rec)
	}

	resync := NewResynchronizer(ledger, index, 100, 100, nil)
	require.NoError(t, resync.Sync(ObjectTypeBatch, []string{"courseX"}))
	resync.Wait()

	// Only the 5 batches under courseX are re-indexed, keyed by batch id
	require.Len(t, index.bulkCalls, 1)
	require.Len(t, index.bulkCalls[0].docs, 5)
	assert.Equal(t, models.IndexCourseBatch, index.bulkCalls[0].index)
	for _, doc := range index.bulkCalls[0].docs {
		assert.Equal(t, doc.Source[models.ColBatchID], doc.ID)
		assert.Equal(t, "courseX", doc.Source[models.ColCourseID])
	}
}

func TestSyncSerializesStructuredColumns(t *testing.T) {
	ledger := newFakeLedger()
	index := &fakeIndex{}
	rec := models.Enrollment{
		UserID:  "user-1",
		BatchID: "batch-1",
		Active:  true,
	}.Record()
	rec["certificates"] = []interface{}{
		map[string]interface{}{"name": "completion", "url": "https://certs/1"},
	}
	ledger.scanRows[models.TableUserEnrollment] = append(ledger.scanRows[models.TableUserEnrollment], rec)

	resync := NewResynchronizer(ledger, index, 100, 100, nil)
	require.NoError(t, resync.Sync(ObjectTypeEnrollment, nil))
	resync.Wait()

	require.Len(t, index.bulkCalls, 1)
	doc := index.bulkCalls[0].docs[0]
	// Structured values are flattened to JSON strings for the index
	encoded, ok := doc.Source["certificates"].(string)
	require.True(t, ok)
	assert.JSONEq(t, `[{"name":"completion","url":"https://certs/1"}]`, encoded)
	// Scalar columns pass through untouched
	assert.Equal(t, true, doc.Source[models.ColActive])
}

func TestSyncRejectsUnknownObjectType(t *testing.T) {
	resync := NewResynchronizer(newFakeLedger(), &fakeIndex{}, 100, 100, nil)
	err := resync.Sync("certificate", nil)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
}

func TestSyncScanFailureIsIsolated(t *testing.T) {
	ledger := newFakeLedger()
	index := &fakeIndex{}
	notifier := &fakeNotifier{}
	seedEnrollmentRows(ledger, map[string]int{"batch-good": 10})
	ledger.failScan = func(filter database.Filter) error {
		if v, _ := filter[models.ColBatchID].(string); v == "batch-bad" {
			return errors.New("partition unavailable")
		}
		return nil
	}

	resync := NewResynchronizer(ledger, index, 100, 100, notifier)
	require.NoError(t, resync.SyncFiltered(ObjectTypeEnrollment, []map[string]interface{}{
		{models.ColBatchID: "batch-bad"},
		{models.ColBatchID: "batch-good"},
	}))
	resync.Wait()

	// The failing scan was reported; the other one still indexed its rows
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, ObjectTypeEnrollment, notifier.calls[0].objectType)
	require.Len(t, index.bulkCalls, 1)
	assert.Len(t, index.bulkCalls[0].docs, 10)
}

func TestSyncBulkFailureStopsScan(t *testing.T) {
	ledger := newFakeLedger()
	index := &fakeIndex{bulkErr: errors.New("index down")}
	notifier := &fakeNotifier{}
	seedEnrollmentRows(ledger, map[string]int{"batch-a": 30})

	resync := NewResynchronizer(ledger, index, 10, 10, notifier)
	require.NoError(t, resync.Sync(ObjectTypeEnrollment, nil))
	resync.Wait()

	require.Len(t, notifier.calls, 1)
	assert.Empty(t, index.bulkCalls)
}
