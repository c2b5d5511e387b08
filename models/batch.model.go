package models

import "lms/database"

// Batch enrollment types
const (
	EnrollmentTypeOpen       = "OPEN"
	EnrollmentTypeInviteOnly = "INVITE_ONLY"
)

// Member counters mirrored into the external capacity system, the index and
// the ledger. One counter per enrollment type.
const (
	CounterOpenMembers    = "openMemberCount"
	CounterPrivateMembers = "privateMemberCount"
)

// Batch column names not shared with Enrollment
const (
	ColEnrollmentType = "enrollmentType"
	ColBatchName      = "name"
	ColBatchStatus    = "batchStatus"
)

// CourseBatch is a batch-level aggregate. The ledger primary key is batchId
// alone; courseId is the partition used for scoped resync.
type CourseBatch struct {
	BatchID            string `json:"batchId"`
	CourseID           string `json:"courseId"`
	Name               string `json:"name"`
	EnrollmentType     string `json:"enrollmentType"`
	Status             string `json:"batchStatus"`
	OpenMemberCount    int    `json:"openMemberCount"`
	PrivateMemberCount int    `json:"privateMemberCount"`
}

// Record converts the batch to the generic attribute map the stores persist.
func (b CourseBatch) Record() database.Record {
	return database.Record{
		ColBatchID:            b.BatchID,
		ColCourseID:           b.CourseID,
		ColBatchName:          b.Name,
		ColEnrollmentType:     b.EnrollmentType,
		ColBatchStatus:        b.Status,
		CounterOpenMembers:    b.OpenMemberCount,
		CounterPrivateMembers: b.PrivateMemberCount,
	}
}

// BatchKey builds the ledger primary key for one batch row.
func BatchKey(batchID string) database.Key {
	return database.Key{ColBatchID: batchID}
}

// LedgerKeyColumns lists, per ledger table, the columns whose values form the
// row key. Registered with the ledger client at startup so retried inserts
// overwrite rather than duplicate.
func LedgerKeyColumns() map[string][]string {
	return map[string][]string{
		TableUserEnrollment: {ColUserID, ColCourseID, ColBatchID},
		TableCourseBatch:    {ColBatchID},
	}
}
