package models

import (
	"time"

	"lms/database"
)

// Progress status of an enrollment
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
)

// Ledger tables and index names owned by the sync core
const (
	TableUserEnrollment = "user_enrollment"
	TableCourseBatch    = "course_batch"

	IndexUserCourses = "user-courses"
	IndexCourseBatch = "course-batch"
)

// Ledger / index column names
const (
	ColUserID               = "userId"
	ColCourseID             = "courseId"
	ColBatchID              = "batchId"
	ColEnrolledDate         = "enrolledDate"
	ColActive               = "active"
	ColStatus               = "status"
	ColCompletionPercentage = "completionPercentage"
	ColProgress             = "progress"
)

// Enrollment is one user's membership in a course batch. The composite key is
// (userId, courseId, batchId); active=false is a logical delete.
type Enrollment struct {
	UserID               string    `json:"userId"`
	CourseID             string    `json:"courseId"`
	BatchID              string    `json:"batchId"`
	EnrolledDate         time.Time `json:"enrolledDate"`
	Active               bool      `json:"active"`
	Status               string    `json:"status"`
	CompletionPercentage int       `json:"completionPercentage"`
	Progress             int       `json:"progress"`
}

// Record converts the enrollment to the generic attribute map the ledger and
// index clients persist.
func (e Enrollment) Record() database.Record {
	return database.Record{
		ColUserID:               e.UserID,
		ColCourseID:             e.CourseID,
		ColBatchID:              e.BatchID,
		ColEnrolledDate:         e.EnrolledDate.UTC().Format(time.RFC3339),
		ColActive:               e.Active,
		ColStatus:               e.Status,
		ColCompletionPercentage: e.CompletionPercentage,
		ColProgress:             e.Progress,
	}
}

// EnrollmentKey builds the ledger primary key for one enrollment row.
func EnrollmentKey(userID, courseID, batchID string) database.Key {
	return database.Key{
		ColUserID:   userID,
		ColCourseID: courseID,
		ColBatchID:  batchID,
	}
}

// EnrollmentFromRecord rebuilds an Enrollment from a ledger row. Numeric
// attributes may come back as float64 after a JSON round trip.
func EnrollmentFromRecord(rec database.Record) Enrollment {
	e := Enrollment{
		UserID:               asString(rec[ColUserID]),
		CourseID:             asString(rec[ColCourseID]),
		BatchID:              asString(rec[ColBatchID]),
		Active:               asBool(rec[ColActive]),
		Status:               asString(rec[ColStatus]),
		CompletionPercentage: asInt(rec[ColCompletionPercentage]),
		Progress:             asInt(rec[ColProgress]),
	}
	if raw := asString(rec[ColEnrolledDate]); raw != "" {
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			e.EnrolledDate = t
		}
	}
	return e
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func asBool(v interface{}) bool {
	b, _ := v.(bool)
	return b
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}
