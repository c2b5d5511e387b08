package services

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const keyDelimiter = ":"

// EnrollmentDocID derives the index document id for one enrollment. The same
// (batchId, userId) pair always yields the same id, which keeps index writes
// idempotent no matter how often they are retried.
func EnrollmentDocID(batchID, userID string) string {
	return batchID + "_" + userID
}

// CompositeHashKey collapses the (userId, courseId, batchId) composite key
// into one opaque primary key. Stable across restarts; no salt.
func CompositeHashKey(userID, courseID, batchID string) string {
	sum := sha256.Sum256([]byte(strings.Join([]string{userID, courseID, batchID}, keyDelimiter)))
	return hex.EncodeToString(sum[:])
}
