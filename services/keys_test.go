package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentDocID(t *testing.T) {
	assert.Equal(t, "batch-1_user-9", EnrollmentDocID("batch-1", "user-9"))

	// Pure and stable across repeated calls
	for i := 0; i < 10; i++ {
		assert.Equal(t, "b_u", EnrollmentDocID("b", "u"))
	}

	assert.NotEqual(t, EnrollmentDocID("b1", "u1"), EnrollmentDocID("b1", "u2"))
	assert.NotEqual(t, EnrollmentDocID("b1", "u1"), EnrollmentDocID("b2", "u1"))
}

func TestCompositeHashKey(t *testing.T) {
	first := CompositeHashKey("user-1", "course-1", "batch-1")
	second := CompositeHashKey("user-1", "course-1", "batch-1")
	assert.Equal(t, first, second)
	assert.Len(t, first, 64)

	// Any differing id yields a different key
	assert.NotEqual(t, first, CompositeHashKey("user-2", "course-1", "batch-1"))
	assert.NotEqual(t, first, CompositeHashKey("user-1", "course-2", "batch-1"))
	assert.NotEqual(t, first, CompositeHashKey("user-1", "course-1", "batch-2"))
}
