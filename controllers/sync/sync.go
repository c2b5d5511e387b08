package controllers

import (
	"lms/middleware"
	"lms/services"
	syncValidator "lms/validators/sync"

	"github.com/gofiber/fiber/v2"
)

// EnrollUsers enrolls a cohort of users into a course batch
func EnrollUsers(writer *services.EnrollmentWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := c.Locals("validatedEnroll").(*syncValidator.EnrollRequest)

		err := writer.Enroll(c.Context(), reqData.BatchID, reqData.CourseID, reqData.UserIDs)
		if err != nil {
			if services.IsValidationError(err) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to enroll users!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Users enrolled successfully!", fiber.Map{
			"batchId": reqData.BatchID,
			"count":   len(reqData.UserIDs),
		})
	}
}

// UnenrollUser removes one user from a course batch
func UnenrollUser(writer *services.EnrollmentWriter) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := c.Locals("validatedUnenroll").(*syncValidator.UnenrollRequest)

		err := writer.Unenroll(c.Context(), reqData.BatchID, reqData.CourseID, reqData.UserID)
		if err != nil {
			if services.IsValidationError(err) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to unenroll user!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "User unenrolled successfully!", nil)
	}
}

// UpdateBatchCount adjusts the member counter of a batch
func UpdateBatchCount(updater *services.BatchCounterUpdater) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := c.Locals("validatedBatchCount").(*syncValidator.BatchCountRequest)

		err := updater.UpdateBatchCount(c.Context(), reqData.BatchID, reqData.CourseID, reqData.EnrollmentType, *reqData.Increment)
		if err != nil {
			if services.IsValidationError(err) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to update batch count!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusOK, true, "Batch count updated successfully!", nil)
	}
}

// SyncData triggers an asynchronous ledger-to-index resynchronization. The
// response only acknowledges that the scans were started.
func SyncData(resync *services.Resynchronizer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := c.Locals("validatedSync").(*syncValidator.SyncRequest)

		var err error
		if len(reqData.Filters) > 0 {
			err = resync.SyncFiltered(reqData.ObjectType, reqData.Filters)
		} else {
			err = resync.Sync(reqData.ObjectType, reqData.ObjectIDs)
		}
		if err != nil {
			if services.IsValidationError(err) {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, err.Error(), nil)
			}
			return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to trigger sync!", nil)
		}

		return middleware.JsonResponse(c, fiber.StatusAccepted, true, "Sync triggered successfully!", fiber.Map{
			"objectType": reqData.ObjectType,
		})
	}
}
