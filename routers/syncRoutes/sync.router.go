package syncRoutes

import (
	controllers "lms/controllers/sync"
	"lms/middleware"
	"lms/services"
	validators "lms/validators/sync"

	"github.com/gofiber/fiber/v2"
)

// SetupSyncRoutes sets up the enrollment and sync routes
func SetupSyncRoutes(app *fiber.App, writer *services.EnrollmentWriter, updater *services.BatchCounterUpdater, resync *services.Resynchronizer) {
	batchGroup := app.Group("/batch")

	// Enrollment
	batchGroup.Post("/enroll", middleware.JWTMiddleware, validators.Enroll(), controllers.EnrollUsers(writer))
	batchGroup.Post("/unenroll", middleware.JWTMiddleware, validators.Unenroll(), controllers.UnenrollUser(writer))

	// Member counter (admin)
	batchGroup.Patch("/count", middleware.JWTMiddleware, middleware.AdminOnly, validators.BatchCount(), controllers.UpdateBatchCount(updater))

	// Index resynchronization (admin)
	dataGroup := app.Group("/data")
	dataGroup.Post("/sync", middleware.JWTMiddleware, middleware.AdminOnly, validators.Sync(), controllers.SyncData(resync))
}
