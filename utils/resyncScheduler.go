package utils

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"lms/services"
)

// logScheduler logs scheduler events with timestamp
func logScheduler(message string) {
	log.Printf("[RESYNC-SCHEDULER %s] %s", time.Now().Format(time.RFC3339), message)
}

// StartResyncScheduler schedules the nightly full resync. This is the repair
// path for every partial-write inconsistency the request paths log and move
// past during the day.
func StartResyncScheduler(c *cron.Cron, resync *services.Resynchronizer, spec string) {
	_, err := c.AddFunc(spec, func() {
		logScheduler("nightly full resync starting")
		if err := resync.Sync(services.ObjectTypeEnrollment, nil); err != nil {
			logScheduler("enrollment resync rejected: " + err.Error())
		}
		if err := resync.Sync(services.ObjectTypeBatch, nil); err != nil {
			logScheduler("batch resync rejected: " + err.Error())
		}
	})
	if err != nil {
		logScheduler("failed to schedule nightly resync: " + err.Error())
		return
	}
	logScheduler("nightly resync scheduled with spec " + spec)
}
