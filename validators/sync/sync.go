package syncValidator

import (
	"fmt"

	"lms/middleware"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// EnrollRequest is the body for POST /batch/enroll
type EnrollRequest struct {
	BatchID  string   `json:"batchId" validate:"required"`
	CourseID string   `json:"courseId" validate:"required"`
	UserIDs  []string `json:"userIds" validate:"dive,required"`
}

// UnenrollRequest is the body for POST /batch/unenroll
type UnenrollRequest struct {
	BatchID  string `json:"batchId" validate:"required"`
	CourseID string `json:"courseId" validate:"required"`
	UserID   string `json:"userId" validate:"required"`
}

// BatchCountRequest is the body for PATCH /batch/count
type BatchCountRequest struct {
	BatchID        string `json:"batchId" validate:"required"`
	CourseID       string `json:"courseId" validate:"required"`
	EnrollmentType string `json:"enrollmentType" validate:"required,oneof=OPEN INVITE_ONLY"`
	Increment      *bool  `json:"increment" validate:"required"`
}

// SyncRequest is the body for POST /data/sync. ObjectIDs and Filters are
// both optional; an empty request means a full resync of the object type.
type SyncRequest struct {
	ObjectType string                   `json:"objectType" validate:"required,oneof=enrollment batch"`
	ObjectIDs  []string                 `json:"objectIds" validate:"omitempty,dive,required"`
	Filters    []map[string]interface{} `json:"filters"`
}

// validationErrors flattens validator.ValidationErrors into a field->message map
func validationErrors(err error) map[string]string {
	errors := make(map[string]string)
	if fieldErrors, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range fieldErrors {
			errors[fe.Field()] = fmt.Sprintf("failed validation: %s", fe.Tag())
		}
	} else {
		errors["body"] = err.Error()
	}
	return errors
}

func Enroll() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(EnrollRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}
		c.Locals("validatedEnroll", reqData)
		return c.Next()
	}
}

func Unenroll() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UnenrollRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}
		c.Locals("validatedUnenroll", reqData)
		return c.Next()
	}
}

func BatchCount() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(BatchCountRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}
		c.Locals("validatedBatchCount", reqData)
		return c.Next()
	}
}

func Sync() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SyncRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		if err := validate.Struct(reqData); err != nil {
			return middleware.ValidationErrorResponse(c, validationErrors(err))
		}
		if len(reqData.ObjectIDs) > 0 && len(reqData.Filters) > 0 {
			return middleware.ValidationErrorResponse(c, map[string]string{
				"objectIds": "provide either objectIds or filters, not both",
			})
		}
		c.Locals("validatedSync", reqData)
		return c.Next()
	}
}
