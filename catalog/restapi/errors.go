package restapi

import (
	"github.com/gofiber/fiber/v2"

	pkgerrors "github.com/dot-do/iceberg-sub003/pkg/errors"
)

// errorResponse is the JSON body written for every non-2xx response,
// following the iceberg REST catalog's {"error": {...}} envelope.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// writeError maps err's Kind to an HTTP status and writes the envelope.
// Unrecognized errors (not a *pkgerrors.Error) fall back to 500.
func writeError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	kindName := "InternalServerError"
	switch {
	case pkgerrors.IsNotFound(err):
		status, kindName = fiber.StatusNotFound, "NoSuchTableException"
	case pkgerrors.IsAlreadyExists(err):
		status, kindName = fiber.StatusConflict, "AlreadyExistsException"
	case pkgerrors.IsNotEmpty(err):
		status, kindName = fiber.StatusConflict, "NamespaceNotEmptyException"
	case pkgerrors.IsConflict(err):
		status, kindName = fiber.StatusConflict, "CommitFailedException"
	case pkgerrors.IsValidation(err):
		status, kindName = fiber.StatusBadRequest, "BadRequestException"
	}
	return c.Status(status).JSON(errorResponse{Error: errorBody{
		Message: err.Error(),
		Type:    kindName,
		Code:    status,
	}})
}
