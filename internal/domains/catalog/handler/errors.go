package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"catalog-backend/internal/domains/catalog/model"
	"catalog-backend/internal/shared/response"
)

// renderError map error taxonomy -> HTTP status.
// RepositoryError đã được log ở ErrorAdapter nên ở đây chỉ trả message cố định.
func renderError(c *gin.Context, err error) {
	switch model.KindOf(err) {
	case model.KindValidation:
		var validationErr *model.DataValidationError
		errors.As(err, &validationErr)
		response.ValidationFailed(c, validationErr.Fields)
	case model.KindNotFound:
		var notFoundErr *model.ResourceNotFoundError
		errors.As(err, &notFoundErr)
		response.NotFound(c, notFoundErr.Resource+" "+notFoundErr.ID+" not found")
	default:
		response.InternalServerError(c)
	}
}

// badBody - JSON không parse được
func badBody(c *gin.Context, err error) {
	response.BadRequest(c, "invalid request body", err.Error())
}
