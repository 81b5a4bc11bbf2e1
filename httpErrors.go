package main

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
)

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	var stockErr *models.InsufficientStockError
	var validationErrs validator.ValidationErrors
	switch {
	case utils.IsValidationError(err), errors.As(err, &stockErr), errors.As(err, &validationErrs):
		return http.StatusBadRequest
	case errors.Is(err, utils.ErrorRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, utils.ErrUnauthorized),
		errors.Is(err, models.ErrInvalidCredentials),
		errors.Is(err, models.ErrUserInactive):
		return http.StatusUnauthorized
	case errors.Is(err, utils.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, utils.ErrDuplicate), errors.Is(err, utils.ErrBusy), utils.IsDuplicateKeyError(err):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusForError(err)

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.AbortWithStatusJSON(status, gin.H{
			"error":  "validation failed",
			"fields": utils.ProcessValidationErrors(err),
		})
		return
	}

	message := err.Error()
	switch status {
	case http.StatusConflict:
		if utils.IsDuplicateKeyError(err) {
			message = utils.ErrDuplicate.Error()
		}
	case http.StatusInternalServerError:
		_ = c.Error(err)
		if config.IsProduction() {
			message = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": message})
}

// bindJSON decodes the body into dst; on failure it writes the 400 response and returns false.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			respondError(c, err)
			return false
		}
		badRequest(c, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func paramId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return id, true
}
