package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	ierr "github.com/docflow/review-service/internal/errors"
	"github.com/docflow/review-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"
)

// renderError writes {"error": <hint>, "code": <class>} with the class status.
func renderError(c *gin.Context, err error) {
	status := ierr.HTTPStatusFromErr(err)
	if status >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": ierr.DisplayMessage(err), "code": ierr.CodeFromErr(err)})
}

// renderBindError turns binding failures into a Validation response naming
// every offending field.
func renderBindError(c *gin.Context, err error) {
	msg := "invalid request body"
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		msg = strings.Join(lo.Map(ve, func(fe validator.FieldError, _ int) string {
			return fieldMessage(fe)
		}), "; ")
	}
	renderError(c, ierr.WithError(err).WithHint(msg).Mark(ierr.ErrValidation))
}

func fieldMessage(fe validator.FieldError) string {
	field := lo.CamelCase(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	}
	return field + " is invalid"
}
