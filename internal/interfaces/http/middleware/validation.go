package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

// RequestIDKey is the request id header
const RequestIDKey = "X-Request-ID"

// SetupValidator makes validation errors name fields by their json or
// form key
func SetupValidator() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(fieldName)
	}
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
	}
	return name
}

// FormatValidationErrors lists one detail per invalid field. Nested
// expense rows are reported by path, like expeditures[1].description.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var details []dto.ValidationDetail
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, e := range verrs {
			details = append(details, dto.ValidationDetail{
				Field:   fieldPath(e),
				Message: validationMessage(e),
			})
		}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

// fieldPath drops the request struct name from the namespace. Embedded
// structs such as TicketAdminFields are flattened.
func fieldPath(e validator.FieldError) string {
	parts := strings.Split(e.Namespace(), ".")
	if len(parts) <= 1 {
		return e.Field()
	}
	path := parts[1:]
	out := path[:0]
	for _, p := range path {
		if p != "" && p[0] >= 'A' && p[0] <= 'Z' {
			continue
		}
		out = append(out, p)
	}
	if len(out) == 0 {
		return e.Field()
	}
	return strings.Join(out, ".")
}

// HandleValidationError answers 400 with the field details
func HandleValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, getRequestIDFromContext(c)))
}

func getRequestIDFromContext(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader(RequestIDKey)
}

func validationMessage(e validator.FieldError) string {
	text := e.Kind() == reflect.String
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Enter a valid email address"
	case "url":
		return "Enter a valid URL"
	case "datetime":
		return "Use the date format YYYY-MM-DD"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "min":
		if text {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if text {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	default:
		return "Invalid value"
	}
}
