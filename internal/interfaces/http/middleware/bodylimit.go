package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

// BodyLimit caps request bodies at maxBytes. Declared lengths over the cap
// are refused up front; chunked uploads fail when the handler reads past it.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	message := fmt.Sprintf("Request body is larger than %d MB", maxBytes>>20)
	if maxBytes < 1<<20 {
		message = fmt.Sprintf("Request body is larger than %d bytes", maxBytes)
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeRequestTooLarge, message, getRequestIDFromContext(c)))
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
