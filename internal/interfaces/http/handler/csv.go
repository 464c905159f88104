package handler

import (
	"bytes"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"
)

const csvContentType = "text/csv; charset=utf-8"

// writeCSV renders into a buffer first so a failure still gets a JSON
// error instead of a truncated attachment
func (h *BaseHandler) writeCSV(c *gin.Context, filename string, render func(buf *bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	c.Data(http.StatusOK, csvContentType, buf.Bytes())
}
