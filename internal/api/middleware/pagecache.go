package middleware

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/radz2291/RZ-Property/internal/cache"
)

// cachingWriter copies the response body while it is written.
type cachingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *cachingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *cachingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// PageCacheMiddleware serves GET responses from the page cache and stores
// successful ones. Entries are keyed by path and query, and dropped through
// the invalidator when the underlying data changes.
func PageCacheMiddleware(pages cache.IPageCache) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}
		path, rawQuery := c.Request.URL.Path, c.Request.URL.RawQuery

		if page, ok := pages.Get(c.Request.Context(), path, rawQuery); ok {
			c.Header("X-Cache", "HIT")
			c.Data(page.Status, page.ContentType, page.Body)
			c.Abort()
			return
		}

		w := &cachingWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Header("X-Cache", "MISS")
		c.Next()

		if w.Status() != http.StatusOK {
			return
		}
		page := &cache.Page{Status: w.Status(), ContentType: w.Header().Get("Content-Type"), Body: w.body.Bytes()}
		if err := pages.Set(context.WithoutCancel(c.Request.Context()), path, rawQuery, page); err != nil {
			slog.Warn("page cache store failed", "path", path, "error", err)
		}
	}
}
