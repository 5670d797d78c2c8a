package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tutorhub/tutorhub-api/internal/repository"
	"github.com/tutorhub/tutorhub-api/internal/service"
)

// cachedResponse is the stored shape for an admin list response.
type cachedResponse struct {
	Status int    `json:"status"`
	Body   []byte `json:"body"`
}

type captureWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *captureWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	return w.ResponseWriter.Write(p)
}

// AdminCache serves admin list GETs from Redis. Only successful JSON
// responses are stored; mutations elsewhere invalidate the whole admin
// namespace.
func AdminCache(cache *repository.CacheRepository, metrics *service.MetricsService, ttl time.Duration) gin.HandlerFunc {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return func(c *gin.Context) {
		if cache == nil || c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := "admin:" + c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			key += "?" + raw
		}

		var cached cachedResponse
		if err := cache.Get(c.Request.Context(), key, &cached); err == nil {
			if metrics != nil {
				metrics.RecordCacheLookup(true)
			}
			c.Header("X-Cache", "HIT")
			c.Data(cached.Status, "application/json; charset=utf-8", cached.Body)
			c.Abort()
			return
		}
		if metrics != nil {
			metrics.RecordCacheLookup(false)
		}

		writer := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = writer
		c.Header("X-Cache", "MISS")
		c.Next()

		status := c.Writer.Status()
		if status != http.StatusOK {
			return
		}
		_ = cache.Set(c.Request.Context(), key, cachedResponse{
			Status: status,
			Body:   writer.buf.Bytes(),
		}, ttl)
	}
}
