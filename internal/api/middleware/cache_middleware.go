package middleware

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ResponseCache is the subset of the Redis client the response cache needs.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	ClearByPattern(ctx context.Context, pattern string) error
}

// CacheMiddleware caches authenticated GET responses per user.
type CacheMiddleware struct {
	cache  ResponseCache
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewCacheMiddleware(cache ResponseCache, prefix string, ttl time.Duration, log *zap.Logger) *CacheMiddleware {
	return &CacheMiddleware{
		cache:  cache,
		prefix: prefix,
		ttl:    ttl,
		log:    log,
	}
}

// responseBuffer is a custom ResponseWriter that stores the response
type responseBuffer struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func newResponseBuffer(original gin.ResponseWriter) *responseBuffer {
	return &responseBuffer{
		ResponseWriter: original,
		body:           bytes.NewBufferString(""),
	}
}

func (r *responseBuffer) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *responseBuffer) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}

func passThrough(c *gin.Context) { c.Next() }

// CacheResponse serves GET requests from the cache and stores successful responses.
// A nil CacheMiddleware caches nothing.
func (m *CacheMiddleware) CacheResponse() gin.HandlerFunc {
	if m == nil {
		return passThrough
	}
	return func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if c.Request.Method != http.MethodGet || !ok {
			c.Next()
			return
		}

		key := m.cacheKey(userID.String(), c)
		if cached, err := m.cache.Get(c.Request.Context(), key); err == nil {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(cached))
			c.Abort()
			return
		}

		writer := c.Writer
		buff := newResponseBuffer(writer)
		c.Writer = buff
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			if err := m.cache.Set(c.Request.Context(), key, buff.body.String(), m.ttl); err != nil {
				m.log.Warn("Failed to cache response", zap.Error(err), zap.String("key", key))
			}
		}

		c.Writer = writer
	}
}

// CacheInvalidate drops every cached response of the caller after a successful write.
func (m *CacheMiddleware) CacheInvalidate() gin.HandlerFunc {
	if m == nil {
		return passThrough
	}
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method == http.MethodGet {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 300 {
			return
		}
		userID, ok := GetUserID(c)
		if !ok {
			return
		}
		if err := m.InvalidateUser(c.Request.Context(), userID.String()); err != nil {
			m.log.Warn("Failed to invalidate cache", zap.Error(err), zap.String("user_id", userID.String()))
		}
	}
}

// InvalidateUser clears all cached responses for one user.
func (m *CacheMiddleware) InvalidateUser(ctx context.Context, userID string) error {
	return m.cache.ClearByPattern(ctx, fmt.Sprintf("%s:%s:*", m.prefix, userID))
}

func (m *CacheMiddleware) cacheKey(userID string, c *gin.Context) string {
	parts := []string{m.prefix, userID, strings.Trim(c.Request.URL.Path, "/")}
	if c.Request.URL.RawQuery != "" {
		parts = append(parts, c.Request.URL.RawQuery)
	}
	return strings.Join(parts, ":")
}
