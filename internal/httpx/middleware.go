package httpx

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/apperr"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/metrics"
	"github.com/young8Programmer/PARTS-HUB-B2B-Marketplace-Platform/internal/user"
)

const (
	HeaderRequestID = "X-Request-ID"
	HeaderUserID    = "X-User-ID"

	ctxRequestID = "rid"
	ctxUser      = "user"
)

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(HeaderRequestID)
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(ctxRequestID, rid)
		c.Writer.Header().Set(HeaderRequestID, rid)
		c.Next()
	}
}

// Logger writes one access line per request after the handler completes.
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		fields := []zap.Field{
			zap.String("rid", c.GetString(ctxRequestID)),
			zap.String("method", c.Request.Method),
			zap.String("route", route(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
		}
		if u, ok := CurrentUser(c); ok {
			fields = append(fields, zap.String("user_id", u.ID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		log.Info("http_access", fields...)
	}
}

// Metrics records request counts and latency by route template.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveHTTP(route(c), c.Writer.Status(), time.Since(start))
	}
}

// Trace opens a server span for the request.
func Trace(service string) gin.HandlerFunc {
	tracer := otel.Tracer(service + ".http")
	return func(c *gin.Context) {
		ctx, span := tracer.Start(c.Request.Context(), c.Request.Method+" "+route(c),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route(c)),
				attribute.String("http.target", c.Request.URL.Path),
			),
		)
		defer span.End()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

func route(c *gin.Context) string {
	if r := c.FullPath(); r != "" {
		return r
	}
	return "unmatched"
}

// Actor resolves the caller from the X-User-ID header against the user
// directory. Unknown or inactive users are rejected before any handler runs.
func Actor(users user.Directory) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if _, err := uuid.Parse(id); err != nil {
			Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		u, err := users.GetByID(c.Request.Context(), id)
		if errors.Is(err, apperr.ErrNotFound) {
			Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		if err != nil {
			_ = c.Error(err)
			Abort(c, http.StatusInternalServerError, "internal error")
			return
		}
		if !u.IsActive {
			Abort(c, http.StatusForbidden, "account is deactivated")
			return
		}
		if !u.Role.Valid() {
			Abort(c, http.StatusForbidden, "unknown role")
			return
		}
		c.Set(ctxUser, u)
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*user.User, bool) {
	v, ok := c.Get(ctxUser)
	if !ok {
		return nil, false
	}
	u, ok := v.(*user.User)
	return u, ok
}

// RequireRole must run after Actor.
func RequireRole(roles ...user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok {
			Abort(c, http.StatusUnauthorized, "authentication required")
			return
		}
		for _, r := range roles {
			if u.Role == r {
				c.Next()
				return
			}
		}
		Abort(c, http.StatusForbidden, "insufficient role")
	}
}
