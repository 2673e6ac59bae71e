package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openbook/hub/internal/account"
	"github.com/openbook/hub/internal/apperr"
	"github.com/openbook/hub/internal/auth"
	"github.com/openbook/hub/internal/models"
	"github.com/openbook/hub/pkg/telemetry"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	userKey         = "user"
)

// RequestID tags every request with an id, reusing the caller's when present
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func requestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// AccessLog logs one line per request
func AccessLog(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID(c)),
		}
		if user, ok := currentUserOK(c); ok {
			fields = append(fields, zap.Int64("user_id", user.ID))
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.Error("Request", fields...)
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.Info("Request", fields...)
		default:
			logger.Debug("Request", fields...)
		}
	}
}

// Tracing starts a server span per request, continuing the caller's trace
func Tracing() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		ctx, span := telemetry.StartSpan(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Writer.Status()))
	}
}

// Authenticate resolves the bearer token into the acting user
func Authenticate(tokens *auth.Tokens, accounts *account.Service, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		if !found || raw == "" {
			unauthorized(c, "missing bearer token")
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				unauthorized(c, "token expired")
			} else {
				unauthorized(c, "invalid token")
			}
			return
		}

		user, err := accounts.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				unauthorized(c, "unknown user")
				return
			}
			abortWithError(c, logger, err)
			return
		}

		c.Set(userKey, user)
		c.Next()
	}
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, NewError(http.StatusUnauthorized, "unauthorized", message))
}

func currentUserOK(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// currentUser is only called behind Authenticate
func currentUser(c *gin.Context) *models.User {
	user, _ := currentUserOK(c)
	return user
}
