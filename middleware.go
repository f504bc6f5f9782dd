package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"equipapi/pkg/auth"
	"equipapi/pkg/logging"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// authenticate resolves the bearer token once per request. A missing or invalid
// token leaves the request anonymous; routes that need a user add requireAuth.
func authenticate(svc *auth.Service, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c.GetHeader("Authorization")); ok {
			uid, err := svc.Verify(c.Request.Context(), token)
			switch {
			case err == nil:
				c.Set(userIDKey, uid)
			case !errors.Is(err, auth.ErrInvalidToken):
				log.Error(c.Request.Context(), "token verification failed", "error", err)
			}
		}
		c.Next()
	}
}

func requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := callerID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthenticated."})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}

// callerID returns the authenticated user id, if any.
func callerID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	uid, ok := v.(uint)
	return uid, ok
}

func requestLogger(log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		_, authed := callerID(c)
		log.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"authenticated", authed,
		)
	}
}
