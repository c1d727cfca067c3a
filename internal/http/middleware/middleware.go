// Package middleware holds gin middleware that depends on application state.
package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"inquiry_desk/internal/session"
	"inquiry_desk/platform/httpkit"
	"inquiry_desk/platform/logger"
)

const contextSessionKey = "deskSession"

// SessionRequired resolves the desk session named by X-Session-ID (or the
// "session" query parameter) and rejects the request when there is none.
func SessionRequired(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := httpkit.SessionIDFrom(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "missing session"})
			return
		}
		s, err := sessions.Get(c.Request.Context(), id)
		if err != nil {
			httpkit.HandleError(c, err)
			c.Abort()
			return
		}
		httpkit.SetIdentity(c, s.ID, s.Claims.UserID)
		c.Set(contextSessionKey, s)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.SessionIDKey, s.ID))
		c.Next()
	}
}

// CurrentSession returns the session resolved by SessionRequired.
func CurrentSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(contextSessionKey)
	if !ok {
		return nil, false
	}
	s, ok := v.(*session.Session)
	return s, ok
}
