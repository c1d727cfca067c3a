// Package httpkit provides HTTP utilities including identity abstraction.
package httpkit

import (
	"github.com/gin-gonic/gin"
)

// Identity is the desk session behind a request.
// Handlers read it without depending on how the session was resolved.
type Identity interface {
	// SessionID returns the desk session id.
	SessionID() string
	// UserID returns the marketplace user id from the access token.
	UserID() int64
	// IsAuthenticated returns true if a live session was found.
	IsAuthenticated() bool
}

type identity struct {
	sessionID     string
	userID        int64
	authenticated bool
}

func (i *identity) SessionID() string     { return i.sessionID }
func (i *identity) UserID() int64         { return i.userID }
func (i *identity) IsAuthenticated() bool { return i.authenticated }

// SetIdentity records the resolved session on the gin context.
func SetIdentity(c *gin.Context, sessionID string, userID int64) {
	c.Set(ContextSessionIDKey, sessionID)
	c.Set(ContextUserIDKey, userID)
}

// GetIdentity extracts the Identity from a Gin context.
// Returns an unauthenticated identity if no session was resolved.
func GetIdentity(c *gin.Context) Identity {
	sid, ok := c.Get(ContextSessionIDKey)
	if !ok {
		return &identity{}
	}
	sessionID, ok := sid.(string)
	if !ok || sessionID == "" {
		return &identity{}
	}
	var userID int64
	if raw, ok := c.Get(ContextUserIDKey); ok {
		userID, _ = raw.(int64)
	}
	return &identity{sessionID: sessionID, userID: userID, authenticated: true}
}
