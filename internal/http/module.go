package http

import (
	"github.com/gin-gonic/gin"
)

// Module is a feature area that mounts its own routes. The router knows
// modules only through this interface.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is what a module gets to mount routes on.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 with no session check. Only session creation lives here.
	V1 *gin.RouterGroup
	// Protected is /api/v1 behind SessionRequired; handlers can rely on
	// middleware.CurrentSession.
	Protected *gin.RouterGroup
}
