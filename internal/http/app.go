// Package http wires the BFF: the App built by main, the Module contract
// and the router that mounts modules.
package http

import (
	"inquiry_desk/internal/session"
	"inquiry_desk/platform/config"
	"inquiry_desk/platform/logger"
)

// RouterConfig is the config the HTTP router needs.
type RouterConfig interface {
	config.HTTPConfig
}

// App holds the fully initialized application dependencies.
// This is populated by main.go (the composition root) and passed to the router.
type App struct {
	// Config holds the router configuration.
	Config RouterConfig
	// Logger is the structured logger.
	Logger *logger.Logger
	// Sessions resolves X-Session-ID to a desk session.
	Sessions *session.Manager
	// Modules contains all HTTP-facing domain modules.
	Modules []Module
}
