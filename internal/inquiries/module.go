// Package inquiries provides the inquiry desk bounded context module.
package inquiries

import (
	apphttp "inquiry_desk/internal/http"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/handler"
	"inquiry_desk/internal/notification/sse"
	"inquiry_desk/internal/session"
	"inquiry_desk/platform/logger"
	"inquiry_desk/platform/validator"
)

// Module is the inquiry desk module implementing http.Module.
type Module struct {
	handler *handler.Handler
	sse     *sse.Service
}

// NewModule creates the module. The validator gains the inquiry tags.
func NewModule(sessions *session.Manager, stream *sse.Service, val *validator.Validator, log *logger.Logger) *Module {
	if err := filter.RegisterValidations(val); err != nil {
		log.Error("register inquiry validations", "error", err)
	}
	return &Module{handler: handler.New(sessions, val), sse: stream}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "inquiries"
}

// RegisterRoutes mounts the desk routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	h := m.handler

	ctx.V1.POST("/sessions", h.StartSession)
	ctx.Protected.GET("/sessions/current", h.GetSession)
	ctx.Protected.DELETE("/sessions/current", h.EndSession)

	ctx.Protected.GET("/inquiries", h.List)
	ctx.Protected.PATCH("/inquiries/filters", h.SetFilters)
	ctx.Protected.GET("/inquiries/stats", h.Stats)
	ctx.Protected.POST("/inquiries/export", h.Export)
	ctx.Protected.GET("/inquiries/:id", h.Detail)
	ctx.Protected.POST("/inquiries/:id/assign-to-me", h.AssignToMe)

	ctx.Protected.POST("/inquiries/selection/toggle", h.ToggleSelect)
	ctx.Protected.POST("/inquiries/selection/all", h.SelectAll)
	ctx.Protected.DELETE("/inquiries/selection", h.ClearSelection)
	ctx.Protected.POST("/inquiries/panel", h.Activate)

	ctx.Protected.POST("/inquiries/dialog", h.OpenDialog)
	ctx.Protected.PATCH("/inquiries/dialog", h.UpdateDialog)
	ctx.Protected.DELETE("/inquiries/dialog", h.CloseDialog)
	ctx.Protected.POST("/inquiries/dialog/confirm", h.ConfirmDialog)

	ctx.Protected.GET("/comparison", h.Comparison)
	ctx.Protected.POST("/comparison", h.AddComparison)
	ctx.Protected.DELETE("/comparison", h.ClearComparison)
	ctx.Protected.DELETE("/comparison/:propertyId", h.RemoveComparison)

	ctx.Protected.GET("/notices", h.Notices)
	if m.sse != nil {
		ctx.Protected.GET("/events", m.sse.Handler(handler.SessionID))
	}
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
