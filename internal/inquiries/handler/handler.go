package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"inquiry_desk/internal/http/middleware"
	"inquiry_desk/internal/inquiries/transport"
	"inquiry_desk/internal/session"
	"inquiry_desk/platform/apperr"
	"inquiry_desk/platform/httpkit"
	"inquiry_desk/platform/validator"
)

// Handler handles HTTP requests for the inquiry desk.
type Handler struct {
	sessions *session.Manager
	val      *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

// New creates a new inquiries handler.
func New(sessions *session.Manager, val *validator.Validator) *Handler {
	return &Handler{sessions: sessions, val: val}
}

// bindJSON decodes and validates the body. It writes the error response and
// returns false on failure.
func (h *Handler) bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.Describe(err))
		return false
	}
	return true
}

func mustSession(c *gin.Context) (*session.Session, bool) {
	s, ok := middleware.CurrentSession(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, httpkit.ErrorResponse{Error: "unauthorized"})
		return nil, false
	}
	return s, true
}

// StartSession opens a desk session for the caller's access token.
// POST /api/v1/sessions
func (h *Handler) StartSession(c *gin.Context) {
	var req transport.StartSessionRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	token := req.AccessToken
	if token == "" {
		token, _ = httpkit.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		httpkit.Error(c, http.StatusUnauthorized, "missing token", nil)
		return
	}

	s, err := h.sessions.Start(c.Request.Context(), token)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, transport.NewSessionResponse(s))
}

// GetSession describes the current session.
// GET /api/v1/sessions/current
func (h *Handler) GetSession(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.NewSessionResponse(s))
}

// EndSession closes the current session.
// DELETE /api/v1/sessions/current
func (h *Handler) EndSession(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	if httpkit.HandleError(c, h.sessions.End(c.Request.Context(), s.ID)) {
		return
	}
	httpkit.NoContent(c)
}

// List returns the list page, loading it on first use.
// GET /api/v1/inquiries?refresh=true
func (h *Handler) List(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	view := s.List.View()
	if !view.Loaded || c.Query("refresh") == "true" {
		if httpkit.HandleError(c, s.List.Reload(ctx)) {
			return
		}
	}
	if view.Stats == nil {
		// Stats failures render inside the view; the list still loads.
		_ = s.List.LoadStats(ctx)
	}
	httpkit.OK(c, s.List.View())
}

// SetFilters changes filter facets and reloads.
// PATCH /api/v1/inquiries/filters
func (h *Handler) SetFilters(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.FiltersPatch
	if !h.bindJSON(c, &req) {
		return
	}
	next := req.Apply(s.List.Filters())
	if httpkit.HandleError(c, s.List.SetFilters(c.Request.Context(), next)) {
		return
	}
	httpkit.OK(c, s.List.View())
}

// Stats returns the dashboard numbers.
// GET /api/v1/inquiries/stats?refresh=true
func (h *Handler) Stats(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	load := s.List.LoadStats
	if c.Query("refresh") == "true" {
		load = s.List.RefreshStats
	}
	if httpkit.HandleError(c, load(c.Request.Context())) {
		return
	}
	httpkit.OK(c, s.List.View().Stats)
}

// Detail returns one inquiry with its timeline.
// GET /api/v1/inquiries/:id
func (h *Handler) Detail(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	view, err := s.Detail.Load(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	if view.NotFound {
		httpkit.JSON(c, http.StatusNotFound, view)
		return
	}
	httpkit.OK(c, view)
}

// ToggleSelect checks or unchecks a row.
// POST /api/v1/inquiries/selection/toggle
func (h *Handler) ToggleSelect(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.SelectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	s.List.ToggleSelect(req.ID)
	httpkit.OK(c, s.List.View())
}

// SelectAll toggles every loaded row.
// POST /api/v1/inquiries/selection/all
func (h *Handler) SelectAll(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	s.List.SelectAll()
	httpkit.OK(c, s.List.View())
}

// ClearSelection unchecks every row.
// DELETE /api/v1/inquiries/selection
func (h *Handler) ClearSelection(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	s.List.ClearSelection()
	httpkit.OK(c, s.List.View())
}

// Activate shows an inquiry in the side panel.
// POST /api/v1/inquiries/panel
func (h *Handler) Activate(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.ActivateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	s.List.Activate(req.ID)
	httpkit.OK(c, s.List.View())
}

// OpenDialog opens a dialog.
// POST /api/v1/inquiries/dialog
func (h *Handler) OpenDialog(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.OpenDialogRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if httpkit.HandleError(c, s.List.OpenDialog(req.Kind, req.Context())) {
		return
	}
	httpkit.OK(c, s.List.View())
}

// UpdateDialog edits fields of the open dialog.
// PATCH /api/v1/inquiries/dialog
func (h *Handler) UpdateDialog(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.DialogInputRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if httpkit.HandleError(c, s.List.SetDialogInput(req.Patch())) {
		return
	}
	httpkit.OK(c, s.List.View())
}

// CloseDialog dismisses the open dialog.
// DELETE /api/v1/inquiries/dialog
func (h *Handler) CloseDialog(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	s.List.CloseDialog()
	httpkit.OK(c, s.List.View())
}

// ConfirmDialog submits the open dialog. A rejected write answers with the
// error status and still carries the page, since a partly failed bulk action
// changes the selection.
// POST /api/v1/inquiries/dialog/confirm
func (h *Handler) ConfirmDialog(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	err := s.List.ConfirmDialog(c.Request.Context())
	resp := transport.ConfirmResponse{View: s.List.View()}
	if err != nil {
		resp.Error = apperr.Message(err)
		httpkit.JSON(c, apperr.StatusCode(err), resp)
		return
	}
	httpkit.OK(c, resp)
}

// AssignToMe assigns one inquiry to the signed-in agent.
// POST /api/v1/inquiries/:id/assign-to-me
func (h *Handler) AssignToMe(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	if httpkit.HandleError(c, s.List.AssignToMe(c.Request.Context(), id)) {
		return
	}
	httpkit.OK(c, s.List.View())
}

// Export starts a server-side export for the current filters.
// POST /api/v1/inquiries/export
func (h *Handler) Export(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	job, err := s.List.Export(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusAccepted, job)
}

// Comparison lists compared properties.
// GET /api/v1/comparison
func (h *Handler) Comparison(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	httpkit.OK(c, comparisonResponse(s))
}

// AddComparison adds a property.
// POST /api/v1/comparison
func (h *Handler) AddComparison(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	var req transport.ComparisonRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if httpkit.HandleError(c, s.Comparison.Add(req.PropertyID)) {
		return
	}
	httpkit.OK(c, comparisonResponse(s))
}

// RemoveComparison drops a property.
// DELETE /api/v1/comparison/:propertyId
func (h *Handler) RemoveComparison(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("propertyId"), 10, 64)
	if err != nil || id <= 0 {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, nil)
		return
	}
	s.Comparison.Remove(id)
	httpkit.OK(c, comparisonResponse(s))
}

// ClearComparison empties the comparison.
// DELETE /api/v1/comparison
func (h *Handler) ClearComparison(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	s.Comparison.Clear()
	httpkit.OK(c, comparisonResponse(s))
}

// Notices drains queued toasts.
// GET /api/v1/notices
func (h *Handler) Notices(c *gin.Context) {
	s, ok := mustSession(c)
	if !ok {
		return
	}
	httpkit.OK(c, transport.NoticesResponse{Notices: s.Notices.Drain()})
}

// SessionID adapts the session middleware for the SSE handler.
func SessionID(c *gin.Context) (string, bool) {
	id := httpkit.GetIdentity(c)
	return id.SessionID(), id.IsAuthenticated()
}

func comparisonResponse(s *session.Session) transport.ComparisonResponse {
	return transport.ComparisonResponse{PropertyIDs: s.Comparison.IDs(), Max: session.MaxCompared}
}
