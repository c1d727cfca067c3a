// Package transport holds the request and response bodies of the desk's
// HTTP surface.
package transport

import (
	"time"

	"inquiry_desk/internal/inquiries/console"
	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/filter"
	"inquiry_desk/internal/inquiries/uistate"
	"inquiry_desk/internal/session"
)

// StartSessionRequest opens a desk session. The token may instead arrive as
// an Authorization: Bearer header.
type StartSessionRequest struct {
	AccessToken string `json:"access_token" validate:"omitempty,max=4096"`
}

// SessionResponse describes an open session.
type SessionResponse struct {
	SessionID string     `json:"session_id"`
	UserID    int64      `json:"user_id"`
	Email     string     `json:"email,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// NewSessionResponse renders s.
func NewSessionResponse(s *session.Session) SessionResponse {
	resp := SessionResponse{SessionID: s.ID, UserID: s.Claims.UserID, Email: s.Claims.Email}
	if !s.Claims.ExpiresAt.IsZero() {
		exp := s.Claims.ExpiresAt
		resp.ExpiresAt = &exp
	}
	return resp
}

// FiltersPatch changes some filter facets. Absent fields keep their value.
type FiltersPatch struct {
	Status      *[]domain.Status   `json:"status"`
	Priority    *[]domain.Priority `json:"priority"`
	InquiryType *string            `json:"inquiry_type"`
	AssignedTo  *string            `json:"assigned_to"`
	Search      *string            `json:"search"`
	DateRange   *domain.DateRange  `json:"date_range"`
	SortBy      *string            `json:"sort_by"`
	SortOrder   *domain.SortOrder  `json:"sort_order"`
	Page        *int               `json:"page"`
	PageSize    *int               `json:"page_size"`
	Reset       bool               `json:"reset"`
}

// Apply returns base with the patch applied. Reset starts from the default
// filters. Changing any facet other than the page sends the user back to
// page one.
func (p FiltersPatch) Apply(base filter.State) filter.State {
	next := base
	if p.Reset {
		next = filter.Default()
	}
	facetChanged := false
	if p.Status != nil {
		next.Status = append([]domain.Status(nil), (*p.Status)...)
		facetChanged = true
	}
	if p.Priority != nil {
		next.Priority = append([]domain.Priority(nil), (*p.Priority)...)
		facetChanged = true
	}
	if p.InquiryType != nil {
		next.InquiryType = *p.InquiryType
		facetChanged = true
	}
	if p.AssignedTo != nil {
		next.AssignedTo = *p.AssignedTo
		facetChanged = true
	}
	if p.Search != nil {
		next.Search = *p.Search
		facetChanged = true
	}
	if p.DateRange != nil {
		next.DateRange = *p.DateRange
		facetChanged = true
	}
	if p.SortBy != nil {
		next.SortBy = *p.SortBy
	}
	if p.SortOrder != nil {
		next.SortOrder = *p.SortOrder
	}
	if p.PageSize != nil {
		next.PageSize = *p.PageSize
		facetChanged = true
	}
	if facetChanged {
		next.Page = 1
	}
	if p.Page != nil {
		next.Page = *p.Page
	}
	return next
}

// SelectRequest toggles one row.
type SelectRequest struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// OpenDialogRequest opens a dialog.
type OpenDialogRequest struct {
	Kind       uistate.DialogKind `json:"kind" validate:"required,oneof=notes schedule bulk-confirm"`
	InquiryID  int64              `json:"inquiry_id" validate:"gte=0"`
	Status     domain.Status      `json:"status" validate:"omitempty,inquiry_status"`
	BulkAction string             `json:"bulk_action" validate:"omitempty,oneof=assign_to_me set_status set_priority"`
	BulkValue  string             `json:"bulk_value" validate:"max=50"`
	IDs        []int64            `json:"ids" validate:"omitempty,max=500,dive,gt=0"`
}

// Context converts the request into a dialog context.
func (r OpenDialogRequest) Context() uistate.DialogContext {
	return uistate.DialogContext{
		InquiryID:  r.InquiryID,
		Status:     r.Status,
		BulkAction: r.BulkAction,
		BulkValue:  r.BulkValue,
		IDs:        r.IDs,
	}
}

// DialogInputRequest edits fields of the open dialog.
type DialogInputRequest struct {
	Notes          *string `json:"notes" validate:"omitempty,max=2000"`
	ViewingTime    *string `json:"viewing_time" validate:"omitempty,max=64"`
	ViewingAddress *string `json:"viewing_address" validate:"omitempty,max=255"`
}

// Patch converts the request for the controller.
func (r DialogInputRequest) Patch() console.InputPatch {
	return console.InputPatch{Notes: r.Notes, ViewingTime: r.ViewingTime, ViewingAddress: r.ViewingAddress}
}

// ActivateRequest shows an inquiry in the side panel; 0 closes it.
type ActivateRequest struct {
	ID int64 `json:"id" validate:"gte=0"`
}

// ComparisonRequest adds a property to the comparison.
type ComparisonRequest struct {
	PropertyID int64 `json:"property_id" validate:"required,gt=0"`
}

// ComparisonResponse lists compared properties.
type ComparisonResponse struct {
	PropertyIDs []int64 `json:"property_ids"`
	Max         int     `json:"max"`
}

// NoticesResponse carries drained notices.
type NoticesResponse struct {
	Notices []session.Notice `json:"notices"`
}

// ConfirmResponse is the page after a dialog confirmation. Error carries the
// failure message when the write was rejected in part or in whole.
type ConfirmResponse struct {
	View  console.ListView `json:"view"`
	Error string           `json:"error,omitempty"`
}
