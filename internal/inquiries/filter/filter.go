// Package filter translates the desk's filter facets into marketplace API
// query parameters.
package filter

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/platform/validator"
)

// TimestampLayout is the wire format of created_at__gte.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

const (
	DefaultSortBy   = "created_at"
	DefaultPageSize = 20
)

// State is the filter value object owned by the list controller. It is
// replaced on change, never mutated in place.
type State struct {
	Status      []domain.Status   `json:"status" validate:"dive,inquiry_status"`
	Priority    []domain.Priority `json:"priority" validate:"dive,inquiry_priority"`
	InquiryType string            `json:"inquiry_type" validate:"max=50"`
	AssignedTo  string            `json:"assigned_to" validate:"max=20"`
	Search      string            `json:"search" validate:"max=200"`
	DateRange   domain.DateRange  `json:"date_range" validate:"date_range"`
	SortBy      string            `json:"sort_by" validate:"max=50"`
	SortOrder   domain.SortOrder  `json:"sort_order" validate:"omitempty,oneof=asc desc"`
	Page        int               `json:"page" validate:"min=0"`
	PageSize    int               `json:"page_size" validate:"min=0,max=100"`
}

// Default returns the state a freshly opened desk starts with.
func Default() State {
	return State{
		DateRange: domain.DateRangeAll,
		SortBy:    DefaultSortBy,
		SortOrder: domain.SortDesc,
		Page:      1,
		PageSize:  DefaultPageSize,
	}
}

// StatsAffected reports whether moving from prev to next should reload the
// dashboard stats. Only the date range and status facets do.
func StatsAffected(prev, next State) bool {
	return prev.DateRange != next.DateRange || !slices.Equal(prev.Status, next.Status)
}

// APIFilters is the normalized query for GET /inquiries. Empty fields are
// not sent.
type APIFilters struct {
	Status       string
	Priority     string
	InquiryType  string
	AssignedTo   string
	Search       string
	CreatedAtGTE string
	Ordering     string
	Page         int
	PageSize     int
}

// Build computes the API filters for state relative to now. Date bounds are
// derived from now on every call.
func Build(state State, now time.Time) APIFilters {
	var f APIFilters

	if len(state.Status) > 0 {
		parts := make([]string, len(state.Status))
		for i, s := range state.Status {
			parts[i] = string(s)
		}
		f.Status = strings.Join(parts, ",")
	}

	// Only the first selected priority is forwarded.
	if len(state.Priority) > 0 {
		f.Priority = string(state.Priority[0])
	}

	f.InquiryType = state.InquiryType
	f.AssignedTo = assignee(state.AssignedTo)

	if strings.TrimSpace(state.Search) != "" {
		f.Search = state.Search
	}

	if since, ok := lowerBound(state.DateRange, now); ok {
		f.CreatedAtGTE = since.UTC().Format(TimestampLayout)
	}

	f.Ordering = ordering(state.SortBy, state.SortOrder)

	if state.Page > 0 {
		f.Page = state.Page
	}
	if state.PageSize > 0 {
		f.PageSize = state.PageSize
	}
	return f
}

func assignee(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if raw == domain.AssignedUnassigned {
		return raw
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return ""
	}
	return strconv.FormatInt(id, 10)
}

func lowerBound(r domain.DateRange, now time.Time) (time.Time, bool) {
	switch r {
	case domain.DateRangeToday:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), true
	case domain.DateRangeWeek:
		return now.AddDate(0, 0, -7), true
	case domain.DateRangeMonth:
		return now.AddDate(0, -1, 0), true
	default:
		return time.Time{}, false
	}
}

func ordering(sortBy string, order domain.SortOrder) string {
	field := strings.TrimSpace(sortBy)
	if field == "" {
		field = DefaultSortBy
	}
	field = strings.TrimPrefix(field, "-")
	if order == domain.SortAsc {
		return field
	}
	return "-" + field
}

// Values encodes the filters as query parameters.
func (f APIFilters) Values() url.Values {
	v := url.Values{}
	set := func(key, value string) {
		if value != "" {
			v.Set(key, value)
		}
	}
	set("status", f.Status)
	set("priority", f.Priority)
	set("inquiry_type", f.InquiryType)
	set("assigned_to", f.AssignedTo)
	set("search", f.Search)
	set("created_at__gte", f.CreatedAtGTE)
	set("ordering", f.Ordering)
	if f.Page > 0 {
		v.Set("page", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(f.PageSize))
	}
	return v
}

// WithoutPaging drops page and page_size, as used by the export endpoint.
func (f APIFilters) WithoutPaging() APIFilters {
	f.Page = 0
	f.PageSize = 0
	return f
}

// Key is a canonical cache key: the encoded query with keys sorted.
func (f APIFilters) Key() string {
	return f.Values().Encode()
}

// RegisterValidations installs the custom tags State uses.
func RegisterValidations(v *validator.Validator) error {
	if err := v.RegisterOneOf("inquiry_status", domain.StatusValues()...); err != nil {
		return err
	}
	if err := v.RegisterOneOf("inquiry_priority", domain.PriorityValues()...); err != nil {
		return err
	}
	return v.RegisterOneOf("date_range", domain.DateRangeValues()...)
}
