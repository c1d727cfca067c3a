// Package domain holds the inquiry desk's data model as the marketplace API
// serves it. Field names follow the API's snake_case wire format.
package domain

import (
	"errors"
	"strings"
	"time"
)

// PropertyImage is one picture of a listed property.
type PropertyImage struct {
	URL       string `json:"image"`
	IsPrimary bool   `json:"is_primary"`
}

// PropertySummary is the slice of a listing embedded in each inquiry.
type PropertySummary struct {
	ID          int64           `json:"id"`
	Title       string          `json:"title"`
	City        string          `json:"city"`
	SubCity     string          `json:"sub_city,omitempty"`
	ListingType string          `json:"listing_type,omitempty"`
	Price       *float64        `json:"price_etb,omitempty"`
	MonthlyRent *float64        `json:"monthly_rent,omitempty"`
	Images      []PropertyImage `json:"images,omitempty"`
}

// PrimaryImage returns the image flagged primary, else the first one.
func (p PropertySummary) PrimaryImage() (PropertyImage, bool) {
	for _, img := range p.Images {
		if img.IsPrimary {
			return img, true
		}
	}
	if len(p.Images) > 0 {
		return p.Images[0], true
	}
	return PropertyImage{}, false
}

// UserRef identifies a registered user or agent.
type UserRef struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number,omitempty"`
}

// DisplayName returns "First Last", falling back to the email.
func (u UserRef) DisplayName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}

// Inquiry is a lead: someone asking about a property.
type Inquiry struct {
	ID                int64             `json:"id"`
	Message           string            `json:"message"`
	Status            Status            `json:"status"`
	Priority          Priority          `json:"priority"`
	ContactPreference ContactPreference `json:"contact_preference"`
	InquiryType       string            `json:"inquiry_type"`
	Property          PropertySummary   `json:"property"`

	// Registered submitter; nil for anonymous submissions.
	User *UserRef `json:"user"`
	// Anonymous submitter fields.
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`

	AssignedTo       *UserRef   `json:"assigned_to"`
	Tags             []string   `json:"tags"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	RespondedAt      *time.Time `json:"responded_at"`
	ScheduledViewing *time.Time `json:"scheduled_viewing"`
	ViewingAddress   string     `json:"viewing_address,omitempty"`
	ResponseTime     *float64   `json:"response_time"`
	IsUrgent         bool       `json:"is_urgent"`
	ResponseNotes    string     `json:"response_notes"`
	InternalNotes    string     `json:"internal_notes"`
}

// IsAnonymous reports whether the inquiry was submitted without an account.
func (i Inquiry) IsAnonymous() bool {
	return i.User == nil
}

// SubmitterName is the name shown for whoever sent the inquiry.
func (i Inquiry) SubmitterName() string {
	if i.User != nil {
		return i.User.DisplayName()
	}
	return i.FullName
}

// SubmitterEmail is the reply address of whoever sent the inquiry.
func (i Inquiry) SubmitterEmail() string {
	if i.User != nil {
		return i.User.Email
	}
	return i.Email
}

// SubmitterPhone is the phone number of whoever sent the inquiry.
func (i Inquiry) SubmitterPhone() string {
	if i.User != nil && i.User.Phone != "" {
		return i.User.Phone
	}
	return i.Phone
}

// IsAssigned reports whether an agent owns the inquiry.
func (i Inquiry) IsAssigned() bool {
	return i.AssignedTo != nil
}

var (
	ErrAmbiguousSubmitter    = errors.New("inquiry has both a registered user and an anonymous name")
	ErrMissingSubmitter      = errors.New("inquiry has neither a registered user nor an anonymous name")
	ErrRespondedWhilePending = errors.New("inquiry has responded_at but is still pending")
)

// Validate checks the record invariants. The desk never rejects server data
// because of them; callers log the result.
func (i Inquiry) Validate() error {
	var errs []error
	hasName := strings.TrimSpace(i.FullName) != ""
	switch {
	case i.User != nil && hasName:
		errs = append(errs, ErrAmbiguousSubmitter)
	case i.User == nil && !hasName:
		errs = append(errs, ErrMissingSubmitter)
	}
	if i.RespondedAt != nil && i.Status == StatusPending {
		errs = append(errs, ErrRespondedWhilePending)
	}
	return errors.Join(errs...)
}

// Page is one server-side page of inquiries.
type Page struct {
	Results  []Inquiry `json:"results"`
	Count    int       `json:"count"`
	Next     *string   `json:"next"`
	Previous *string   `json:"previous"`
}

// IDs returns the ids of the loaded rows in page order.
func (p Page) IDs() []int64 {
	ids := make([]int64, len(p.Results))
	for i, inq := range p.Results {
		ids[i] = inq.ID
	}
	return ids
}

// ActivityEvent is one entry of an inquiry's timeline.
type ActivityEvent struct {
	ID          int64          `json:"id"`
	Kind        string         `json:"activity_type"`
	Description string         `json:"description"`
	Actor       *UserRef       `json:"user"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// DashboardStats is the latest aggregate snapshot for the desk header.
type DashboardStats struct {
	TotalInquiries       int            `json:"total_inquiries"`
	PendingInquiries     int            `json:"pending_inquiries"`
	UnassignedInquiries  int            `json:"unassigned_inquiries"`
	UrgentInquiries      int            `json:"urgent_inquiries"`
	AvgResponseTimeHours *float64       `json:"avg_response_time_hours"`
	ResponseRate         float64        `json:"response_rate"`
	ConversionRate       float64        `json:"conversion_rate"`
	ByStatus             map[string]int `json:"by_status,omitempty"`
}

// ExportJob describes an export the API started in the background.
type ExportJob struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	DownloadURL string `json:"download_url,omitempty"`
	Message     string `json:"message,omitempty"`
}
