package domain

// Status is the lifecycle state of an inquiry.
type Status string

const (
	StatusPending          Status = "pending"
	StatusContacted        Status = "contacted"
	StatusViewingScheduled Status = "viewing_scheduled"
	StatusFollowUp         Status = "follow_up"
	StatusClosed           Status = "closed"
	StatusSpam             Status = "spam"
)

// Statuses lists every status the desk knows about, in workflow order.
var Statuses = []Status{
	StatusPending,
	StatusContacted,
	StatusViewingScheduled,
	StatusFollowUp,
	StatusClosed,
	StatusSpam,
}

// Known reports whether s is one of Statuses.
func (s Status) Known() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Priority ranks how quickly an inquiry needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every known priority, lowest first.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// ContactPreference is how the submitter asked to be reached.
type ContactPreference string

const (
	ContactCall     ContactPreference = "call"
	ContactEmail    ContactPreference = "email"
	ContactWhatsApp ContactPreference = "whatsapp"
	ContactAny      ContactPreference = "any"
)

// DateRange is a relative lower bound on created_at.
type DateRange string

const (
	DateRangeToday DateRange = "today"
	DateRangeWeek  DateRange = "week"
	DateRangeMonth DateRange = "month"
	DateRangeAll   DateRange = "all"
)

// SortOrder is the direction of the list ordering.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// AssignedUnassigned is the literal assigned_to filter for leads with no agent.
const AssignedUnassigned = "unassigned"

func statusStrings() []string {
	out := make([]string, len(Statuses))
	for i, s := range Statuses {
		out[i] = string(s)
	}
	return out
}

func priorityStrings() []string {
	out := make([]string, len(Priorities))
	for i, p := range Priorities {
		out[i] = string(p)
	}
	return out
}

// StatusValues returns the statuses as plain strings for validator registration.
func StatusValues() []string { return statusStrings() }

// PriorityValues returns the priorities as plain strings for validator registration.
func PriorityValues() []string { return priorityStrings() }

// DateRangeValues returns the supported date ranges.
func DateRangeValues() []string {
	return []string{string(DateRangeToday), string(DateRangeWeek), string(DateRangeMonth), string(DateRangeAll)}
}
