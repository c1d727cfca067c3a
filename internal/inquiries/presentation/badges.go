// Package presentation maps inquiry enums to display metadata. Every mapping
// has a default arm so values the server adds later still render.
package presentation

import (
	"strings"

	"inquiry_desk/internal/inquiries/domain"
)

// Tone is the semantic color family of a badge.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneDanger  Tone = "danger"
	ToneAccent  Tone = "accent"
)

// NeutralClass styles values the desk does not recognise.
const NeutralClass = "bg-gray-100 text-gray-800"

// Badge is what a view needs to render an enum value.
type Badge struct {
	Label string `json:"label"`
	Class string `json:"class"`
	Icon  string `json:"icon"`
	Tone  Tone   `json:"tone"`
}

// Status maps an inquiry status to its badge.
func Status(s domain.Status) Badge {
	switch s {
	case domain.StatusPending:
		return Badge{Label: "Pending", Class: "bg-yellow-100 text-yellow-800", Icon: "clock", Tone: ToneWarning}
	case domain.StatusContacted:
		return Badge{Label: "Contacted", Class: "bg-blue-100 text-blue-800", Icon: "phone", Tone: ToneInfo}
	case domain.StatusViewingScheduled:
		return Badge{Label: "Viewing Scheduled", Class: "bg-purple-100 text-purple-800", Icon: "calendar", Tone: ToneAccent}
	case domain.StatusFollowUp:
		return Badge{Label: "Follow Up", Class: "bg-orange-100 text-orange-800", Icon: "refresh", Tone: ToneWarning}
	case domain.StatusClosed:
		return Badge{Label: "Closed", Class: "bg-green-100 text-green-800", Icon: "check-circle", Tone: ToneSuccess}
	case domain.StatusSpam:
		return Badge{Label: "Spam", Class: "bg-red-100 text-red-800", Icon: "ban", Tone: ToneDanger}
	default:
		return fallback(string(s))
	}
}

// Priority maps an inquiry priority to its badge.
func Priority(p domain.Priority) Badge {
	switch p {
	case domain.PriorityLow:
		return Badge{Label: "Low", Class: "bg-gray-100 text-gray-700", Icon: "arrow-down", Tone: ToneNeutral}
	case domain.PriorityMedium:
		return Badge{Label: "Medium", Class: "bg-blue-100 text-blue-700", Icon: "minus", Tone: ToneInfo}
	case domain.PriorityHigh:
		return Badge{Label: "High", Class: "bg-orange-100 text-orange-700", Icon: "arrow-up", Tone: ToneWarning}
	case domain.PriorityUrgent:
		return Badge{Label: "Urgent", Class: "bg-red-100 text-red-700", Icon: "alert-triangle", Tone: ToneDanger}
	default:
		return fallback(string(p))
	}
}

// ContactPreference maps a contact preference to its badge.
func ContactPreference(c domain.ContactPreference) Badge {
	switch c {
	case domain.ContactCall:
		return Badge{Label: "Call", Class: "text-green-600", Icon: "phone", Tone: ToneSuccess}
	case domain.ContactEmail:
		return Badge{Label: "Email", Class: "text-blue-600", Icon: "mail", Tone: ToneInfo}
	case domain.ContactWhatsApp:
		return Badge{Label: "WhatsApp", Class: "text-emerald-600", Icon: "message-circle", Tone: ToneSuccess}
	case domain.ContactAny:
		return Badge{Label: "Any", Class: "text-gray-600", Icon: "message-square", Tone: ToneNeutral}
	default:
		return fallback(string(c))
	}
}

func fallback(raw string) Badge {
	label := strings.TrimSpace(raw)
	if label == "" {
		label = "Unknown"
	}
	return Badge{Label: label, Class: NeutralClass, Icon: "help-circle", Tone: ToneNeutral}
}
