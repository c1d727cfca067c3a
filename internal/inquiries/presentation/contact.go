package presentation

import (
	"net/url"
	"strings"

	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/platform/phone"
)

// Link is a one-click way to reach the submitter.
type Link struct {
	Kind  domain.ContactPreference `json:"kind"`
	Href  string                   `json:"href"`
	Label string                   `json:"label"`
}

// ContactLink builds the link matching the submitter's preference, falling
// back to whatever channel the inquiry actually carries. Phone numbers are
// parsed in region when they lack a country code.
func ContactLink(inq domain.Inquiry, region string) (Link, bool) {
	rawPhone := inq.SubmitterPhone()
	email := strings.TrimSpace(inq.SubmitterEmail())

	switch inq.ContactPreference {
	case domain.ContactWhatsApp:
		if l, ok := whatsAppLink(rawPhone, region); ok {
			return l, true
		}
		if l, ok := telLink(rawPhone, region); ok {
			return l, true
		}
		return mailLink(email, inq.Property.Title)
	case domain.ContactEmail:
		if l, ok := mailLink(email, inq.Property.Title); ok {
			return l, true
		}
		return telLink(rawPhone, region)
	default:
		if l, ok := telLink(rawPhone, region); ok {
			return l, true
		}
		return mailLink(email, inq.Property.Title)
	}
}

func telLink(raw, region string) (Link, bool) {
	if strings.TrimSpace(raw) == "" {
		return Link{}, false
	}
	number := phone.NormalizeE164(raw, region)
	return Link{Kind: domain.ContactCall, Href: "tel:" + number, Label: number}, true
}

func whatsAppLink(raw, region string) (Link, bool) {
	digits, ok := phone.WhatsAppDigits(raw, region)
	if !ok {
		return Link{}, false
	}
	return Link{Kind: domain.ContactWhatsApp, Href: "https://wa.me/" + digits, Label: "+" + digits}, true
}

func mailLink(email, propertyTitle string) (Link, bool) {
	if email == "" {
		return Link{}, false
	}
	href := "mailto:" + email
	if t := strings.TrimSpace(propertyTitle); t != "" {
		href += "?subject=" + url.PathEscape("Re: "+t)
	}
	return Link{Kind: domain.ContactEmail, Href: href, Label: email}, true
}
