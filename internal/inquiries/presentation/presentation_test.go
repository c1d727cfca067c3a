package presentation

import (
	"strings"
	"testing"

	"inquiry_desk/internal/inquiries/domain"
)

func TestStatus_KnownValues(t *testing.T) {
	for _, s := range domain.Statuses {
		b := Status(s)
		if b.Class == NeutralClass {
			t.Fatalf("status %q fell through to the neutral badge", s)
		}
		if b.Label == "" || b.Icon == "" {
			t.Fatalf("status %q has incomplete badge %+v", s, b)
		}
	}
	if got := Status(domain.StatusViewingScheduled).Label; got != "Viewing Scheduled" {
		t.Fatalf("unexpected label %q", got)
	}
}

func TestPriority_KnownValues(t *testing.T) {
	for _, p := range domain.Priorities {
		if b := Priority(p); b.Label == "" || b.Icon == "" {
			t.Fatalf("priority %q has incomplete badge %+v", p, b)
		}
	}
	if Priority(domain.PriorityUrgent).Tone != ToneDanger {
		t.Fatalf("urgent should render with danger tone")
	}
}

func TestUnknownValuesRenderRawWithNeutralStyle(t *testing.T) {
	cases := []Badge{
		Status("awaiting_documents"),
		Priority("critical"),
		ContactPreference("telegram"),
	}
	wantLabels := []string{"awaiting_documents", "critical", "telegram"}
	for i, b := range cases {
		if b.Label != wantLabels[i] {
			t.Fatalf("expected raw label %q, got %q", wantLabels[i], b.Label)
		}
		if b.Class != NeutralClass || b.Tone != ToneNeutral {
			t.Fatalf("expected neutral styling for %q, got %+v", wantLabels[i], b)
		}
	}
	if Status("").Label != "Unknown" {
		t.Fatalf("empty status should render as Unknown")
	}
}

func TestContactLink_WhatsAppUsesInternationalDigits(t *testing.T) {
	inq := domain.Inquiry{
		FullName:          "Selam T.",
		Phone:             "0911 234 567",
		ContactPreference: domain.ContactWhatsApp,
	}

	link, ok := ContactLink(inq, "ET")
	if !ok {
		t.Fatalf("expected a link")
	}
	if link.Href != "https://wa.me/251911234567" {
		t.Fatalf("unexpected href %q", link.Href)
	}
}

func TestContactLink_CallPrefersRegisteredUserPhone(t *testing.T) {
	inq := domain.Inquiry{
		User:              &domain.UserRef{ID: 3, Email: "dawit@example.com", Phone: "+251911234567"},
		ContactPreference: domain.ContactCall,
	}

	link, ok := ContactLink(inq, "ET")
	if !ok || link.Href != "tel:+251911234567" {
		t.Fatalf("unexpected link %+v", link)
	}
}

func TestContactLink_EmailFallsBackToPhone(t *testing.T) {
	inq := domain.Inquiry{FullName: "Anon", Phone: "+251911234567", ContactPreference: domain.ContactEmail}

	link, ok := ContactLink(inq, "ET")
	if !ok || link.Kind != domain.ContactCall {
		t.Fatalf("expected phone fallback, got %+v", link)
	}
}

func TestContactLink_EmailWithSubject(t *testing.T) {
	inq := domain.Inquiry{
		FullName:          "Anon",
		Email:             "buyer@example.com",
		ContactPreference: domain.ContactEmail,
		Property:          domain.PropertySummary{Title: "Bole Apartment"},
	}

	link, ok := ContactLink(inq, "ET")
	if !ok {
		t.Fatalf("expected a link")
	}
	if !strings.HasPrefix(link.Href, "mailto:buyer@example.com?subject=") || !strings.Contains(link.Href, "Bole%20Apartment") {
		t.Fatalf("unexpected href %q", link.Href)
	}
}

func TestContactLink_NoChannel(t *testing.T) {
	if _, ok := ContactLink(domain.Inquiry{FullName: "Anon"}, "ET"); ok {
		t.Fatalf("expected no link without phone or email")
	}
}
