package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"inquiry_desk/internal/inquiries/console"
	"inquiry_desk/internal/inquiries/domain"
	"inquiry_desk/internal/inquiries/presentation"
)

const timeLayout = "2006-01-02 15:04"

// printer renders views with colored badges. Colors degrade to plain text
// when out is not a terminal.
type printer struct {
	out    io.Writer
	r      *lipgloss.Renderer
	header lipgloss.Style
	muted  lipgloss.Style
	tones  map[presentation.Tone]lipgloss.Style
}

func newPrinter(out io.Writer) *printer {
	r := lipgloss.NewRenderer(out)
	badge := func(color string) lipgloss.Style {
		return r.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
	}
	return &printer{
		out:    out,
		r:      r,
		header: r.NewStyle().Foreground(lipgloss.Color("241")).Bold(true),
		muted:  r.NewStyle().Foreground(lipgloss.Color("244")),
		tones: map[presentation.Tone]lipgloss.Style{
			presentation.ToneNeutral: badge("250"),
			presentation.ToneInfo:    badge("39"),
			presentation.ToneSuccess: badge("42"),
			presentation.ToneWarning: badge("214"),
			presentation.ToneDanger:  badge("196"),
			presentation.ToneAccent:  badge("171"),
		},
	}
}

func (p *printer) badge(b presentation.Badge, width int) string {
	style, ok := p.tones[b.Tone]
	if !ok {
		style = p.tones[presentation.ToneNeutral]
	}
	return style.Width(width).Render(b.Label)
}

func (p *printer) cell(s string, width int) string {
	if r := []rune(s); len(r) > width-1 {
		s = string(r[:width-2]) + "…"
	}
	return p.r.NewStyle().Width(width).Render(s)
}

// List prints the rows of a list view.
func (p *printer) List(v console.ListView) {
	fmt.Fprintln(p.out, p.header.Render(fmt.Sprintf("%-7s %-19s %-9s %-22s %-26s %s", "ID", "STATUS", "PRIORITY", "SUBMITTER", "PROPERTY", "CONTACT")))
	for _, row := range v.Rows {
		contact := "-"
		if row.Link != nil {
			contact = row.Link.Href
		}
		fmt.Fprintln(p.out, strings.Join([]string{
			p.cell(fmt.Sprintf("#%d", row.Inquiry.ID), 7),
			p.badge(row.Status, 19),
			p.badge(row.Priority, 9),
			p.cell(row.Inquiry.SubmitterName(), 22),
			p.cell(row.Inquiry.Property.Title, 26),
			contact,
		}, " "))
	}
	fmt.Fprintln(p.out, p.muted.Render(fmt.Sprintf("%d of %d inquiries", len(v.Rows), v.Count)))
}

// Stats prints the dashboard numbers.
func (p *printer) Stats(s domain.DashboardStats) {
	line := func(label string, value string) {
		fmt.Fprintf(p.out, "%s %s\n", p.header.Width(24).Render(label), value)
	}
	line("Total", fmt.Sprint(s.TotalInquiries))
	line("Pending", fmt.Sprint(s.PendingInquiries))
	line("Unassigned", fmt.Sprint(s.UnassignedInquiries))
	line("Urgent", fmt.Sprint(s.UrgentInquiries))
	avg := "-"
	if s.AvgResponseTimeHours != nil {
		avg = fmt.Sprintf("%.1fh", *s.AvgResponseTimeHours)
	}
	line("Avg. response time", avg)
	line("Response rate", fmt.Sprintf("%.1f%%", s.ResponseRate))
	line("Conversion rate", fmt.Sprintf("%.1f%%", s.ConversionRate))
}

// Detail prints one inquiry and its timeline.
func (p *printer) Detail(v console.DetailView) {
	inq := v.Inquiry
	fmt.Fprintf(p.out, "%s  %s %s\n", p.header.Render(fmt.Sprintf("Inquiry #%d", inq.ID)), p.badge(v.Status, 0), p.badge(v.Priority, 0))
	fmt.Fprintf(p.out, "Submitter: %s", inq.SubmitterName())
	if inq.IsAnonymous() {
		fmt.Fprint(p.out, p.muted.Render(" (guest)"))
	}
	fmt.Fprintln(p.out)
	if v.Link != nil {
		fmt.Fprintf(p.out, "Contact:   %s %s\n", p.badge(v.Contact, 0), v.Link.Href)
	}
	if inq.Property.Title != "" {
		fmt.Fprintf(p.out, "Property:  %s\n", inq.Property.Title)
	}
	if inq.AssignedTo != nil {
		fmt.Fprintf(p.out, "Assigned:  %s\n", inq.AssignedTo.DisplayName())
	}
	if inq.Message != "" {
		fmt.Fprintf(p.out, "\n%s\n", inq.Message)
	}
	if v.ActivityError != "" {
		fmt.Fprintln(p.out, p.muted.Render("Activity unavailable: "+v.ActivityError))
		return
	}
	if len(v.Activity) == 0 {
		return
	}
	fmt.Fprintln(p.out, "\n"+p.header.Render("Activity"))
	for _, a := range v.Activity {
		fmt.Fprintf(p.out, "%s  %s\n", p.muted.Render(a.CreatedAt.Local().Format(timeLayout)), a.Description)
	}
}
