package customer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/viewsync/internal/confirm"
	"github.com/bnema/viewsync/internal/domain"
	"github.com/bnema/viewsync/internal/presence"
)

type RenderOptions struct {
	Now time.Time
}

// Detail is everything shown on the customer detail screen.
type Detail struct {
	Customer *domain.Customer
	// Viewers and Editors are the other users holding the customer in
	// detail and update mode.
	Viewers []presence.User
	Editors []presence.User
	Dirty   bool
}

func RenderDetail(d Detail, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return detailView(d, opts, s) })
}

func RenderList(customers []*domain.Customer, opts RenderOptions) (string, error) {
	return run(func(s styles) string { return listView(customers, opts, s) })
}

func RenderRequest(req confirm.Request) (string, error) {
	return run(func(s styles) string { return requestView(req, s) })
}

// RenderEvent formats one presence event line for watch output.
func RenderEvent(at time.Time, event string, r domain.Resource, users ...presence.User) (string, error) {
	return run(func(s styles) string { return eventLine(at, event, r, users, s) })
}

func detailView(d Detail, opts RenderOptions, s styles) string {
	c := d.Customer
	title := s.title.Render(fmt.Sprintf("%s (#%d)", c.DisplayName(), c.ID))
	if d.Dirty {
		title += " " + s.warning.Render("[unsaved changes]")
	}

	lines := []string{title}
	if banner := presenceBanner(d.Viewers, d.Editors, s); banner != "" {
		lines = append(lines, banner)
	}

	fields := []string{
		field("email", c.Email, s),
		field("phone", c.Phone, s),
		field("note", c.Note, s),
		field("updated", formatUpdated(c.UpdatedAt, opts.Now), s),
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, fields...)))

	contactLines := []string{s.header.Render(fmt.Sprintf("contacts: %d", c.Contacts.Len()))}
	if c.Contacts.Len() == 0 {
		contactLines = append(contactLines, s.empty.Render("No contacts."))
	}
	for i, contact := range c.Contacts.All() {
		contactLines = append(contactLines, contactLine(i, contact, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, contactLines...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func listView(customers []*domain.Customer, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render("Customers"),
		s.header.Render(fmt.Sprintf("customers: %d", len(customers))),
	}
	if len(customers) == 0 {
		lines = append(lines, s.empty.Render("No customers yet."))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	for _, c := range customers {
		row := fmt.Sprintf("%4d  %s", c.ID, c.DisplayName())
		if primary, ok := c.PrimaryContact(); ok {
			row += s.label.Render("  contact: ") + s.detail.Render(primary.Name)
		}
		row += s.label.Render("  " + formatUpdated(c.UpdatedAt, opts.Now))
		lines = append(lines, row)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func requestView(req confirm.Request, s styles) string {
	var titleStyle lipgloss.Style
	switch {
	case req.Kind.IsQuestion():
		titleStyle = s.question
	case req.Kind == confirm.KindSubmissionSuccess || req.Kind == confirm.KindDataUnchanged:
		titleStyle = s.success
	default:
		titleStyle = s.warning
	}

	lines := []string{titleStyle.Render(req.Kind.Title()), s.detail.Render(req.Kind.Message())}
	if req.Payload.Detail != "" {
		lines = append(lines, s.label.Render(req.Payload.Detail))
	}
	for _, line := range req.Payload.Lines() {
		lines = append(lines, s.warning.Render("• ")+s.detail.Render(line))
	}
	if req.Kind.IsQuestion() {
		lines = append(lines, s.header.Render("[y/N]"))
	}
	return s.dialog.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func eventLine(at time.Time, event string, r domain.Resource, users []presence.User, s styles) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.String())
	}
	who := strings.Join(names, ", ")
	if who == "" {
		who = "-"
	}

	userStyle := s.viewer
	if r.Mode == domain.AccessModeUpdate {
		userStyle = s.editor
	}

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.label.Render(at.Format("15:04:05")),
		" ",
		s.header.Render(fmt.Sprintf("%-8s", event)),
		" ",
		s.detail.Render(r.String()),
		" ",
		userStyle.Render(who),
	)
}

func presenceBanner(viewers, editors []presence.User, s styles) string {
	var parts []string
	if len(editors) > 0 {
		parts = append(parts, s.editor.Render("being edited by "+joinUsers(editors)))
	}
	if len(viewers) > 0 {
		parts = append(parts, s.viewer.Render("viewed by "+joinUsers(viewers)))
	}
	return strings.Join(parts, s.label.Render(" · "))
}

func joinUsers(users []presence.User) string {
	names := make([]string, 0, len(users))
	for _, u := range users {
		names = append(names, u.String())
	}
	return strings.Join(names, ", ")
}

func field(name, value string, s styles) string {
	if strings.TrimSpace(value) == "" {
		value = s.empty.Render("-")
	} else {
		value = s.detail.Render(value)
	}
	return s.label.Render(fmt.Sprintf("%-8s", name+":")) + value
}

func contactLine(i int, c *domain.Contact, s styles) string {
	line := fmt.Sprintf("%2d. %s", i, c.Name)
	if c.Role != "" {
		line += s.label.Render(" (" + c.Role + ")")
	}
	if c.Email != "" {
		line += " " + s.detail.Render(c.Email)
	}
	if c.Primary {
		line += " " + s.primary.Render("[primary]")
	}
	return line
}

func formatUpdated(updatedAt, now time.Time) string {
	if updatedAt.IsZero() {
		return "never saved"
	}
	if now.IsZero() {
		return "updated " + updatedAt.Format(time.RFC3339)
	}

	elapsed := now.Sub(updatedAt)
	switch {
	case elapsed < time.Minute:
		return "updated just now"
	case elapsed < time.Hour:
		return plural("updated %d %s ago", int(elapsed.Minutes()), "minute")
	case elapsed < 24*time.Hour:
		return plural("updated %d %s ago", int(elapsed.Hours()), "hour")
	default:
		days := int(math.Floor(elapsed.Hours() / 24))
		return plural("updated %d %s ago", days, "day")
	}
}

func plural(format string, n int, unit string) string {
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf(format, n, unit)
}
