package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"elearning_go/internal/domain"
	"elearning_go/internal/messenger"
)

// Card renders one search result.
func Card(u domain.UserSummary) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(u.DisplayName()))
	b.WriteString(" ")
	b.WriteString(MutedStyle.Render("@" + u.Username))
	if u.Email != "" {
		b.WriteString("\n" + u.Email)
	}
	if u.Location != "" {
		b.WriteString("\n" + MutedStyle.Render(u.Location))
	}
	if u.EnrolledCourses != nil {
		fmt.Fprintf(&b, "\nEnrolled courses: %d", *u.EnrolledCourses)
	}
	return CardStyle.Render(b.String())
}

// Profile renders a full profile including its role-specific stats.
func Profile(p *domain.Profile) string {
	lines := []string{
		TitleStyle.Render(p.DisplayName()) + " " + MutedStyle.Render("@"+p.Username),
	}
	if p.Role != "" {
		lines = append(lines, roleLabel(p.Role))
	}
	for _, f := range []struct{ label, value string }{
		{"Email", p.Email},
		{"Location", p.Location},
		{"Joined", p.Joined},
	} {
		if f.value != "" {
			lines = append(lines, MutedStyle.Render(f.label+": ")+f.value)
		}
	}
	if p.Bio != "" {
		lines = append(lines, "", p.Bio)
	}
	if s := Stats(p.Stats); s != "" {
		lines = append(lines, "", s)
	}
	return CardStyle.Render(strings.Join(lines, "\n"))
}

// Stats renders student or teacher stats. Nil stats render as nothing.
func Stats(s domain.ProfileStats) string {
	switch s := s.(type) {
	case domain.StudentStats:
		return fmt.Sprintf("Enrolled courses: %d", s.EnrolledCourses)
	case domain.TeacherStats:
		var b strings.Builder
		b.WriteString("Teaching:")
		for _, c := range s.Courses {
			b.WriteString("\n  • " + c.Title)
		}
		return b.String()
	default:
		return ""
	}
}

// LegacyProfile renders the short profile used by the chat header.
func LegacyProfile(p *domain.LegacyProfile) string {
	out := TitleStyle.Render(p.FullName)
	if p.Role != "" {
		out += " " + MutedStyle.Render(roleLabel(p.Role))
	}
	if p.Avatar != "" {
		out += "\n" + MutedStyle.Render(p.Avatar)
	}
	return out
}

// ListItem renders a conversation row, truncated to width when positive.
func ListItem(it messenger.ListItem, width int) string {
	name := it.Conversation.Name
	if name == "" {
		name = "Conversation " + it.Conversation.ID.String()
	}
	head := name
	if it.Conversation.Time != "" {
		head += " " + MutedStyle.Render(it.Conversation.Time)
	}
	if it.Unread > 0 && !it.Active {
		head += " " + BadgeStyle.Render(fmt.Sprint(it.Unread))
	}
	preview := it.Preview
	if preview == "" {
		preview = "No messages yet"
	}
	if width > 4 {
		preview = truncate(preview, width-4)
	}
	row := head + "\n" + MutedStyle.Render(preview)
	if it.Active {
		return SelectedItemStyle.Render(row)
	}
	return ItemStyle.Render(row)
}

// Bubble renders one chat message.
func Bubble(b messenger.Bubble) string {
	style := OtherMessageStyle
	who := "them"
	if b.Mine {
		style = OwnMessageStyle
		who = "you"
	}
	line := style.Render(who+":") + " " + b.Content
	if b.CreatedAt != "" {
		line += " " + MutedStyle.Render(b.CreatedAt)
	}
	return line
}

func roleLabel(role string) string {
	r, err := domain.ParseRole(role)
	if err != nil || r == "" {
		return role
	}
	return r.Display()
}

func truncate(s string, n int) string {
	if lipgloss.Width(s) <= n {
		return s
	}
	r := []rune(s)
	if n <= 1 || len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
