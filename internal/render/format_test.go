package render_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"elearning_go/internal/domain"
	"elearning_go/internal/messenger"
	"elearning_go/internal/render"
)

func TestStats(t *testing.T) {
	assert.Equal(t, "Enrolled courses: 4", render.Stats(domain.StudentStats{EnrolledCourses: 4}))
	teacher := render.Stats(domain.TeacherStats{Courses: []domain.CourseRef{{ID: 1, Title: "Go"}, {ID: 2, Title: "SQL"}}})
	assert.Contains(t, teacher, "Teaching:")
	assert.Contains(t, teacher, "Go")
	assert.Contains(t, teacher, "SQL")
	assert.Empty(t, render.Stats(nil))
}

func TestProfileShowsOnlyOneStatsKind(t *testing.T) {
	out := render.Profile(&domain.Profile{Username: "prof", FullName: "Prof X", Role: "TEACHER", Bio: "hello",
		Stats: domain.TeacherStats{Courses: []domain.CourseRef{{Title: "Go"}}}})
	assert.Contains(t, out, "Prof X")
	assert.Contains(t, out, "Teacher")
	assert.Contains(t, out, "hello")
	assert.NotContains(t, out, "Enrolled")
}

func TestListItem(t *testing.T) {
	it := messenger.ListItem{
		Conversation: domain.ConversationSummary{ID: 5, Name: "Ali", Time: "10:15"},
		Preview:      "You: hello there",
		Unread:       3,
	}
	out := render.ListItem(it, 0)
	assert.Contains(t, out, "Ali")
	assert.Contains(t, out, "You: hello there")
	assert.Contains(t, out, "3")

	it.Active = true
	it.Unread = 0
	assert.NotContains(t, render.ListItem(it, 0), " 3")

	it.Preview = ""
	assert.Contains(t, render.ListItem(it, 0), "No messages yet")
}

func TestPrinterSearchViews(t *testing.T) {
	var buf bytes.Buffer
	p := render.NewPrinter(&buf)
	p.ShowResults(domain.RoleStudent, []domain.UserSummary{{ID: 1, Username: "ali", FullName: "Ali A"}})
	p.ShowEmpty(domain.RoleStudent)
	p.Alert("Unable to load profile.")

	out := buf.String()
	assert.Contains(t, out, "Ali A")
	assert.Contains(t, out, "@ali")
	assert.Contains(t, out, "No students found")
	assert.Contains(t, out, "Unable to load profile.")
}
