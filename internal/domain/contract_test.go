package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning_go/internal/domain"
)

func TestProfileStatsDiscrimination(t *testing.T) {
	t.Run("Student", func(t *testing.T) {
		var p domain.Profile
		require.NoError(t, json.Unmarshal([]byte(`{"id":3,"username":"ali","role":"Student","enrolled_courses":4}`), &p))
		assert.Equal(t, domain.StudentStats{EnrolledCourses: 4}, p.Stats)
	})

	t.Run("StudentWithZeroCourses", func(t *testing.T) {
		var p domain.Profile
		require.NoError(t, json.Unmarshal([]byte(`{"id":3,"username":"ali","enrolled_courses":0}`), &p))
		assert.Equal(t, domain.StudentStats{EnrolledCourses: 0}, p.Stats)
	})

	t.Run("Teacher", func(t *testing.T) {
		var p domain.Profile
		require.NoError(t, json.Unmarshal([]byte(`{"id":7,"username":"prof","enrolled_courses":null,"teaching_courses":[{"id":1,"title":"Go"}]}`), &p))
		stats, ok := p.Stats.(domain.TeacherStats)
		require.True(t, ok)
		assert.Equal(t, "Go", stats.Courses[0].Title)
	})

	t.Run("Neither", func(t *testing.T) {
		var p domain.Profile
		require.NoError(t, json.Unmarshal([]byte(`{"id":7,"username":"prof","teaching_courses":[]}`), &p))
		assert.Nil(t, p.Stats)
	})

	t.Run("BothIsMalformed", func(t *testing.T) {
		var p domain.Profile
		err := json.Unmarshal([]byte(`{"id":7,"username":"x","enrolled_courses":1,"teaching_courses":[{"id":1,"title":"Go"}]}`), &p)
		assert.ErrorIs(t, err, domain.ErrMalformedResponse)
	})
}

func TestProfileMarshalKeepsStatsShape(t *testing.T) {
	p := domain.Profile{ID: 1, Username: "prof", Stats: domain.TeacherStats{Courses: []domain.CourseRef{{ID: 2, Title: "Go"}}}}
	b, err := json.Marshal(p)
	require.NoError(t, err)

	var back domain.Profile
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, p.Stats, back.Stats)
	assert.Contains(t, string(b), `"enrolled_courses":null`)
}

func TestConversationSummaryAliases(t *testing.T) {
	var c domain.ConversationSummary
	require.NoError(t, json.Unmarshal([]byte(`{"conversation_id":"12","user_id":4,"name":"Ali","avatar":"/a.png","last_message":"hey"}`), &c))
	assert.Equal(t, domain.ID(12), c.ID)
	assert.Equal(t, "/a.png", c.AvatarURL)
	assert.NoError(t, c.Validate())

	var missing domain.ConversationSummary
	require.NoError(t, json.Unmarshal([]byte(`{"name":"nobody"}`), &missing))
	assert.ErrorIs(t, missing.Validate(), domain.ErrMalformedResponse)
}

func TestMessageAliases(t *testing.T) {
	var m domain.Message
	require.NoError(t, json.Unmarshal([]byte(`{"sender":9,"content":"hi","time":"10:15"}`), &m))
	assert.Equal(t, domain.ID(9), m.SenderID)
	assert.Equal(t, "10:15", m.CreatedAt)
	assert.Equal(t, domain.MessageID(""), m.ID)
}

func TestParseInboxFrame(t *testing.T) {
	f, err := domain.ParseInboxFrame([]byte(`{"conversation_id":5,"message_id":"m1","message":"hi","sender_id":9}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ID(5), f.ConversationID)
	assert.Equal(t, domain.MessageID("m1"), f.MessageID)

	f, err = domain.ParseInboxFrame([]byte(`{"conversation_id":"5","message_id":42,"message":"hi","sender_id":"9"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.MessageID("42"), f.MessageID)
	assert.Equal(t, domain.ID(9), f.SenderID)

	_, err = domain.ParseInboxFrame([]byte(`not json`))
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)

	_, err = domain.ParseInboxFrame([]byte(`{"type":"error","message":"nope"}`))
	assert.ErrorIs(t, err, domain.ErrMalformedFrame)
}

func TestNewSendFrame(t *testing.T) {
	f, err := domain.NewSendFrame(5, "  hello ")
	require.NoError(t, err)
	assert.Equal(t, domain.SendFrame{Type: "send", ConversationID: 5, Message: "hello"}, f)

	_, err = domain.NewSendFrame(5, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)

	_, err = domain.NewSendFrame(0, "hi")
	assert.ErrorIs(t, err, domain.ErrNoActiveConversation)
}

func TestParseRole(t *testing.T) {
	r, err := domain.ParseRole("student")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStudent, r)
	assert.Equal(t, "Student", r.Display())
	assert.Equal(t, "student", r.Param())

	_, err = domain.ParseRole("admin")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
