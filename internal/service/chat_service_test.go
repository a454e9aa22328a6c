package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning_go/internal/domain"
	"elearning_go/internal/observability"
	"elearning_go/internal/security"
	"elearning_go/internal/service"
	"elearning_go/internal/store/sqlite"
)

type fixture struct {
	auth      *service.AuthService
	directory *service.DirectoryService
	chat      *service.ChatService
	users     *sqlite.UserRepo
	courses   *sqlite.CourseRepo
	ids       map[string]int64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })

	enc, err := security.NewEncryptor([]byte("test-key"), nil)
	require.NoError(t, err)

	users := sqlite.NewUserRepo(db)
	courses := sqlite.NewCourseRepo(db)
	f := &fixture{
		auth:      service.NewAuthService(users, security.NewTokenService("secret", time.Hour), security.NewPasswordHasher(4)),
		directory: service.NewDirectoryService(users, courses, 10),
		chat: service.NewChatService(
			sqlite.NewConversationRepo(db),
			sqlite.NewParticipantRepo(db),
			sqlite.NewMessageRepo(db),
			users,
			enc,
			3,
			observability.Nop(),
		),
		users:   users,
		courses: courses,
		ids:     map[string]int64{},
	}
	require.NoError(t, service.Seed(context.Background(), f.auth, users, courses, f.chat, observability.Nop()))

	for _, name := range []string{"ali", "alina", "sam", "prof", "alistair"} {
		u, err := users.GetByUsername(context.Background(), name)
		require.NoError(t, err)
		require.NotNil(t, u)
		f.ids[name] = u.ID
	}
	return f
}

func TestSeedIsIdempotent(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, service.Seed(context.Background(), f.auth, f.users, f.courses, f.chat, observability.Nop()))

	convs, err := f.chat.List(context.Background(), f.ids["ali"])
	require.NoError(t, err)
	assert.Len(t, convs, 1)
}

func TestChatListAndHistory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	convs, err := f.chat.List(ctx, f.ids["ali"])
	require.NoError(t, err)
	require.Len(t, convs, 1)
	assert.Equal(t, "Grace Hopper", convs[0].Name)
	assert.Equal(t, domain.ID(f.ids["prof"]), convs[0].UserID)
	assert.Equal(t, "Yes, end of day Friday.", convs[0].LastMessage)
	assert.Equal(t, domain.ID(f.ids["prof"]), convs[0].SenderID)
	assert.Len(t, convs[0].Time, 5)

	msgs, err := f.chat.History(ctx, int64(convs[0].ID), f.ids["ali"])
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "Hi, is the Go assignment due Friday?", msgs[0].Content)
	assert.NotEmpty(t, msgs[0].ID)

	_, err = f.chat.History(ctx, int64(convs[0].ID), f.ids["sam"])
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = f.chat.History(ctx, 9999, f.ids["ali"])
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChatStartAndSend(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.chat.Start(ctx, f.ids["ali"], f.ids["alina"])
	require.NoError(t, err)
	again, err := f.chat.Start(ctx, f.ids["alina"], f.ids["ali"])
	require.NoError(t, err)
	assert.Equal(t, id, again)

	_, err = f.chat.Start(ctx, f.ids["ali"], f.ids["ali"])
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.chat.Start(ctx, f.ids["ali"], 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	d, err := f.chat.Send(ctx, f.ids["alina"], id, "  hey ali ")
	require.NoError(t, err)
	assert.Equal(t, "hey ali", d.Frame.Message)
	assert.Equal(t, domain.ID(id), d.Frame.ConversationID)
	assert.NotEmpty(t, d.Frame.MessageID)
	assert.ElementsMatch(t, []int64{f.ids["ali"], f.ids["alina"]}, d.ParticipantIDs)

	convs, err := f.chat.List(ctx, f.ids["ali"])
	require.NoError(t, err)
	require.Len(t, convs, 2)
	assert.Equal(t, domain.ID(id), convs[0].ID, "most recent conversation first")

	_, err = f.chat.Send(ctx, f.ids["ali"], id, "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
	_, err = f.chat.Send(ctx, f.ids["sam"], id, "intruder")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestChatSendPrunes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	id, err := f.chat.Start(ctx, f.ids["sam"], f.ids["alistair"])
	require.NoError(t, err)
	for _, text := range []string{"1", "2", "3", "4", "5"} {
		_, err := f.chat.Send(ctx, f.ids["sam"], id, text)
		require.NoError(t, err)
	}

	msgs, err := f.chat.History(ctx, id, f.ids["sam"])
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "3", msgs[0].Content)
	assert.Equal(t, "5", msgs[2].Content)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	t.Run("SearchStudents", func(t *testing.T) {
		res, err := f.directory.Search(ctx, "ali", "student")
		require.NoError(t, err)
		require.Len(t, res, 2)
		for _, r := range res {
			assert.Equal(t, "Student", r.Role)
			require.NotNil(t, r.EnrolledCourses)
		}
		assert.Equal(t, 3, *res[0].EnrolledCourses)
	})

	t.Run("SearchTeachers", func(t *testing.T) {
		res, err := f.directory.Search(ctx, "ali", "teacher")
		require.NoError(t, err)
		require.Len(t, res, 1)
		assert.Equal(t, "alistair", res[0].Username)
		assert.Nil(t, res[0].EnrolledCourses)
	})

	t.Run("EmptyQuery", func(t *testing.T) {
		res, err := f.directory.Search(ctx, "  ", "")
		require.NoError(t, err)
		assert.Empty(t, res)
	})

	t.Run("BadRole", func(t *testing.T) {
		_, err := f.directory.Search(ctx, "ali", "admin")
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("StudentProfile", func(t *testing.T) {
		p, err := f.directory.Profile(ctx, "alina")
		require.NoError(t, err)
		assert.Equal(t, domain.StudentStats{EnrolledCourses: 1}, p.Stats)
		assert.Equal(t, "No bio available.", p.Bio)
		assert.NotEmpty(t, p.Joined)
	})

	t.Run("TeacherProfile", func(t *testing.T) {
		p, err := f.directory.Profile(ctx, "prof")
		require.NoError(t, err)
		stats, ok := p.Stats.(domain.TeacherStats)
		require.True(t, ok)
		assert.Len(t, stats.Courses, 2)
	})

	t.Run("UnknownProfile", func(t *testing.T) {
		_, err := f.directory.Profile(ctx, "ghost")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("LegacyProfile", func(t *testing.T) {
		p, err := f.directory.LegacyProfile(ctx, f.ids["prof"])
		require.NoError(t, err)
		assert.Equal(t, domain.LegacyProfile{Avatar: p.Avatar, FullName: "Grace Hopper", Role: "Teacher"}, *p)
		assert.Contains(t, p.Avatar, "ui-avatars.com")
	})
}
