package sqlite_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elearning_go/internal/domain"
	"elearning_go/internal/store/sqlite"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	require.NoError(t, sqlite.Migrate(db))
	require.NoError(t, sqlite.Migrate(db))
	t.Cleanup(func() { db.Close() })
	return db
}

func createUser(t *testing.T, repo *sqlite.UserRepo, username, fullName string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:       username,
		Email:          username + "@campus.test",
		FullName:       fullName,
		Role:           role,
		HashedPassword: "x",
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func TestUserSearch(t *testing.T) {
	ctx := context.Background()
	users := sqlite.NewUserRepo(openDB(t))
	createUser(t, users, "ali", "Ali Ahmed", domain.RoleStudent)
	createUser(t, users, "alina", "Alina Brook", domain.RoleStudent)
	createUser(t, users, "alistair", "Alistair Cole", domain.RoleTeacher)
	createUser(t, users, "bob_x", "Bob", domain.RoleStudent)

	got, err := users.Search(ctx, "ALI", domain.RoleStudent, 20)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ali", got[0].Username)
	assert.Equal(t, "alina", got[1].Username)

	got, err = users.Search(ctx, "ali", "", 20)
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = users.Search(ctx, "_", "", 20)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob_x", got[0].Username)

	got, err = users.Search(ctx, "campus.test", "", 2)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestUserGetters(t *testing.T) {
	ctx := context.Background()
	users := sqlite.NewUserRepo(openDB(t))
	u := createUser(t, users, "prof", "Prof X", domain.RoleTeacher)

	got, err := users.GetByUsername(ctx, "prof")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, domain.RoleTeacher, got.Role)
	assert.False(t, got.DateJoined.IsZero())

	missing, err := users.GetByID(ctx, 999)
	assert.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, users.SetOnlineStatus(ctx, u.ID, true))
	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOnline)
}

func TestCourses(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := sqlite.NewUserRepo(db)
	courses := sqlite.NewCourseRepo(db)
	teacher := createUser(t, users, "prof", "Prof X", domain.RoleTeacher)
	student := createUser(t, users, "ali", "Ali", domain.RoleStudent)

	goCourse := &domain.Course{Title: "Go", TeacherID: teacher.ID}
	sqlCourse := &domain.Course{Title: "Databases", TeacherID: teacher.ID}
	require.NoError(t, courses.Create(ctx, goCourse))
	require.NoError(t, courses.Create(ctx, sqlCourse))
	require.NoError(t, courses.Enroll(ctx, goCourse.ID, student.ID))
	require.NoError(t, courses.Enroll(ctx, goCourse.ID, student.ID))
	require.NoError(t, courses.Enroll(ctx, sqlCourse.ID, student.ID))

	n, err := courses.CountEnrollments(ctx, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	taught, err := courses.ListTaught(ctx, teacher.ID)
	require.NoError(t, err)
	require.Len(t, taught, 2)
	assert.Equal(t, "Databases", taught[0].Title)
}

func TestConversationsAndMessages(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	users := sqlite.NewUserRepo(db)
	convs := sqlite.NewConversationRepo(db)
	msgs := sqlite.NewMessageRepo(db)
	parts := sqlite.NewParticipantRepo(db)

	a := createUser(t, users, "ali", "Ali", domain.RoleStudent)
	b := createUser(t, users, "bea", "Bea", domain.RoleStudent)
	c := createUser(t, users, "cy", "Cy", domain.RoleStudent)

	none, err := convs.FindDirect(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	group := &domain.Conversation{}
	require.NoError(t, convs.Create(ctx, group, []int64{a.ID, b.ID, c.ID}))
	direct := &domain.Conversation{}
	require.NoError(t, convs.Create(ctx, direct, []int64{a.ID, b.ID}))

	found, err := convs.FindDirect(ctx, b.ID, a.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, direct.ID, found.ID)

	ok, err := parts.IsParticipant(ctx, direct.ID, c.ID)
	require.NoError(t, err)
	assert.False(t, ok)
	members, err := parts.ListParticipants(ctx, direct.ID)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "ali", members[0].Username)

	for _, body := range []string{"one", "two", "three", "four"} {
		m := &domain.MessageRecord{Content: body, ConversationID: direct.ID, SenderID: a.ID}
		require.NoError(t, msgs.Create(ctx, m))
		assert.NotZero(t, m.ID)
		assert.False(t, m.CreatedAt.IsZero())
	}
	require.NoError(t, convs.Touch(ctx, direct.ID))

	latest, err := msgs.ListForConversation(ctx, direct.ID, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Equal(t, "three", latest[0].Content)
	assert.Equal(t, "four", latest[1].Content)

	last, err := msgs.LastForConversation(ctx, direct.ID)
	require.NoError(t, err)
	assert.Equal(t, "four", last.Content)

	require.NoError(t, msgs.PruneOld(ctx, direct.ID, 3))
	all, err := msgs.ListForConversation(ctx, direct.ID, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "two", all[0].Content)

	empty, err := msgs.LastForConversation(ctx, group.ID)
	assert.NoError(t, err)
	assert.Nil(t, empty)

	list, err := convs.ListForUser(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, group.ID, list[0].ID)
}
