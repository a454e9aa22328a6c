package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"elearning_go/internal/domain"
)

// SamplePassword is the password of every seeded account.
const SamplePassword = "campus123"

type sampleUser struct {
	username, fullName, location, bio string
	role                              domain.Role
}

var sampleUsers = []sampleUser{
	{"ali", "Ali Ahmed", "Lahore", "Second year, likes distributed systems.", domain.RoleStudent},
	{"alina", "Alina Brook", "Tallinn", "", domain.RoleStudent},
	{"sam", "Sam Ortiz", "", "", domain.RoleStudent},
	{"prof", "Grace Hopper", "Arlington", "Teaches compilers and Go.", domain.RoleTeacher},
	{"alistair", "Alistair Cole", "Leeds", "", domain.RoleTeacher},
}

var sampleCourses = []struct {
	teacher, title string
	students       []string
}{
	{"prof", "Intro to Go", []string{"ali", "alina"}},
	{"prof", "Compilers", []string{"ali"}},
	{"alistair", "Networks", []string{"sam", "ali"}},
}

// Seed fills an empty store with a few students, teachers, courses and one
// conversation. It does nothing when the sample teacher already exists.
func Seed(ctx context.Context, auth *AuthService, users domain.UserRepository, courses domain.CourseRepository, chat *ChatService, log zerolog.Logger) error {
	existing, err := users.GetByUsername(ctx, "prof")
	if err != nil {
		return err
	}
	if existing != nil {
		log.Debug().Msg("sample data already present")
		return nil
	}

	ids := make(map[string]int64, len(sampleUsers))
	for _, su := range sampleUsers {
		u, err := auth.Register(ctx, RegisterInput{
			Username: su.username,
			Email:    su.username + "@campus.test",
			Password: SamplePassword,
			FullName: su.fullName,
			Role:     su.role,
			Location: su.location,
			Bio:      su.bio,
		})
		if err != nil {
			return fmt.Errorf("seed user %s: %w", su.username, err)
		}
		ids[su.username] = u.ID
	}

	for _, sc := range sampleCourses {
		c := &domain.Course{Title: sc.title, TeacherID: ids[sc.teacher]}
		if err := courses.Create(ctx, c); err != nil {
			return fmt.Errorf("seed course %s: %w", sc.title, err)
		}
		for _, s := range sc.students {
			if err := courses.Enroll(ctx, c.ID, ids[s]); err != nil {
				return fmt.Errorf("seed enrollment %s/%s: %w", sc.title, s, err)
			}
		}
	}

	convID, err := chat.Start(ctx, ids["ali"], ids["prof"])
	if err != nil {
		return fmt.Errorf("seed conversation: %w", err)
	}
	for _, m := range []struct {
		from, text string
	}{
		{"ali", "Hi, is the Go assignment due Friday?"},
		{"prof", "Yes, end of day Friday."},
	} {
		if _, err := chat.Send(ctx, ids[m.from], convID, m.text); err != nil {
			return fmt.Errorf("seed message: %w", err)
		}
	}

	log.Info().Int("users", len(sampleUsers)).Int("courses", len(sampleCourses)).Msg("sample data seeded")
	return nil
}
