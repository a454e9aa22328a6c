package service

import (
	"context"
	"fmt"
	"strings"

	"elearning_go/internal/domain"
)

const (
	joinedLayout    = "January 2006"
	missingLocation = "—"
	missingBio      = "No bio available."
)

// DirectoryService answers user search and profile lookups.
type DirectoryService struct {
	users   domain.UserRepository
	courses domain.CourseRepository
	limit   int
}

func NewDirectoryService(users domain.UserRepository, courses domain.CourseRepository, searchLimit int) *DirectoryService {
	if searchLimit <= 0 {
		searchLimit = 10
	}
	return &DirectoryService{users: users, courses: courses, limit: searchLimit}
}

// Search returns matching users. An empty query returns no results without
// touching the store.
func (s *DirectoryService) Search(ctx context.Context, query, role string) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserSummary{}, nil
	}
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, err
	}

	users, err := s.users.Search(ctx, query, r, s.limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	out := make([]domain.UserSummary, 0, len(users))
	for _, u := range users {
		enrolled, err := s.enrolled(ctx, u)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(u, enrolled))
	}
	return out, nil
}

// Profile returns the full profile of username, with student or teacher stats.
func (s *DirectoryService) Profile(ctx context.Context, username string) (*domain.Profile, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}

	p := summarize(u, nil).Profile()
	switch u.Role {
	case domain.RoleStudent:
		n, err := s.courses.CountEnrollments(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("count enrollments: %w", err)
		}
		p.Stats = domain.StudentStats{EnrolledCourses: n}
	case domain.RoleTeacher:
		taught, err := s.courses.ListTaught(ctx, u.ID)
		if err != nil {
			return nil, fmt.Errorf("list taught courses: %w", err)
		}
		if len(taught) > 0 {
			refs := make([]domain.CourseRef, 0, len(taught))
			for _, c := range taught {
				refs = append(refs, domain.CourseRef{ID: domain.ID(c.ID), Title: c.Title})
			}
			p.Stats = domain.TeacherStats{Courses: refs}
		}
	}
	return p, nil
}

// LegacyProfile returns the short profile served to per-conversation chat pages.
func (s *DirectoryService) LegacyProfile(ctx context.Context, userID int64) (*domain.LegacyProfile, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if u == nil {
		return nil, domain.ErrNotFound
	}
	return &domain.LegacyProfile{
		Avatar:   u.AvatarURL(),
		FullName: u.DisplayName(),
		Role:     u.Role.Display(),
	}, nil
}

func (s *DirectoryService) enrolled(ctx context.Context, u *domain.User) (*int, error) {
	if u.Role != domain.RoleStudent {
		return nil, nil
	}
	n, err := s.courses.CountEnrollments(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("count enrollments: %w", err)
	}
	return &n, nil
}

func summarize(u *domain.User, enrolled *int) domain.UserSummary {
	location := u.Location
	if location == "" {
		location = missingLocation
	}
	bio := u.Bio
	if bio == "" {
		bio = missingBio
	}
	var joined string
	if !u.DateJoined.IsZero() {
		joined = u.DateJoined.Format(joinedLayout)
	}
	return domain.UserSummary{
		ID:              domain.ID(u.ID),
		Username:        u.Username,
		FullName:        u.DisplayName(),
		Email:           u.Email,
		Role:            u.Role.Display(),
		Location:        location,
		AvatarURL:       u.AvatarURL(),
		Joined:          joined,
		Bio:             bio,
		EnrolledCourses: enrolled,
	}
}
