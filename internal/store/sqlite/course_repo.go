package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"elearning_go/internal/domain"
)

type CourseRepo struct {
	db *sql.DB
}

func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{db: db}
}

var _ domain.CourseRepository = (*CourseRepo)(nil)

func (r *CourseRepo) Create(ctx context.Context, c *domain.Course) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO courses (title, description, teacher_id, created_at, updated_at)
		VALUES (?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, c.Title, c.Description, c.TeacherID)
	if err != nil {
		return fmt.Errorf("insert course: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *CourseRepo) Enroll(ctx context.Context, courseID, studentID int64) error {
	if _, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO enrollments (course_id, student_id, enrolled_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
	`, courseID, studentID); err != nil {
		return fmt.Errorf("enroll: %w", err)
	}
	return nil
}

func (r *CourseRepo) CountEnrollments(ctx context.Context, studentID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM enrollments WHERE student_id = ?`, studentID,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("count enrollments: %w", err)
	}
	return n, nil
}

func (r *CourseRepo) ListTaught(ctx context.Context, teacherID int64) ([]*domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, teacher_id, created_at, updated_at
		FROM courses
		WHERE teacher_id = ?
		ORDER BY title ASC
	`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("list taught courses: %w", err)
	}
	defer rows.Close()

	var res []*domain.Course
	for rows.Next() {
		c := &domain.Course{}
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.TeacherID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		res = append(res, c)
	}
	return res, rows.Err()
}
