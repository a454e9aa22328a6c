package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"elearning_go/internal/domain"
)

const userColumns = `id, username, email, full_name, role, location, bio, photo_url,
	hashed_password, is_active, is_online, date_joined, last_seen`

type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

var _ domain.UserRepository = (*UserRepo)(nil)

func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	var joined any
	if !u.DateJoined.IsZero() {
		joined = u.DateJoined
	}
	query := `
		INSERT INTO users (username, email, full_name, role, location, bio, photo_url,
			hashed_password, is_active, is_online, date_joined, last_seen)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, TRUE, FALSE, COALESCE($9, NOW()), NOW())
		RETURNING id, date_joined, last_seen
	`
	err := r.db.QueryRowContext(ctx, query,
		u.Username, u.Email, u.FullName, string(u.Role), u.Location, u.Bio, u.PhotoURL,
		u.HashedPassword, joined,
	).Scan(&u.ID, &u.DateJoined, &u.LastSeen)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	u.IsActive = true
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
}

func (r *UserRepo) Search(ctx context.Context, query string, role domain.Role, limit int) ([]*domain.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active = TRUE
		  AND (full_name ILIKE $1 ESCAPE '\' OR email ILIKE $1 ESCAPE '\' OR username ILIKE $1 ESCAPE '\')
		  AND ($2 = '' OR role = $2)
		ORDER BY full_name ASC, username ASC
		LIMIT $3
	`, pattern, string(role), limit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) SetOnlineStatus(ctx context.Context, id int64, isOnline bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_online = $1, last_seen = NOW() WHERE id = $2`, isOnline, id,
	); err != nil {
		return fmt.Errorf("set online status: %w", err)
	}
	return nil
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	u, err := scanUserRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return u, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUserRow(s scanner) (*domain.User, error) {
	u := &domain.User{}
	var (
		email sql.NullString
		role  string
	)
	err := s.Scan(
		&u.ID,
		&u.Username,
		&email,
		&u.FullName,
		&role,
		&u.Location,
		&u.Bio,
		&u.PhotoURL,
		&u.HashedPassword,
		&u.IsActive,
		&u.IsOnline,
		&u.DateJoined,
		&u.LastSeen,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.Email = email.String
	u.Role = domain.Role(role)
	return u, nil
}
