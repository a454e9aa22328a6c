package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now().UTC()
	}
	if u.Role == "" {
		u.Role = domain.RoleStudent
	}
	query := `
		INSERT INTO users (username, email, full_name, role, location, bio, photo_url,
			hashed_password, is_active, is_online, date_joined, last_seen)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	res, err := r.db.ExecContext(ctx, query,
		u.Username, u.Email, u.FullName, string(u.Role), u.Location, u.Bio, u.PhotoURL,
		u.HashedPassword, true, false, u.DateJoined,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	u.ID = id
	u.IsActive = true
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
}

func (r *UserRepo) Search(ctx context.Context, query string, role domain.Role, limit int) ([]*domain.User, error) {
	pattern := "%" + escapeLike(query) + "%"
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE is_active = 1
		  AND (full_name LIKE ? ESCAPE '\' OR email LIKE ? ESCAPE '\' OR username LIKE ? ESCAPE '\')
		  AND (? = '' OR role = ?)
		ORDER BY full_name ASC, username ASC
		LIMIT ?
	`, pattern, pattern, pattern, string(role), string(role), limit)
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
	query := `UPDATE users SET is_online = ?, last_seen = CURRENT_TIMESTAMP WHERE id = ?`
	val := 0
	if isOnline {
		val = 1
	}
	if _, err := r.db.ExecContext(ctx, query, val, id); err != nil {
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
	var role string
	err := s.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
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
	u.Role = domain.Role(role)
	return u, nil
}
