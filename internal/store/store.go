// Package store selects the SQL backend configured for the dev server.
package store

import (
	"database/sql"
	"fmt"

	"elearning_go/internal/config"
	"elearning_go/internal/domain"
	"elearning_go/internal/store/postgres"
	"elearning_go/internal/store/sqlite"
)

// Repositories bundles every repository over one database handle.
type Repositories struct {
	DB            *sql.DB
	Users         domain.UserRepository
	Courses       domain.CourseRepository
	Conversations domain.ConversationRepository
	Messages      domain.MessageRepository
	Participants  domain.ParticipantRepository
}

// Open connects to the configured driver and applies migrations.
func Open(cfg *config.Config) (*Repositories, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		return &Repositories{
			DB:            db,
			Users:         postgres.NewUserRepo(db),
			Courses:       postgres.NewCourseRepo(db),
			Conversations: postgres.NewConversationRepo(db),
			Messages:      postgres.NewMessageRepo(db),
			Participants:  postgres.NewParticipantRepo(db),
		}, nil
	case "sqlite", "":
		db, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := sqlite.Migrate(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return &Repositories{
			DB:            db,
			Users:         sqlite.NewUserRepo(db),
			Courses:       sqlite.NewCourseRepo(db),
			Conversations: sqlite.NewConversationRepo(db),
			Messages:      sqlite.NewMessageRepo(db),
			Participants:  sqlite.NewParticipantRepo(db),
		}, nil
	}
	return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}
