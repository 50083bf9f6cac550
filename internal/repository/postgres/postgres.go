package postgres

import (
	"database/sql"
	"embed"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"rcca-backend/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

type Store struct {
	db *sql.DB
	repository.RecordRepository
	repository.UserRepository
	repository.NotificationRepository
	repository.StatusHistoryRepository
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db:                      db,
		RecordRepository:        NewRecordRepository(db),
		UserRepository:          NewUserRepository(db),
		NotificationRepository:  NewNotificationRepository(db),
		StatusHistoryRepository: NewStatusHistoryRepository(db),
	}
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate applies the embedded schema migrations.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}
