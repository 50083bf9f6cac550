package postgres

import (
	"context"
	"database/sql"
	"errors"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/repository"
)

const userColumns = `id, name, email, factory, department, is_admin, push_token`

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) ListAll(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, "ListAll", `SELECT `+userColumns+` FROM users ORDER BY name, id`)
}

func (r *userRepository) ListAdmins(ctx context.Context) ([]domain.User, error) {
	return r.list(ctx, "ListAdmins", `SELECT `+userColumns+` FROM users WHERE is_admin = TRUE ORDER BY name, id`)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u := &domain.User{}
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(&u.ID, &u.Name, &u.Email, &u.Factory, &u.Department, &u.IsAdmin, &u.PushToken)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("GetUser", err)
	}
	return u, nil
}

func (r *userRepository) list(ctx context.Context, op, query string) ([]domain.User, error) {
	logger.DatabaseCall("SELECT", "users", "op", op)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "op", op)
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Factory, &u.Department, &u.IsAdmin, &u.PushToken); err != nil {
			return nil, storeErr(op, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	logger.DatabaseResult("SELECT", int64(len(users)), nil, "op", op)
	return users, nil
}
