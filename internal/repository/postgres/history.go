package postgres

import (
	"context"
	"database/sql"
	"time"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/repository"
)

type statusHistoryRepository struct {
	db *sql.DB
}

func NewStatusHistoryRepository(db *sql.DB) repository.StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) Append(ctx context.Context, c *domain.StatusChange) error {
	if c.CreatedOn.IsZero() {
		c.CreatedOn = time.Now().UTC()
	}
	query := `INSERT INTO rcca_status_history (rcca_id, from_status, to_status, actor_id, reason, created_on)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	logger.DatabaseCall("INSERT", "rcca_status_history", "recordID", c.RecordID, "to", c.ToStatus)
	err := r.db.QueryRowContext(ctx, query, c.RecordID, string(c.FromStatus), string(c.ToStatus), c.ActorID, c.Reason, c.CreatedOn).Scan(&c.ID)
	logger.DatabaseResult("INSERT", 1, err, "historyID", c.ID)
	if err != nil {
		return storeErr("AppendHistory", err)
	}
	return nil
}

func (r *statusHistoryRepository) ListByRecord(ctx context.Context, recordID string) ([]domain.StatusChange, error) {
	query := `SELECT id, rcca_id, from_status, to_status, actor_id, reason, created_on
	          FROM rcca_status_history WHERE rcca_id = $1 ORDER BY created_on, id`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, storeErr("ListHistory", err)
	}
	defer rows.Close()

	var out []domain.StatusChange
	for rows.Next() {
		var c domain.StatusChange
		var from, to string
		if err := rows.Scan(&c.ID, &c.RecordID, &from, &to, &c.ActorID, &c.Reason, &c.CreatedOn); err != nil {
			return nil, storeErr("ListHistory", err)
		}
		c.FromStatus = domain.RecordStatus(from)
		c.ToStatus = domain.RecordStatus(to)
		out = append(out, c)
	}
	return out, rows.Err()
}
