package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/lib/pq"

	"rcca-backend/internal/domain"
	"rcca-backend/internal/logger"
	"rcca-backend/internal/repository"
)

const (
	mainTable    = "rccas"
	pendingTable = "pending_rccas"
)

const selectColumns = `storage_id, rcca_id, status, created_by, assigned_members, creator_id,
	team_member_ids, admin_ids, permissions_updated_at, notification_number, title, narrative,
	factory, department, error_category, created_at, updated_at, approved_at, approved_by,
	rejection_reason, rejected_by, resubmission_link, superseded`

const insertColumns = `rcca_id, status, created_by, assigned_members, creator_id,
	team_member_ids, admin_ids, permissions_updated_at, notification_number, title, narrative,
	factory, department, error_category, created_at, updated_at, approved_at, approved_by,
	rejection_reason, rejected_by, resubmission_link, superseded`

const insertValues = `$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22`

// upsertSet refreshes everything but the creation fields when a row with the
// same canonical id already exists.
const upsertSet = `status = EXCLUDED.status, assigned_members = EXCLUDED.assigned_members,
	team_member_ids = EXCLUDED.team_member_ids, admin_ids = EXCLUDED.admin_ids,
	permissions_updated_at = EXCLUDED.permissions_updated_at,
	notification_number = EXCLUDED.notification_number, title = EXCLUDED.title,
	narrative = EXCLUDED.narrative, factory = EXCLUDED.factory, department = EXCLUDED.department,
	error_category = EXCLUDED.error_category, updated_at = EXCLUDED.updated_at,
	approved_at = EXCLUDED.approved_at, approved_by = EXCLUDED.approved_by,
	rejection_reason = EXCLUDED.rejection_reason, rejected_by = EXCLUDED.rejected_by,
	resubmission_link = EXCLUDED.resubmission_link, superseded = EXCLUDED.superseded`

type recordRepository struct {
	db *sql.DB
}

func NewRecordRepository(db *sql.DB) repository.RecordRepository {
	return &recordRepository{db: db}
}

func (r *recordRepository) ListMain(ctx context.Context) ([]domain.Record, error) {
	return r.list(ctx, "ListMain", mainTable, domain.TierMain, "")
}

func (r *recordRepository) ListPending(ctx context.Context) ([]domain.Record, error) {
	return r.list(ctx, "ListPending", pendingTable, domain.TierPending, "")
}

func (r *recordRepository) ListDrafts(ctx context.Context) ([]domain.Record, error) {
	return r.list(ctx, "ListDrafts", mainTable, domain.TierMain, `WHERE status = 'Draft'`)
}

func (r *recordRepository) list(ctx context.Context, op, table string, tier domain.Tier, where string) ([]domain.Record, error) {
	query := `SELECT ` + selectColumns + ` FROM ` + table + ` ` + where + ` ORDER BY updated_at DESC, storage_id`
	logger.DatabaseCall("SELECT", table, "op", op)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("SELECT", 0, err, "op", op)
		return nil, storeErr(op, err)
	}
	defer rows.Close()

	var out []domain.Record
	for rows.Next() {
		rec, err := scanRecord(rows, tier)
		if err != nil {
			return nil, storeErr(op, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr(op, err)
	}
	logger.DatabaseResult("SELECT", int64(len(out)), nil, "op", op)
	return out, nil
}

// FindByID looks in the pending table first since a record only lives in
// one table at a time and pending rows are the ones being acted on.
func (r *recordRepository) FindByID(ctx context.Context, id string) (*domain.Record, error) {
	for _, t := range []struct {
		table string
		tier  domain.Tier
	}{{pendingTable, domain.TierPending}, {mainTable, domain.TierMain}} {
		query := `SELECT ` + selectColumns + ` FROM ` + t.table + ` WHERE rcca_id = $1`
		rec, err := scanRecord(r.db.QueryRowContext(ctx, query, id), t.tier)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, storeErr("FindByID", err)
		}
		return &rec, nil
	}
	return nil, domain.ErrNotFound
}

func (r *recordRepository) CreateDraft(ctx context.Context, rec *domain.Record) error {
	logger.EnterMethod("recordRepository.CreateDraft", "recordID", rec.ID)
	err := r.withTx(ctx, "CreateDraft", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+pendingTable+` WHERE rcca_id = $1`, rec.ID); err != nil {
			return storeErr("CreateDraft", err)
		}
		return upsert(ctx, tx, mainTable, rec)
	})
	if err != nil {
		logger.ExitMethodWithError("recordRepository.CreateDraft", err, "recordID", rec.ID)
		return err
	}
	rec.Tier = domain.TierMain
	logger.ExitMethod("recordRepository.CreateDraft", "recordID", rec.ID, "storageID", rec.StorageID)
	return nil
}

func (r *recordRepository) Update(ctx context.Context, rec *domain.Record) error {
	table := mainTable
	if rec.Tier == domain.TierPending {
		table = pendingTable
	}
	members, err := json.Marshal(nonNilMembers(rec.AssignedMembers))
	if err != nil {
		return err
	}
	var approvedAt sql.NullTime
	if rec.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *rec.ApprovedAt, Valid: true}
	}
	query := `UPDATE ` + table + ` SET assigned_members = $2, team_member_ids = $3, admin_ids = $4,
		permissions_updated_at = $5, notification_number = $6, title = $7, narrative = $8,
		factory = $9, department = $10, error_category = $11, updated_at = $12,
		status = $13, approved_at = $14, approved_by = $15, rejection_reason = $16, rejected_by = $17
		WHERE rcca_id = $1`
	logger.DatabaseCall("UPDATE", table, "recordID", rec.ID, "status", rec.Status)
	res, err := r.db.ExecContext(ctx, query, rec.ID, members,
		pq.Array(nonNilIDs(rec.EditingPermissions.TeamMemberIDs)),
		pq.Array(nonNilIDs(rec.EditingPermissions.AdminIDs)),
		rec.EditingPermissions.LastUpdated, rec.NotificationNumber, rec.Title, rec.Narrative,
		rec.Factory, rec.Department, rec.ErrorCategory, rec.UpdatedAt,
		string(rec.Status), approvedAt, rec.ApprovedBy, rec.RejectionReason, rec.RejectedBy)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err)
		return storeErr("Update", err)
	}
	n, _ := res.RowsAffected()
	logger.DatabaseResult("UPDATE", n, nil)
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *recordRepository) Submit(ctx context.Context, rec *domain.Record) error {
	err := r.withTx(ctx, "Submit", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+mainTable+` WHERE rcca_id = $1 AND status = 'Draft'`, rec.ID); err != nil {
			return storeErr("Submit", err)
		}
		return insert(ctx, tx, pendingTable, rec)
	})
	if err != nil {
		return err
	}
	rec.Tier = domain.TierPending
	return nil
}

func (r *recordRepository) Approve(ctx context.Context, rec *domain.Record) error {
	return r.decide(ctx, "Approve", rec)
}

func (r *recordRepository) Reject(ctx context.Context, rec *domain.Record) error {
	return r.decide(ctx, "Reject", rec)
}

// decide moves a pending record into the main table. The DELETE doubles as
// a compare-and-swap on the Submitted status: a concurrent decision that got
// there first leaves nothing to delete.
func (r *recordRepository) decide(ctx context.Context, op string, rec *domain.Record) error {
	logger.EnterMethod("recordRepository."+op, "recordID", rec.ID)
	err := r.withTx(ctx, op, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM `+pendingTable+` WHERE rcca_id = $1 AND status = 'Submitted'`, rec.ID)
		if err != nil {
			return storeErr(op, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr(op, err)
		}
		if n == 0 {
			return &domain.ConflictError{RecordID: rec.ID, ExpectedStatus: domain.RecordStatusSubmitted}
		}
		return upsert(ctx, tx, mainTable, rec)
	})
	if err != nil {
		logger.ExitMethodWithError("recordRepository."+op, err, "recordID", rec.ID)
		return err
	}
	rec.Tier = domain.TierMain
	logger.ExitMethod("recordRepository."+op, "recordID", rec.ID)
	return nil
}

func (r *recordRepository) Resubmit(ctx context.Context, originalID string, rec *domain.Record) error {
	err := r.withTx(ctx, "Resubmit", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE `+mainTable+` SET superseded = TRUE, updated_at = $2
			 WHERE rcca_id = $1 AND status = 'Rejected' AND superseded = FALSE`, originalID, rec.UpdatedAt)
		if err != nil {
			return storeErr("Resubmit", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return storeErr("Resubmit", err)
		}
		if n == 0 {
			return &domain.ConflictError{RecordID: originalID, ExpectedStatus: domain.RecordStatusRejected}
		}
		return insert(ctx, tx, pendingTable, rec)
	})
	if err != nil {
		return err
	}
	rec.Tier = domain.TierPending
	return nil
}

// UpdateMembers writes the member list and the derived team member ids in a
// single statement so they cannot drift apart.
func (r *recordRepository) UpdateMembers(ctx context.Context, id string, members []domain.Member, at time.Time) error {
	payload, err := json.Marshal(nonNilMembers(members))
	if err != nil {
		return err
	}
	ids := pq.Array(domain.MemberIDs(members))
	for _, table := range []string{mainTable, pendingTable} {
		query := `UPDATE ` + table + ` SET assigned_members = $2, team_member_ids = $3,
			permissions_updated_at = $4, updated_at = $4 WHERE rcca_id = $1`
		logger.DatabaseCall("UPDATE", table, "recordID", id, "members", len(members))
		res, err := r.db.ExecContext(ctx, query, id, payload, ids, at)
		if err != nil {
			logger.DatabaseResult("UPDATE", 0, err)
			return storeErr("UpdateMembers", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			logger.DatabaseResult("UPDATE", n, nil)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *recordRepository) Delete(ctx context.Context, id string) error {
	return r.withTx(ctx, "Delete", func(tx *sql.Tx) error {
		var total int64
		for _, table := range []string{pendingTable, mainTable} {
			res, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE rcca_id = $1`, id)
			if err != nil {
				return storeErr("Delete", err)
			}
			n, _ := res.RowsAffected()
			total += n
		}
		if total == 0 {
			return domain.ErrNotFound
		}
		return nil
	})
}

func (r *recordRepository) withTx(ctx context.Context, op string, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op, err)
	}
	return nil
}

func insert(ctx context.Context, tx *sql.Tx, table string, rec *domain.Record) error {
	query := `INSERT INTO ` + table + ` (` + insertColumns + `) VALUES (` + insertValues + `) RETURNING storage_id`
	return writeRecord(ctx, tx, table, query, rec)
}

func upsert(ctx context.Context, tx *sql.Tx, table string, rec *domain.Record) error {
	query := `INSERT INTO ` + table + ` (` + insertColumns + `) VALUES (` + insertValues + `)
		ON CONFLICT (rcca_id) DO UPDATE SET ` + upsertSet + ` RETURNING storage_id`
	return writeRecord(ctx, tx, table, query, rec)
}

func writeRecord(ctx context.Context, tx *sql.Tx, table, query string, rec *domain.Record) error {
	args, err := recordArgs(rec)
	if err != nil {
		return err
	}
	logger.DatabaseCall("INSERT", table, "recordID", rec.ID, "status", rec.Status)
	var storageID int64
	err = tx.QueryRowContext(ctx, query, args...).Scan(&storageID)
	logger.DatabaseResult("INSERT", 1, err, "recordID", rec.ID)
	if err != nil {
		return storeErr("write "+table, err)
	}
	rec.StorageID = strconv.FormatInt(storageID, 10)
	return nil
}

func recordArgs(rec *domain.Record) ([]any, error) {
	members, err := json.Marshal(nonNilMembers(rec.AssignedMembers))
	if err != nil {
		return nil, err
	}
	var approvedAt sql.NullTime
	if rec.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *rec.ApprovedAt, Valid: true}
	}
	return []any{
		rec.ID, string(rec.Status), rec.CreatedBy, members, rec.CreatorID(),
		pq.Array(nonNilIDs(rec.EditingPermissions.TeamMemberIDs)),
		pq.Array(nonNilIDs(rec.EditingPermissions.AdminIDs)),
		rec.EditingPermissions.LastUpdated, rec.NotificationNumber, rec.Title, rec.Narrative,
		rec.Factory, rec.Department, rec.ErrorCategory, rec.CreatedAt, rec.UpdatedAt,
		approvedAt, rec.ApprovedBy, rec.RejectionReason, rec.RejectedBy, rec.ResubmissionLink,
		rec.Superseded,
	}, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(s rowScanner, tier domain.Tier) (domain.Record, error) {
	var (
		rec        domain.Record
		storageID  int64
		status     string
		members    []byte
		approvedAt sql.NullTime
	)
	err := s.Scan(&storageID, &rec.ID, &status, &rec.CreatedBy, &members,
		&rec.EditingPermissions.CreatorID,
		pq.Array(&rec.EditingPermissions.TeamMemberIDs),
		pq.Array(&rec.EditingPermissions.AdminIDs),
		&rec.EditingPermissions.LastUpdated, &rec.NotificationNumber, &rec.Title, &rec.Narrative,
		&rec.Factory, &rec.Department, &rec.ErrorCategory, &rec.CreatedAt, &rec.UpdatedAt,
		&approvedAt, &rec.ApprovedBy, &rec.RejectionReason, &rec.RejectedBy, &rec.ResubmissionLink,
		&rec.Superseded)
	if err != nil {
		return domain.Record{}, err
	}
	rec.StorageID = strconv.FormatInt(storageID, 10)
	rec.Status = domain.RecordStatus(status)
	rec.Tier = tier
	if approvedAt.Valid {
		t := approvedAt.Time
		rec.ApprovedAt = &t
	}
	if len(members) > 0 {
		if err := json.Unmarshal(members, &rec.AssignedMembers); err != nil {
			return domain.Record{}, err
		}
	}
	return rec, nil
}

func nonNilMembers(m []domain.Member) []domain.Member {
	if m == nil {
		return []domain.Member{}
	}
	return m
}

func nonNilIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}

func storeErr(op string, err error) error {
	return &domain.StoreError{Op: op, Err: err}
}
