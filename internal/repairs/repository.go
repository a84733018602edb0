package repairs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	repairNotFoundMsg   = "repair request not found"
	foreignKeyViolation = "23503"
)

// Request is a row of the repair_requests table.
type Request struct {
	ID               uuid.UUID
	LeadID           *uuid.UUID
	CustomerName     string
	Phone            string
	Email            *string
	Address          string
	IssueDescription string
	Priority         string
	Status           string
	DateReported     string
	CompletionDate   *string
	Notes            *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Fields struct {
	LeadID           *uuid.UUID
	CustomerName     string
	Phone            string
	Email            *string
	Address          string
	IssueDescription string
	Priority         string
	Status           string
	DateReported     string
	CompletionDate   *string
	Notes            *string
}

type ListParams struct {
	Status   string
	Priority string
	Search   string
}

type Repository interface {
	List(ctx context.Context, p ListParams) ([]Request, error)
	GetByID(ctx context.Context, id uuid.UUID) (Request, error)
	Create(ctx context.Context, f Fields, entry activity.Entry) (Request, error)
	Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Request, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const repairColumns = `id, lead_id, customer_name, phone, email, address, issue_description,
	priority, status, to_char(date_reported, 'YYYY-MM-DD'), to_char(completion_date, 'YYYY-MM-DD'),
	notes, created_at, updated_at`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	err := row.Scan(&r.ID, &r.LeadID, &r.CustomerName, &r.Phone, &r.Email, &r.Address,
		&r.IssueDescription, &r.Priority, &r.Status, &r.DateReported, &r.CompletionDate,
		&r.Notes, &r.CreatedAt, &r.UpdatedAt)
	return r, err
}

func (r *Repo) List(ctx context.Context, p ListParams) ([]Request, error) {
	var pattern interface{}
	if p.Search != "" {
		pattern = "%" + p.Search + "%"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+repairColumns+` FROM repair_requests
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR priority = $2)
		  AND ($3::text IS NULL OR customer_name ILIKE $3 OR phone ILIKE $3
		       OR address ILIKE $3 OR issue_description ILIKE $3)
		ORDER BY created_at DESC`, p.Status, p.Priority, pattern)
	if err != nil {
		return nil, fmt.Errorf("list repair requests: %w", err)
	}
	defer rows.Close()

	out := make([]Request, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan repair request: %w", err)
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Request, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+repairColumns+` FROM repair_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, apperr.NotFound(repairNotFoundMsg)
	}
	if err != nil {
		return Request{}, fmt.Errorf("get repair request: %w", err)
	}
	return req, nil
}

func (r *Repo) Create(ctx context.Context, f Fields, entry activity.Entry) (Request, error) {
	var out Request
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanRequest(tx.QueryRow(ctx, `
			INSERT INTO repair_requests (id, lead_id, customer_name, phone, email, address,
				issue_description, priority, status, date_reported, completion_date, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::date, $11::date, $12)
			RETURNING `+repairColumns,
			uuid.New(), f.LeadID, f.CustomerName, f.Phone, f.Email, f.Address,
			f.IssueDescription, f.Priority, f.Status, f.DateReported, f.CompletionDate, f.Notes))
		if err != nil {
			return mapWriteError(err, "insert repair request")
		}
		entry.EntityID = out.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Request, error) {
	var out Request
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanRequest(tx.QueryRow(ctx, `
			UPDATE repair_requests SET
				lead_id = $2, customer_name = $3, phone = $4, email = $5, address = $6,
				issue_description = $7, priority = $8, status = $9, date_reported = $10::date,
				completion_date = $11::date, notes = $12, updated_at = now()
			WHERE id = $1
			RETURNING `+repairColumns,
			id, f.LeadID, f.CustomerName, f.Phone, f.Email, f.Address,
			f.IssueDescription, f.Priority, f.Status, f.DateReported, f.CompletionDate, f.Notes))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(repairNotFoundMsg)
		}
		if err != nil {
			return mapWriteError(err, "update repair request")
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Request{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM repair_requests WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete repair request: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(repairNotFoundMsg)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == foreignKeyViolation {
		return apperr.Validation("linked lead does not exist")
	}
	return fmt.Errorf("%s: %w", op, err)
}
