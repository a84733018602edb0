package repository

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
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadNotFoundMessage = "lead not found"

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new leads repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Dates are rendered with to_char so no driver-side timezone conversion can
// shift them.
const leadColumns = `
	id, name, phone, email, lead_origin,
	to_char(date_created, 'YYYY-MM-DD'),
	to_char(next_followup_date, 'YYYY-MM-DD'),
	remarks, assigned_to, project_amount::float8, notes, additional_notes,
	deposit_paid, balance_paid,
	to_char(installation_date, 'YYYY-MM-DD'),
	assigned_installer, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(row rowScanner) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Phone, &l.Email, &l.LeadOrigin,
		&l.DateCreated, &l.NextFollowupDate,
		&l.Remarks, &l.AssignedTo, &l.ProjectAmount, &l.Notes, &l.AdditionalNotes,
		&l.DepositPaid, &l.BalancePaid,
		&l.InstallationDate, &l.AssignedInstaller, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func scanLeads(rows pgx.Rows) ([]Lead, error) {
	defer rows.Close()
	items := make([]Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		items = append(items, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return items, nil
}

// GetByID retrieves a lead by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	l, err := scanLead(r.pool.QueryRow(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, apperr.NotFound(leadNotFoundMessage)
		}
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return l, nil
}

// List retrieves a filtered page of leads, newest first.
func (r *Repo) List(ctx context.Context, params ListParams) ([]Lead, int, error) {
	var search, status, origin, assignedTo interface{}
	if params.Search != "" {
		search = "%" + params.Search + "%"
	}
	if params.Status != "" {
		status = params.Status
	}
	if params.Origin != "" {
		origin = params.Origin
	}
	if params.AssignedTo != "" {
		assignedTo = params.AssignedTo
	}

	where := `
		WHERE ($1::text IS NULL OR name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1)
			AND ($2::text IS NULL OR lower(remarks) = lower($2))
			AND ($3::text IS NULL OR lead_origin = $3)
			AND ($4::text IS NULL OR assigned_to = $4)
			AND (NOT $5::boolean OR NOT (lower(remarks) = 'sold' AND balance_paid))`
	args := []interface{}{search, status, origin, assignedTo, params.HidePaid}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count leads: %w", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads`+where+`
		ORDER BY date_created DESC, created_at DESC
		LIMIT $6 OFFSET $7`, append(args, params.Limit, params.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list leads: %w", err)
	}
	items, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAll retrieves every lead. The follow-up dashboard and reports classify
// the whole set in memory.
func (r *Repo) ListAll(ctx context.Context) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY date_created DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list all leads: %w", err)
	}
	return scanLeads(rows)
}

// Create inserts a lead together with its initial status history row and
// activity entry.
func (r *Repo) Create(ctx context.Context, params CreateParams) (Lead, error) {
	id := uuid.New()
	f := params.Fields

	var created Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO leads (
				id, name, phone, email, lead_origin, date_created, next_followup_date, remarks,
				assigned_to, project_amount, notes, additional_notes, deposit_paid, balance_paid,
				installation_date, assigned_installer
			) VALUES (
				$1, $2, $3, $4, $5, $6::date, $7::date, $8,
				$9, $10, $11, $12, $13, $14,
				$15::date, $16
			)
			RETURNING `+leadColumns,
			id, f.Name, f.Phone, f.Email, f.LeadOrigin, f.DateCreated, f.NextFollowupDate, f.Remarks,
			f.AssignedTo, f.ProjectAmount, f.Notes, f.AdditionalNotes, f.DepositPaid, f.BalancePaid,
			f.InstallationDate, f.AssignedInstaller,
		)
		var err error
		if created, err = scanLead(row); err != nil {
			return fmt.Errorf("insert lead: %w", err)
		}

		if err := insertStatusChange(ctx, tx, id, params.Status); err != nil {
			return err
		}
		entry := params.Activity
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Lead{}, err
	}
	return created, nil
}

// Update overwrites the writable fields of a lead. A status change is
// recorded in lead_status_history inside the same transaction, as is the
// activity entry.
func (r *Repo) Update(ctx context.Context, params UpdateParams) (Lead, error) {
	f := params.Fields

	var updated Lead
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			UPDATE leads SET
				name = $2, phone = $3, email = $4, lead_origin = $5, date_created = $6::date,
				next_followup_date = $7::date, remarks = $8, assigned_to = $9, project_amount = $10,
				notes = $11, additional_notes = $12, deposit_paid = $13, balance_paid = $14,
				installation_date = $15::date, assigned_installer = $16, updated_at = now()
			WHERE id = $1
			RETURNING `+leadColumns,
			params.ID, f.Name, f.Phone, f.Email, f.LeadOrigin, f.DateCreated,
			f.NextFollowupDate, f.Remarks, f.AssignedTo, f.ProjectAmount,
			f.Notes, f.AdditionalNotes, f.DepositPaid, f.BalancePaid,
			f.InstallationDate, f.AssignedInstaller,
		)
		var err error
		if updated, err = scanLead(row); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperr.NotFound(leadNotFoundMessage)
			}
			return fmt.Errorf("update lead: %w", err)
		}

		if params.Status != nil {
			if err := insertStatusChange(ctx, tx, params.ID, *params.Status); err != nil {
				return err
			}
		}
		entry := params.Activity
		entry.EntityID = params.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Lead{}, err
	}
	return updated, nil
}

// Delete removes a lead and logs entry in the same transaction.
func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM leads WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete lead: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(leadNotFoundMessage)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}

func insertStatusChange(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, change StatusChange) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO lead_status_history (lead_id, old_status, new_status, changed_by)
		VALUES ($1, $2, $3, $4)`,
		leadID, change.OldStatus, change.NewStatus, change.ChangedBy,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// LatestTransitionTo returns when the lead last moved into status, or nil if
// the history has no such row.
func (r *Repo) LatestTransitionTo(ctx context.Context, leadID uuid.UUID, status string) (*time.Time, error) {
	var changedAt time.Time
	err := r.pool.QueryRow(ctx, `
		SELECT changed_at FROM lead_status_history
		WHERE lead_id = $1 AND new_status = $2
		ORDER BY changed_at DESC, id DESC
		LIMIT 1`, leadID, status).Scan(&changedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("latest status transition: %w", err)
	}
	return &changedAt, nil
}

// LeadsTransitionedTo lists the distinct leads that moved into status within
// [from, to).
func (r *Repo) LeadsTransitionedTo(ctx context.Context, status string, from, to time.Time) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT lead_id FROM lead_status_history
		WHERE new_status = $1 AND changed_at >= $2 AND changed_at < $3`,
		status, from, to)
	if err != nil {
		return nil, fmt.Errorf("list status transitions: %w", err)
	}
	defer rows.Close()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan status transition: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate status transitions: %w", err)
	}
	return ids, nil
}

func (r *Repo) ListInstallations(ctx context.Context, filter InstallationFilter) ([]Lead, error) {
	var installer, from, to interface{}
	if filter.Installer != "" {
		installer = filter.Installer
	}
	if filter.From != "" {
		from = filter.From
	}
	if filter.To != "" {
		to = filter.To
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads
		WHERE lower(remarks) = 'sold'
			AND installation_date IS NOT NULL
			AND ($1::text IS NULL OR lower(assigned_installer) = lower($1))
			AND ($2::date IS NULL OR installation_date >= $2::date)
			AND ($3::date IS NULL OR installation_date <= $3::date)
		ORDER BY installation_date, name`, installer, from, to)
	if err != nil {
		return nil, fmt.Errorf("list installations: %w", err)
	}
	return scanLeads(rows)
}

func (r *Repo) ListCompleted(ctx context.Context, search string, limit int) ([]Lead, error) {
	var pattern interface{}
	if search != "" {
		pattern = "%" + search + "%"
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads
		WHERE lower(remarks) = 'sold'
			AND balance_paid
			AND ($1::text IS NULL OR name ILIKE $1 OR phone ILIKE $1 OR email ILIKE $1)
		ORDER BY installation_date DESC NULLS LAST, updated_at DESC
		LIMIT $2`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("list completed projects: %w", err)
	}
	return scanLeads(rows)
}
