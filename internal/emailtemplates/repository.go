package emailtemplates

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

const templateNotFoundMsg = "email template not found"

// Template is a row of the email_templates table.
type Template struct {
	ID        uuid.UUID
	Name      string
	Type      string
	Subject   string
	Body      string
	Variables []string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Fields are the writable columns.
type Fields struct {
	Name      string
	Type      string
	Subject   string
	Body      string
	Variables []string
	IsActive  bool
}

type Repository interface {
	List(ctx context.Context, templateType string) ([]Template, error)
	GetByID(ctx context.Context, id uuid.UUID) (Template, error)
	// FindActive returns the newest active template of a type, nil when none.
	FindActive(ctx context.Context, templateType string) (*Template, error)
	Create(ctx context.Context, f Fields, entry activity.Entry) (Template, error)
	Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Template, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const templateColumns = `id, name, template_type, subject, body, variables, is_active, created_at, updated_at`

func scanTemplate(row pgx.Row) (Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Type, &t.Subject, &t.Body, &t.Variables, &t.IsActive, &t.CreatedAt, &t.UpdatedAt)
	if t.Variables == nil {
		t.Variables = []string{}
	}
	return t, err
}

func (r *Repo) List(ctx context.Context, templateType string) ([]Template, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+templateColumns+` FROM email_templates
		WHERE ($1 = '' OR template_type = $1)
		ORDER BY created_at DESC`, templateType)
	if err != nil {
		return nil, fmt.Errorf("list email templates: %w", err)
	}
	defer rows.Close()

	out := make([]Template, 0)
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan email template: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateColumns+` FROM email_templates WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Template{}, apperr.NotFound(templateNotFoundMsg)
	}
	if err != nil {
		return Template{}, fmt.Errorf("get email template: %w", err)
	}
	return t, nil
}

func (r *Repo) FindActive(ctx context.Context, templateType string) (*Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `
		SELECT `+templateColumns+` FROM email_templates
		WHERE template_type = $1 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1`, templateType))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active email template: %w", err)
	}
	return &t, nil
}

func (r *Repo) Create(ctx context.Context, f Fields, entry activity.Entry) (Template, error) {
	var out Template
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanTemplate(tx.QueryRow(ctx, `
			INSERT INTO email_templates (id, name, template_type, subject, body, variables, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+templateColumns,
			uuid.New(), f.Name, f.Type, f.Subject, f.Body, f.Variables, f.IsActive))
		if err != nil {
			return fmt.Errorf("insert email template: %w", err)
		}
		entry.EntityID = out.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Template{}, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Template, error) {
	var out Template
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanTemplate(tx.QueryRow(ctx, `
			UPDATE email_templates SET
				name = $2, template_type = $3, subject = $4, body = $5, variables = $6,
				is_active = $7, updated_at = now()
			WHERE id = $1
			RETURNING `+templateColumns,
			id, f.Name, f.Type, f.Subject, f.Body, f.Variables, f.IsActive))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(templateNotFoundMsg)
		}
		if err != nil {
			return fmt.Errorf("update email template: %w", err)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Template{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM email_templates WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete email template: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(templateNotFoundMsg)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}
