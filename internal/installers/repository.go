package installers

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
	installerNotFoundMsg = "installer not found"
	uniqueViolation      = "23505"
)

// Installer is a row of the installers table.
type Installer struct {
	ID         uuid.UUID
	Name       string
	Phone      *string
	Email      *string
	Status     string
	HireDate   *string
	HourlyRate *float64
	Specialty  *string
	Notes      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Fields are the writable columns.
type Fields struct {
	Name       string
	Phone      *string
	Email      *string
	Status     string
	HireDate   *string
	HourlyRate *float64
	Specialty  *string
	Notes      *string
}

type Repository interface {
	List(ctx context.Context, status string) ([]Installer, error)
	GetByID(ctx context.Context, id uuid.UUID) (Installer, error)
	FindByName(ctx context.Context, name string) (*Installer, error)
	Create(ctx context.Context, f Fields, entry activity.Entry) (Installer, error)
	Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Installer, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const installerColumns = `id, name, phone, email, status, to_char(hire_date, 'YYYY-MM-DD'),
	hourly_rate::float8, specialty, notes, created_at, updated_at`

func scanInstaller(row pgx.Row) (Installer, error) {
	var i Installer
	err := row.Scan(&i.ID, &i.Name, &i.Phone, &i.Email, &i.Status, &i.HireDate,
		&i.HourlyRate, &i.Specialty, &i.Notes, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

func (r *Repo) List(ctx context.Context, status string) ([]Installer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+installerColumns+` FROM installers
		WHERE ($1 = '' OR status = $1)
		ORDER BY name`, status)
	if err != nil {
		return nil, fmt.Errorf("list installers: %w", err)
	}
	defer rows.Close()

	out := make([]Installer, 0)
	for rows.Next() {
		i, err := scanInstaller(rows)
		if err != nil {
			return nil, fmt.Errorf("scan installer: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Installer, error) {
	i, err := scanInstaller(r.pool.QueryRow(ctx, `SELECT `+installerColumns+` FROM installers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Installer{}, apperr.NotFound(installerNotFoundMsg)
	}
	if err != nil {
		return Installer{}, fmt.Errorf("get installer: %w", err)
	}
	return i, nil
}

// FindByName matches case-insensitively; nil when nobody has that name.
func (r *Repo) FindByName(ctx context.Context, name string) (*Installer, error) {
	i, err := scanInstaller(r.pool.QueryRow(ctx, `
		SELECT `+installerColumns+` FROM installers
		WHERE lower(name) = lower($1)
		ORDER BY (status = 'active') DESC, created_at
		LIMIT 1`, name))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find installer by name: %w", err)
	}
	return &i, nil
}

func (r *Repo) Create(ctx context.Context, f Fields, entry activity.Entry) (Installer, error) {
	var out Installer
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanInstaller(tx.QueryRow(ctx, `
			INSERT INTO installers (id, name, phone, email, status, hire_date, hourly_rate, specialty, notes)
			VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8, $9)
			RETURNING `+installerColumns,
			uuid.New(), f.Name, f.Phone, f.Email, f.Status, f.HireDate, f.HourlyRate, f.Specialty, f.Notes))
		if err != nil {
			return mapWriteError(err, "insert installer")
		}
		entry.EntityID = out.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Installer{}, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Installer, error) {
	var out Installer
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanInstaller(tx.QueryRow(ctx, `
			UPDATE installers SET
				name = $2, phone = $3, email = $4, status = $5, hire_date = $6::date,
				hourly_rate = $7, specialty = $8, notes = $9, updated_at = now()
			WHERE id = $1
			RETURNING `+installerColumns,
			id, f.Name, f.Phone, f.Email, f.Status, f.HireDate, f.HourlyRate, f.Specialty, f.Notes))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(installerNotFoundMsg)
		}
		if err != nil {
			return mapWriteError(err, "update installer")
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Installer{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM installers WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete installer: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(installerNotFoundMsg)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("an installer with this email already exists")
	}
	return fmt.Errorf("%s: %w", op, err)
}
