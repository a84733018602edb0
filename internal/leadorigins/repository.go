package leadorigins

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
	originNotFoundMsg = "lead origin not found"
	uniqueViolation   = "23505"
)

// Origin is a row of the lead_origins table.
type Origin struct {
	ID        uuid.UUID
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

type Repository interface {
	List(ctx context.Context, activeOnly bool) ([]Origin, error)
	GetByID(ctx context.Context, id uuid.UUID) (Origin, error)
	Create(ctx context.Context, name string, active bool, entry activity.Entry) (Origin, error)
	Update(ctx context.Context, id uuid.UUID, name string, active bool, entry activity.Entry) (Origin, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
	// SeedIfEmpty inserts names only when the table has no rows and reports
	// how many were inserted.
	SeedIfEmpty(ctx context.Context, names []string) (int, error)
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const originColumns = `id, name, is_active, created_at`

func scanOrigin(row pgx.Row) (Origin, error) {
	var o Origin
	err := row.Scan(&o.ID, &o.Name, &o.IsActive, &o.CreatedAt)
	return o, err
}

func (r *Repo) List(ctx context.Context, activeOnly bool) ([]Origin, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+originColumns+` FROM lead_origins
		WHERE (NOT $1 OR is_active)
		ORDER BY name`, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("list lead origins: %w", err)
	}
	defer rows.Close()

	out := make([]Origin, 0)
	for rows.Next() {
		o, err := scanOrigin(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead origin: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Origin, error) {
	o, err := scanOrigin(r.pool.QueryRow(ctx, `SELECT `+originColumns+` FROM lead_origins WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Origin{}, apperr.NotFound(originNotFoundMsg)
	}
	if err != nil {
		return Origin{}, fmt.Errorf("get lead origin: %w", err)
	}
	return o, nil
}

func (r *Repo) Create(ctx context.Context, name string, active bool, entry activity.Entry) (Origin, error) {
	var out Origin
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanOrigin(tx.QueryRow(ctx, `
			INSERT INTO lead_origins (id, name, is_active) VALUES ($1, $2, $3)
			RETURNING `+originColumns, uuid.New(), name, active))
		if err != nil {
			return mapWriteError(err, "insert lead origin")
		}
		entry.EntityID = out.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Origin{}, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, name string, active bool, entry activity.Entry) (Origin, error) {
	var out Origin
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanOrigin(tx.QueryRow(ctx, `
			UPDATE lead_origins SET name = $2, is_active = $3 WHERE id = $1
			RETURNING `+originColumns, id, name, active))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(originNotFoundMsg)
		}
		if err != nil {
			return mapWriteError(err, "update lead origin")
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Origin{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM lead_origins WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete lead origin: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(originNotFoundMsg)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}

func (r *Repo) SeedIfEmpty(ctx context.Context, names []string) (int, error) {
	inserted := 0
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		// serialises concurrent starts of several api replicas
		if _, err := tx.Exec(ctx, `LOCK TABLE lead_origins IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return fmt.Errorf("lock lead origins: %w", err)
		}
		var count int
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM lead_origins`).Scan(&count); err != nil {
			return fmt.Errorf("count lead origins: %w", err)
		}
		if count > 0 {
			return nil
		}

		batch := &pgx.Batch{}
		for _, n := range names {
			batch.Queue(`INSERT INTO lead_origins (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING`, uuid.New(), n)
		}
		br := tx.SendBatch(ctx, batch)
		for range names {
			tag, err := br.Exec()
			if err != nil {
				br.Close()
				return fmt.Errorf("seed lead origin: %w", err)
			}
			inserted += int(tag.RowsAffected())
		}
		return br.Close()
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func mapWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return apperr.Conflict("a lead origin with this name already exists")
	}
	return fmt.Errorf("%s: %w", op, err)
}
