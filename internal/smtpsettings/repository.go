package smtpsettings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/platform/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Row is the stored SMTP configuration. PasswordEncrypted is hex AES-GCM.
type Row struct {
	ID                uuid.UUID
	Host              string
	Port              int
	Username          string
	PasswordEncrypted string
	FromEmail         string
	FromName          string
	UseTLS            bool
	IsActive          bool
	UpdatedBy         *uuid.UUID
	UpdatedAt         time.Time
}

type store interface {
	Active(ctx context.Context) (*Row, error)
	Save(ctx context.Context, row Row, entry activity.Entry) (Row, error)
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const rowColumns = `id, host, port, username, password_encrypted, from_email, from_name, use_tls, is_active, updated_by, updated_at`

func scanRow(row pgx.Row) (Row, error) {
	var r Row
	err := row.Scan(&r.ID, &r.Host, &r.Port, &r.Username, &r.PasswordEncrypted, &r.FromEmail, &r.FromName,
		&r.UseTLS, &r.IsActive, &r.UpdatedBy, &r.UpdatedAt)
	return r, err
}

// Active returns the active settings row or nil.
func (r *Repo) Active(ctx context.Context) (*Row, error) {
	row, err := scanRow(r.pool.QueryRow(ctx, `
		SELECT `+rowColumns+` FROM smtp_settings
		WHERE is_active ORDER BY updated_at DESC LIMIT 1`))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active smtp settings: %w", err)
	}
	return &row, nil
}

// Save deactivates every other row and upserts row as the active one.
func (r *Repo) Save(ctx context.Context, row Row, entry activity.Entry) (Row, error) {
	var saved Row
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE smtp_settings SET is_active = false WHERE id <> $1`, row.ID); err != nil {
			return fmt.Errorf("deactivate smtp settings: %w", err)
		}

		var err error
		saved, err = scanRow(tx.QueryRow(ctx, `
			INSERT INTO smtp_settings (id, host, port, username, password_encrypted, from_email, from_name, use_tls, is_active, updated_by)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (id) DO UPDATE SET
				host = EXCLUDED.host,
				port = EXCLUDED.port,
				username = EXCLUDED.username,
				password_encrypted = EXCLUDED.password_encrypted,
				from_email = EXCLUDED.from_email,
				from_name = EXCLUDED.from_name,
				use_tls = EXCLUDED.use_tls,
				is_active = EXCLUDED.is_active,
				updated_by = EXCLUDED.updated_by,
				updated_at = now()
			RETURNING `+rowColumns,
			row.ID, row.Host, row.Port, row.Username, row.PasswordEncrypted, row.FromEmail, row.FromName,
			row.UseTLS, row.IsActive, row.UpdatedBy))
		if err != nil {
			return fmt.Errorf("save smtp settings: %w", err)
		}

		entry.EntityID = saved.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Row{}, err
	}
	return saved, nil
}

var _ store = (*Repo)(nil)
