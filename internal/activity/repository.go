package activity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Execer is satisfied by both *pgxpool.Pool and pgx.Tx, so entries can be
// written inside the caller's transaction.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// Entry is a new activity log line.
type Entry struct {
	UserID     *uuid.UUID
	Action     string
	EntityType string
	EntityID   string
	Details    string
}

// Record is a stored activity log line joined with the acting user's name.
type Record struct {
	ID         int64
	UserID     *uuid.UUID
	Username   *string
	Action     string
	EntityType string
	EntityID   *string
	Details    string
	CreatedAt  time.Time
}

// ListParams filters the admin activity listing.
type ListParams struct {
	Search     string
	EntityType string
	Action     string
	Since      *time.Time
	Limit      int
	Offset     int
}

// Repo reads and appends activity_logs rows.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Insert appends e using db.
func Insert(ctx context.Context, db Execer, e Entry) error {
	var entityID *string
	if e.EntityID != "" {
		entityID = &e.EntityID
	}
	_, err := db.Exec(ctx, `
		INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		e.UserID, e.Action, e.EntityType, entityID, e.Details,
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	return nil
}

func (r *Repo) Insert(ctx context.Context, e Entry) error {
	return Insert(ctx, r.pool, e)
}

const selectRecord = `
	SELECT a.id, a.user_id, u.username, a.action, a.entity_type, a.entity_id, a.details, a.created_at
	FROM activity_logs a
	LEFT JOIN users u ON u.id = a.user_id`

func (r *Repo) List(ctx context.Context, p ListParams) ([]Record, int, error) {
	var search interface{}
	if p.Search != "" {
		search = "%" + p.Search + "%"
	}
	var entityType, action interface{}
	if p.EntityType != "" {
		entityType = p.EntityType
	}
	if p.Action != "" {
		action = p.Action
	}
	var since interface{}
	if p.Since != nil {
		since = *p.Since
	}

	where := `
	WHERE ($1::text IS NULL OR a.details ILIKE $1 OR a.action ILIKE $1 OR u.username ILIKE $1)
		AND ($2::text IS NULL OR a.entity_type = $2)
		AND ($3::text IS NULL OR a.action = $3)
		AND ($4::timestamptz IS NULL OR a.created_at >= $4)`
	args := []interface{}{search, entityType, action, since}

	var total int
	countQuery := `SELECT COUNT(*) FROM activity_logs a LEFT JOIN users u ON u.id = a.user_id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	query := selectRecord + where + `
	ORDER BY a.created_at DESC, a.id DESC
	LIMIT $5 OFFSET $6`
	rows, err := r.pool.Query(ctx, query, append(args, p.Limit, p.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	items, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListForEntity returns every entry for one entity with the given action,
// unordered.
func (r *Repo) ListForEntity(ctx context.Context, entityType, entityID, action string) ([]Record, error) {
	rows, err := r.pool.Query(ctx, selectRecord+`
	WHERE a.entity_type = $1 AND a.entity_id = $2 AND a.action = $3`,
		entityType, entityID, action)
	if err != nil {
		return nil, fmt.Errorf("list activity for entity: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// ListActionSince returns entries of one entity type and action created at or
// after since.
func (r *Repo) ListActionSince(ctx context.Context, entityType, action string, since time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, selectRecord+`
	WHERE a.entity_type = $1 AND a.action = $2 AND a.created_at >= $3`,
		entityType, action, since)
	if err != nil {
		return nil, fmt.Errorf("list activity since: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

type recordRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanRecords(rows recordRows) ([]Record, error) {
	items := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Username, &rec.Action, &rec.EntityType,
			&rec.EntityID, &rec.Details, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity log: %w", err)
		}
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity logs: %w", err)
	}
	return items, nil
}
