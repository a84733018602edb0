package booklets

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

const bookletNotFoundMsg = "sample booklet not found"

// ErrStatusMoved reports that an order no longer had the status a tracking
// update was computed from, so the update was not applied.
var ErrStatusMoved = errors.New("sample booklet status changed concurrently")

// Booklet is a row of the sample_booklets table.
type Booklet struct {
	ID             uuid.UUID
	OrderNumber    *string
	CustomerName   string
	Address        string
	Email          string
	Phone          *string
	ProductType    string
	TrackingNumber *string
	Status         string
	DateOrdered    string
	DateShipped    *string
	Notes          *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Fields are the writable columns.
type Fields struct {
	OrderNumber    *string
	CustomerName   string
	Address        string
	Email          string
	Phone          *string
	ProductType    string
	TrackingNumber *string
	Status         string
	DateOrdered    string
	DateShipped    *string
	Notes          *string
}

type ListParams struct {
	Status      string
	ProductType string
	Search      string
}

// Stats are the order counts behind the booklet dashboard.
type Stats struct {
	Total     int
	Pending   int
	Shipped   int
	Delivered int
	Refunded  int
	ThisWeek  int
}

type Repository interface {
	List(ctx context.Context, p ListParams) ([]Booklet, error)
	GetByID(ctx context.Context, id uuid.UUID) (Booklet, error)
	Create(ctx context.Context, f Fields, entry activity.Entry) (Booklet, error)
	Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Booklet, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
	// Stats counts orders; ThisWeek covers orders dated on or after since.
	Stats(ctx context.Context, since string) (Stats, error)
	// ListOpenTracking returns orders with a tracking number that are neither
	// delivered nor refunded.
	ListOpenTracking(ctx context.Context) ([]Booklet, error)
	// ApplyTrackingStatus moves an order from one status to another. It
	// returns ErrStatusMoved when the stored status is no longer from or the
	// order has since been delivered or refunded. shippedOn fills
	// date_shipped only when it is still empty.
	ApplyTrackingStatus(ctx context.Context, id uuid.UUID, from, to string, shippedOn *string, entry activity.Entry) (Booklet, error)
}

type Repo struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

const bookletColumns = `id, order_number, customer_name, address, email, phone, product_type,
	tracking_number, status, to_char(date_ordered, 'YYYY-MM-DD'), to_char(date_shipped, 'YYYY-MM-DD'),
	notes, created_at, updated_at`

func scanBooklet(row pgx.Row) (Booklet, error) {
	var b Booklet
	err := row.Scan(&b.ID, &b.OrderNumber, &b.CustomerName, &b.Address, &b.Email, &b.Phone,
		&b.ProductType, &b.TrackingNumber, &b.Status, &b.DateOrdered, &b.DateShipped,
		&b.Notes, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (r *Repo) collect(rows pgx.Rows, op string) ([]Booklet, error) {
	defer rows.Close()
	out := make([]Booklet, 0)
	for rows.Next() {
		b, err := scanBooklet(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) List(ctx context.Context, p ListParams) ([]Booklet, error) {
	var pattern interface{}
	if p.Search != "" {
		pattern = "%" + p.Search + "%"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookletColumns+` FROM sample_booklets
		WHERE ($1 = '' OR status = $1)
		  AND ($2 = '' OR product_type = $2)
		  AND ($3::text IS NULL OR customer_name ILIKE $3 OR email ILIKE $3
		       OR order_number ILIKE $3 OR tracking_number ILIKE $3)
		ORDER BY date_ordered DESC, created_at DESC`, p.Status, p.ProductType, pattern)
	if err != nil {
		return nil, fmt.Errorf("list sample booklets: %w", err)
	}
	return r.collect(rows, "scan sample booklet")
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Booklet, error) {
	b, err := scanBooklet(r.pool.QueryRow(ctx, `SELECT `+bookletColumns+` FROM sample_booklets WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Booklet{}, apperr.NotFound(bookletNotFoundMsg)
	}
	if err != nil {
		return Booklet{}, fmt.Errorf("get sample booklet: %w", err)
	}
	return b, nil
}

func (r *Repo) Create(ctx context.Context, f Fields, entry activity.Entry) (Booklet, error) {
	var out Booklet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanBooklet(tx.QueryRow(ctx, `
			INSERT INTO sample_booklets (id, order_number, customer_name, address, email, phone,
				product_type, tracking_number, status, date_ordered, date_shipped, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10::date, $11::date, $12)
			RETURNING `+bookletColumns,
			uuid.New(), f.OrderNumber, f.CustomerName, f.Address, f.Email, f.Phone,
			f.ProductType, f.TrackingNumber, f.Status, f.DateOrdered, f.DateShipped, f.Notes))
		if err != nil {
			return fmt.Errorf("insert sample booklet: %w", err)
		}
		entry.EntityID = out.ID.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Booklet{}, err
	}
	return out, nil
}

func (r *Repo) Update(ctx context.Context, id uuid.UUID, f Fields, entry activity.Entry) (Booklet, error) {
	var out Booklet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanBooklet(tx.QueryRow(ctx, `
			UPDATE sample_booklets SET
				order_number = $2, customer_name = $3, address = $4, email = $5, phone = $6,
				product_type = $7, tracking_number = $8, status = $9, date_ordered = $10::date,
				date_shipped = $11::date, notes = $12, updated_at = now()
			WHERE id = $1
			RETURNING `+bookletColumns,
			id, f.OrderNumber, f.CustomerName, f.Address, f.Email, f.Phone,
			f.ProductType, f.TrackingNumber, f.Status, f.DateOrdered, f.DateShipped, f.Notes))
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound(bookletNotFoundMsg)
		}
		if err != nil {
			return fmt.Errorf("update sample booklet: %w", err)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Booklet{}, err
	}
	return out, nil
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM sample_booklets WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete sample booklet: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound(bookletNotFoundMsg)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
}

func (r *Repo) Stats(ctx context.Context, since string) (Stats, error) {
	var s Stats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Pending'),
			COUNT(*) FILTER (WHERE status = 'Shipped'),
			COUNT(*) FILTER (WHERE status = 'Delivered'),
			COUNT(*) FILTER (WHERE status = 'Refunded'),
			COUNT(*) FILTER (WHERE date_ordered >= $1::date)
		FROM sample_booklets`, since).
		Scan(&s.Total, &s.Pending, &s.Shipped, &s.Delivered, &s.Refunded, &s.ThisWeek)
	if err != nil {
		return Stats{}, fmt.Errorf("sample booklet stats: %w", err)
	}
	return s, nil
}

func (r *Repo) ListOpenTracking(ctx context.Context) ([]Booklet, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+bookletColumns+` FROM sample_booklets
		WHERE tracking_number IS NOT NULL AND tracking_number <> ''
		  AND status NOT IN ('Delivered', 'Refunded')
		ORDER BY date_ordered`)
	if err != nil {
		return nil, fmt.Errorf("list open tracking: %w", err)
	}
	return r.collect(rows, "scan sample booklet")
}

func (r *Repo) ApplyTrackingStatus(ctx context.Context, id uuid.UUID, from, to string, shippedOn *string, entry activity.Entry) (Booklet, error) {
	var out Booklet
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var err error
		out, err = scanBooklet(tx.QueryRow(ctx, `
			UPDATE sample_booklets SET
				status = $2,
				date_shipped = COALESCE(date_shipped, $3::date),
				updated_at = now()
			WHERE id = $1
			  AND status = $4
			  AND status NOT IN ('Delivered', 'Refunded')
			RETURNING `+bookletColumns, id, to, shippedOn, from))
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrStatusMoved
		}
		if err != nil {
			return fmt.Errorf("apply tracking status: %w", err)
		}
		entry.EntityID = id.String()
		return activity.Insert(ctx, tx, entry)
	})
	if err != nil {
		return Booklet{}, err
	}
	return out, nil
}
