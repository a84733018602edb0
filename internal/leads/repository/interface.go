package repository

import (
	"context"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/leads/domain"

	"github.com/google/uuid"
)

// Lead is a row of the leads table. Calendar dates are carried as the
// YYYY-MM-DD strings Postgres renders them as.
type Lead struct {
	ID                uuid.UUID
	Name              string
	Phone             string
	Email             *string
	LeadOrigin        string
	DateCreated       string
	NextFollowupDate  *string
	Remarks           string
	AssignedTo        *string
	ProjectAmount     *float64
	Notes             *string
	AdditionalNotes   *string
	DepositPaid       bool
	BalancePaid       bool
	InstallationDate  *string
	AssignedInstaller *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (l Lead) LeadID() string        { return l.ID.String() }
func (l Lead) FollowupDate() *string { return l.NextFollowupDate }
func (l Lead) CreatedDate() string   { return l.DateCreated }
func (l Lead) IsBalancePaid() bool   { return l.BalancePaid }

// LeadStatus resolves the stored remarks value. Legacy rows may carry
// lowercase spellings; anything unrecognised is returned verbatim and counts
// as active.
func (l Lead) LeadStatus() domain.Status {
	if s, ok := domain.ParseStatus(l.Remarks); ok {
		return s
	}
	return domain.Status(l.Remarks)
}

var _ domain.PaymentAware = Lead{}

// Fields is the writable part of a lead.
type Fields struct {
	Name              string
	Phone             string
	Email             *string
	LeadOrigin        string
	DateCreated       string
	NextFollowupDate  *string
	Remarks           string
	AssignedTo        *string
	ProjectAmount     *float64
	Notes             *string
	AdditionalNotes   *string
	DepositPaid       bool
	BalancePaid       bool
	InstallationDate  *string
	AssignedInstaller *string
}

// StatusChange is appended to lead_status_history in the same transaction as
// the write that caused it.
type StatusChange struct {
	OldStatus *string
	NewStatus string
	ChangedBy *uuid.UUID
}

// CreateParams contains parameters for creating a lead.
type CreateParams struct {
	Fields   Fields
	Status   StatusChange
	Activity activity.Entry
}

// UpdateParams contains parameters for updating a lead. Status is nil when
// the status did not change.
type UpdateParams struct {
	ID       uuid.UUID
	Fields   Fields
	Status   *StatusChange
	Activity activity.Entry
}

// ListParams filters the paginated lead listing.
type ListParams struct {
	Status     string
	Origin     string
	AssignedTo string
	Search     string
	HidePaid   bool
	Limit      int
	Offset     int
}

// LeadReader provides read operations for leads.
type LeadReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, int, error)
	ListAll(ctx context.Context) ([]Lead, error)
}

// LeadWriter provides write operations for leads.
type LeadWriter interface {
	Create(ctx context.Context, params CreateParams) (Lead, error)
	Update(ctx context.Context, params UpdateParams) (Lead, error)
	Delete(ctx context.Context, id uuid.UUID, entry activity.Entry) error
}

// StatusHistoryReader reads lead_status_history.
type StatusHistoryReader interface {
	// LatestTransitionTo returns when the lead last moved into status, or nil.
	LatestTransitionTo(ctx context.Context, leadID uuid.UUID, status string) (*time.Time, error)
	// LeadsTransitionedTo lists leads that moved into status within [from, to).
	LeadsTransitionedTo(ctx context.Context, status string, from, to time.Time) ([]uuid.UUID, error)
}

// InstallationFilter narrows the installation schedule. Empty fields match
// everything; From and To are inclusive YYYY-MM-DD bounds.
type InstallationFilter struct {
	Installer string
	From      string
	To        string
}

// InstallationReader serves the installation schedule, which is a view over
// sold leads.
type InstallationReader interface {
	ListInstallations(ctx context.Context, filter InstallationFilter) ([]Lead, error)
	// ListCompleted returns sold leads with the balance paid, newest
	// installation first.
	ListCompleted(ctx context.Context, search string, limit int) ([]Lead, error)
}

var _ InstallationReader = (*Repo)(nil)

// Repository combines all lead repository operations.
type Repository interface {
	LeadReader
	LeadWriter
	StatusHistoryReader
}
