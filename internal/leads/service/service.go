package service

import (
	"context"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/events"
	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/leads/transport"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"
	"wrapcrm_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200
)

// AuditReader is the slice of the activity log the sold-date inference reads.
type AuditReader interface {
	ListForEntity(ctx context.Context, entityType, entityID, action string) ([]activity.Record, error)
	ListActionSince(ctx context.Context, entityType, action string, since time.Time) ([]activity.Record, error)
}

// FollowupObserver receives the bucket sizes after every classification.
type FollowupObserver interface {
	ObserveFollowups(counts map[string]int)
}

// Service provides business logic for leads.
type Service struct {
	repo     repository.Repository
	audit    AuditReader
	bus      events.Bus
	loc      *time.Location
	log      *logger.Logger
	observer FollowupObserver
	now      func() time.Time
}

// New creates a new leads service. loc decides which calendar day "today" is.
func New(repo repository.Repository, audit AuditReader, bus events.Bus, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, audit: audit, bus: bus, loc: loc, log: log, now: time.Now}
}

// SetFollowupObserver registers a metrics sink for follow-up counts.
func (s *Service) SetFollowupObserver(o FollowupObserver) {
	s.observer = o
}

func (s *Service) today() calendar.Date {
	return calendar.Today(s.now(), s.loc)
}

// GetByID retrieves a lead by ID.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.LeadResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}
	return toResponse(lead), nil
}

// List retrieves a filtered page of leads.
func (s *Service) List(ctx context.Context, req transport.ListLeadsRequest) (transport.LeadListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	status := ""
	if req.Status != "" {
		parsed, _ := domain.ParseStatus(req.Status)
		status = parsed.String()
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		Status:     status,
		Origin:     req.Origin,
		AssignedTo: req.AssignedTo,
		Search:     strings.TrimSpace(req.Search),
		HidePaid:   req.HidePaid,
		Limit:      pageSize,
		Offset:     (page - 1) * pageSize,
	})
	if err != nil {
		return transport.LeadListResponse{}, err
	}
	return transport.LeadListResponse{Items: toResponses(items), Total: total, Page: page, PageSize: pageSize}, nil
}

// Create creates a new lead. The creation date defaults to today and a New
// lead created with a follow-up date starts In Progress.
func (s *Service) Create(ctx context.Context, actor uuid.UUID, req transport.CreateLeadRequest) (transport.LeadResponse, error) {
	status := domain.StatusNew
	if req.Status != nil {
		parsed, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return transport.LeadResponse{}, apperr.Validation("invalid status")
		}
		status = parsed
	}
	status = domain.StatusAfterFollowupChange(status, req.NextFollowupDate)

	dateCreated := s.today().String()
	if req.DateCreated != nil {
		dateCreated = *req.DateCreated
	}

	fields := repository.Fields{
		Name:              strings.TrimSpace(req.Name),
		Phone:             phone.NormalizeE164(req.Phone),
		Email:             trimmedOrNil(req.Email),
		LeadOrigin:        strings.TrimSpace(req.LeadOrigin),
		DateCreated:       dateCreated,
		NextFollowupDate:  trimmedOrNil(req.NextFollowupDate),
		Remarks:           status.String(),
		AssignedTo:        trimmedOrNil(req.AssignedTo),
		ProjectAmount:     req.ProjectAmount,
		Notes:             sanitize.TextPtr(req.Notes),
		AdditionalNotes:   sanitize.TextPtr(req.AdditionalNotes),
		DepositPaid:       req.DepositPaid != nil && *req.DepositPaid,
		BalancePaid:       req.BalancePaid != nil && *req.BalancePaid,
		InstallationDate:  trimmedOrNil(req.InstallationDate),
		AssignedInstaller: trimmedOrNil(req.AssignedInstaller),
	}

	lead, err := s.repo.Create(ctx, repository.CreateParams{
		Fields: fields,
		Status: repository.StatusChange{NewStatus: fields.Remarks, ChangedBy: &actor},
		Activity: activity.Entry{
			UserID:     &actor,
			Action:     activity.ActionCreateLead,
			EntityType: activity.EntityLead,
			Details:    "Created lead: " + fields.Name,
		},
	})
	if err != nil {
		return transport.LeadResponse{}, err
	}

	s.log.Info("lead created", "id", lead.ID, "status", lead.Remarks)
	return toResponse(lead), nil
}

// Update applies a partial update. The changed columns are listed in the
// activity entry, a status change is appended to the status history and
// LeadStatusChanged is published once the transaction has committed.
func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req transport.UpdateLeadRequest) (transport.LeadResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	before := fieldsOf(current)
	after, err := applyUpdate(before, req)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	changed := changedFields(before, after)
	params := repository.UpdateParams{
		ID:     id,
		Fields: after,
		Activity: activity.Entry{
			UserID:     &actor,
			Action:     activity.ActionUpdateLead,
			EntityType: activity.EntityLead,
			Details:    activity.UpdateDetails("lead", after.Name, changed),
		},
	}
	statusChanged := !sameStatus(before.Remarks, after.Remarks)
	if statusChanged {
		old := before.Remarks
		params.Status = &repository.StatusChange{OldStatus: &old, NewStatus: after.Remarks, ChangedBy: &actor}
	}

	lead, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.LeadResponse{}, err
	}

	if statusChanged {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    lead.ID,
			LeadName:  lead.Name,
			OldStatus: before.Remarks,
			NewStatus: after.Remarks,
			ChangedBy: &actor,
		})
	}
	if lead.InstallationDate != nil && !equalStr(before.InstallationDate, after.InstallationDate) {
		installer := ""
		if lead.AssignedInstaller != nil {
			installer = *lead.AssignedInstaller
		}
		s.bus.Publish(ctx, events.InstallationScheduled{
			BaseEvent:        events.NewBaseEvent(),
			LeadID:           lead.ID,
			InstallationDate: *lead.InstallationDate,
			Installer:        installer,
		})
	}

	s.log.Info("lead updated", "id", lead.ID, "changes", changed)
	return toResponse(lead), nil
}

// Delete removes a lead.
func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	err = s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDeleteLead,
		EntityType: activity.EntityLead,
		Details:    "Deleted lead: " + lead.Name,
	})
	if err != nil {
		return err
	}
	s.log.Info("lead deleted", "id", id)
	return nil
}
