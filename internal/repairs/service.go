// Package repairs tracks service calls on completed installations.
package repairs

import (
	"context"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/internal/shared/names"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"
	"wrapcrm_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Priorities.
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
	PriorityUrgent = "Urgent"
)

// Statuses.
const (
	StatusPending    = "Pending"
	StatusInProgress = "In Progress"
	StatusCompleted  = "Completed"
	StatusCancelled  = "Cancelled"
)

type Service struct {
	repo Repository
	loc  *time.Location
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo Repository, loc *time.Location, log *logger.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, loc: loc, log: log, now: time.Now}
}

func (s *Service) today() string {
	return calendar.Today(s.now(), s.loc).String()
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Response, error) {
	items, err := s.repo.List(ctx, ListParams{
		Status:   req.Status,
		Priority: req.Priority,
		Search:   strings.TrimSpace(req.Search),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Response, len(items))
	for i, r := range items {
		out[i] = toResponse(r)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Response, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return toResponse(r), nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (Response, error) {
	f := Fields{
		LeadID:           req.LeadID,
		CustomerName:     names.Title(req.CustomerName),
		Phone:            phone.NormalizeE164(req.Phone),
		Email:            normalizeEmail(req.Email),
		Address:          strings.TrimSpace(req.Address),
		IssueDescription: sanitize.Text(req.IssueDescription),
		Priority:         req.Priority,
		Status:           req.Status,
		DateReported:     s.today(),
		Notes:            sanitize.TextPtr(req.Notes),
	}
	if f.Priority == "" {
		f.Priority = PriorityMedium
	}
	if f.Status == "" {
		f.Status = StatusPending
	}
	if req.DateReported != nil && *req.DateReported != "" {
		f.DateReported = *req.DateReported
	}
	s.stampCompletion(&f, "")

	r, err := s.repo.Create(ctx, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionCreate,
		EntityType: activity.EntityRepair,
		Details:    "Created repair request: " + f.CustomerName,
	})
	if err != nil {
		return Response{}, err
	}
	s.log.Info("repair request created", "id", r.ID, "priority", r.Priority)
	return toResponse(r), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req UpdateRequest) (Response, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	f, changed := applyUpdate(cur, req)
	s.stampCompletion(&f, cur.Status)

	r, err := s.repo.Update(ctx, id, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdate,
		EntityType: activity.EntityRepair,
		Details:    activity.UpdateDetails("repair request", f.CustomerName, changed),
	})
	if err != nil {
		return Response{}, err
	}
	return toResponse(r), nil
}

func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDelete,
		EntityType: activity.EntityRepair,
		Details:    "Deleted repair request: " + r.CustomerName,
	})
}

// stampCompletion dates a request on its move to Completed and clears the
// date when it is reopened. An explicit completion date is kept.
func (s *Service) stampCompletion(f *Fields, prevStatus string) {
	switch {
	case f.Status == StatusCompleted && prevStatus != StatusCompleted && f.CompletionDate == nil:
		today := s.today()
		f.CompletionDate = &today
	case f.Status != StatusCompleted && prevStatus == StatusCompleted:
		f.CompletionDate = nil
	}
}

func applyUpdate(cur Request, req UpdateRequest) (Fields, []string) {
	f := Fields{
		LeadID: cur.LeadID, CustomerName: cur.CustomerName, Phone: cur.Phone, Email: cur.Email,
		Address: cur.Address, IssueDescription: cur.IssueDescription, Priority: cur.Priority,
		Status: cur.Status, DateReported: cur.DateReported, CompletionDate: cur.CompletionDate, Notes: cur.Notes,
	}
	changed := make([]string, 0)

	if req.LeadID != nil {
		f.LeadID = req.LeadID
		changed = append(changed, "lead_id")
	}
	if req.CustomerName != nil && names.Title(*req.CustomerName) != cur.CustomerName {
		f.CustomerName = names.Title(*req.CustomerName)
		changed = append(changed, "customer_name")
	}
	if req.Phone != nil && phone.NormalizeE164(*req.Phone) != cur.Phone {
		f.Phone = phone.NormalizeE164(*req.Phone)
		changed = append(changed, "phone")
	}
	if req.Email != nil {
		f.Email = normalizeEmail(req.Email)
		changed = append(changed, "email")
	}
	if req.Address != nil {
		f.Address = strings.TrimSpace(*req.Address)
		changed = append(changed, "address")
	}
	if req.IssueDescription != nil {
		f.IssueDescription = sanitize.Text(*req.IssueDescription)
		changed = append(changed, "issue_description")
	}
	if req.Priority != nil && *req.Priority != cur.Priority {
		f.Priority = *req.Priority
		changed = append(changed, "priority")
	}
	if req.Status != nil && *req.Status != cur.Status {
		f.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.DateReported != nil && *req.DateReported != "" {
		f.DateReported = *req.DateReported
		changed = append(changed, "date_reported")
	}
	if req.CompletionDate != nil {
		f.CompletionDate = trimmedOrNil(req.CompletionDate)
		changed = append(changed, "completion_date")
	}
	if req.Notes != nil {
		f.Notes = sanitize.TextPtr(req.Notes)
		changed = append(changed, "notes")
	}
	return f, changed
}

func toResponse(r Request) Response {
	return Response{
		ID: r.ID, LeadID: r.LeadID, CustomerName: r.CustomerName, Phone: r.Phone,
		PhoneDisplay: phone.Display(r.Phone), Email: r.Email, Address: r.Address,
		IssueDescription: r.IssueDescription, Priority: r.Priority, Status: r.Status,
		DateReported: r.DateReported, CompletionDate: r.CompletionDate, Notes: r.Notes,
		CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
	}
}

func normalizeEmail(e *string) *string {
	v := trimmedOrNil(e)
	if v == nil {
		return nil
	}
	lower := strings.ToLower(*v)
	return &lower
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
