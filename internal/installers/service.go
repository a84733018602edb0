// Package installers manages the installation crews that leads are assigned to.
package installers

import (
	"context"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/shared/names"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"

	"github.com/google/uuid"
)

// Statuses.
const (
	StatusActive     = "active"
	StatusInactive   = "inactive"
	StatusOnLeave    = "on_leave"
	StatusTerminated = "terminated"
)

type CreateRequest struct {
	Name       string   `json:"name" validate:"required,max=200"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,email,max=200"`
	Status     string   `json:"status" validate:"omitempty,oneof=active inactive on_leave terminated"`
	HireDate   *string  `json:"hireDate,omitempty" validate:"omitempty,calendardate"`
	HourlyRate *float64 `json:"hourlyRate,omitempty" validate:"omitempty,min=0"`
	Specialty  *string  `json:"specialty,omitempty" validate:"omitempty,max=200"`
	Notes      *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateRequest is a partial update.
type UpdateRequest struct {
	Name       *string  `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Phone      *string  `json:"phone,omitempty" validate:"omitempty,max=40"`
	Email      *string  `json:"email,omitempty" validate:"omitempty,max=200"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive on_leave terminated"`
	HireDate   *string  `json:"hireDate,omitempty" validate:"omitempty,calendardate"`
	HourlyRate *float64 `json:"hourlyRate,omitempty" validate:"omitempty,min=0"`
	Specialty  *string  `json:"specialty,omitempty" validate:"omitempty,max=200"`
	Notes      *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

type ListRequest struct {
	Status string `form:"status" validate:"omitempty,oneof=active inactive on_leave terminated"`
}

type Response struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Phone        *string   `json:"phone,omitempty"`
	PhoneDisplay string    `json:"phoneDisplay,omitempty"`
	Email        *string   `json:"email,omitempty"`
	Status       string    `json:"status"`
	HireDate     *string   `json:"hireDate,omitempty"`
	HourlyRate   *float64  `json:"hourlyRate,omitempty"`
	Specialty    *string   `json:"specialty,omitempty"`
	Notes        *string   `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, status string) ([]Response, error) {
	items, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]Response, len(items))
	for i, it := range items {
		out[i] = toResponse(it)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Response, error) {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return toResponse(it), nil
}

// EmailFor returns the email of the installer with the given display name.
func (s *Service) EmailFor(ctx context.Context, name string) (string, error) {
	it, err := s.repo.FindByName(ctx, strings.TrimSpace(name))
	if err != nil || it == nil || it.Email == nil {
		return "", err
	}
	return *it.Email, nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (Response, error) {
	f := Fields{
		Name:       names.Title(req.Name),
		Phone:      normalizePhone(req.Phone),
		Email:      normalizeEmail(req.Email),
		Status:     req.Status,
		HireDate:   trimmedOrNil(req.HireDate),
		HourlyRate: req.HourlyRate,
		Specialty:  trimmedOrNil(req.Specialty),
		Notes:      req.Notes,
	}
	if f.Status == "" {
		f.Status = StatusActive
	}

	it, err := s.repo.Create(ctx, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionCreate,
		EntityType: activity.EntityInstaller,
		Details:    "Created installer: " + f.Name,
	})
	if err != nil {
		return Response{}, err
	}
	s.log.Info("installer created", "id", it.ID)
	return toResponse(it), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req UpdateRequest) (Response, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	f := Fields{
		Name: cur.Name, Phone: cur.Phone, Email: cur.Email, Status: cur.Status,
		HireDate: cur.HireDate, HourlyRate: cur.HourlyRate, Specialty: cur.Specialty, Notes: cur.Notes,
	}
	changed := make([]string, 0)
	if req.Name != nil && names.Title(*req.Name) != cur.Name {
		f.Name = names.Title(*req.Name)
		changed = append(changed, "name")
	}
	if req.Phone != nil {
		f.Phone = normalizePhone(req.Phone)
		changed = append(changed, "phone")
	}
	if req.Email != nil {
		f.Email = normalizeEmail(req.Email)
		changed = append(changed, "email")
	}
	if req.Status != nil && *req.Status != cur.Status {
		f.Status = *req.Status
		changed = append(changed, "status")
	}
	if req.HireDate != nil {
		f.HireDate = trimmedOrNil(req.HireDate)
		changed = append(changed, "hire_date")
	}
	if req.HourlyRate != nil {
		f.HourlyRate = req.HourlyRate
		changed = append(changed, "hourly_rate")
	}
	if req.Specialty != nil {
		f.Specialty = trimmedOrNil(req.Specialty)
		changed = append(changed, "specialty")
	}
	if req.Notes != nil {
		f.Notes = req.Notes
		changed = append(changed, "notes")
	}

	it, err := s.repo.Update(ctx, id, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdate,
		EntityType: activity.EntityInstaller,
		Details:    activity.UpdateDetails("installer", f.Name, changed),
	})
	if err != nil {
		return Response{}, err
	}
	return toResponse(it), nil
}

func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	it, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDelete,
		EntityType: activity.EntityInstaller,
		Details:    "Deleted installer: " + it.Name,
	})
}

func toResponse(i Installer) Response {
	r := Response{
		ID: i.ID, Name: i.Name, Phone: i.Phone, Email: i.Email, Status: i.Status,
		HireDate: i.HireDate, HourlyRate: i.HourlyRate, Specialty: i.Specialty, Notes: i.Notes,
		CreatedAt: i.CreatedAt, UpdatedAt: i.UpdatedAt,
	}
	if i.Phone != nil {
		r.PhoneDisplay = phone.Display(*i.Phone)
	}
	return r
}

func normalizePhone(p *string) *string {
	v := trimmedOrNil(p)
	if v == nil {
		return nil
	}
	n := phone.NormalizeE164(*v)
	return &n
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
