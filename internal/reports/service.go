package reports

import (
	"context"

	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/platform/logger"
)

// LeadLister loads every lead.
type LeadLister interface {
	ListAll(ctx context.Context) ([]repository.Lead, error)
}

type AnalyticsRequest struct {
	Year  int `form:"year" validate:"omitempty,min=2000,max=2100"`
	Month int `form:"month" validate:"omitempty,min=1,max=12"`
}

type YearsResponse struct {
	AvailableYears []int `json:"availableYears"`
}

type Service struct {
	leads LeadLister
	log   *logger.Logger
}

func NewService(leads LeadLister, log *logger.Logger) *Service {
	return &Service{leads: leads, log: log}
}

func (s *Service) Analytics(ctx context.Context, req AnalyticsRequest) (Analytics, error) {
	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return Analytics{}, err
	}
	return Compute(leads, Filter{Year: req.Year, Month: req.Month}), nil
}

func (s *Service) Years(ctx context.Context) (YearsResponse, error) {
	leads, err := s.leads.ListAll(ctx)
	if err != nil {
		return YearsResponse{}, err
	}
	return YearsResponse{AvailableYears: Years(leads)}, nil
}
