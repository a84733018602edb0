// Package exports writes lead lists to CSV files in object storage and hands
// back a short-lived download link.
package exports

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/adapters/storage"
	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

const (
	pageSize    = 500
	contentType = "text/csv"
)

// LeadQuery pages through filtered leads.
type LeadQuery interface {
	List(ctx context.Context, params repository.ListParams) ([]repository.Lead, int, error)
}

type LeadExportRequest struct {
	Status     string `json:"status" validate:"omitempty,leadstatus"`
	Origin     string `json:"origin" validate:"max=100"`
	AssignedTo string `json:"assignedTo" validate:"max=100"`
	Search     string `json:"search" validate:"max=200"`
	HidePaid   bool   `json:"hidePaid"`
}

type ExportResponse struct {
	URL       string    `json:"url"`
	FileKey   string    `json:"fileKey"`
	ExpiresAt time.Time `json:"expiresAt"`
	Rows      int       `json:"rows"`
}

type Service struct {
	leads    LeadQuery
	store    storage.StorageService
	bucket   string
	recorder activity.Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewService builds the export service. A nil store disables exports.
func NewService(leads LeadQuery, store storage.StorageService, bucket string, recorder activity.Recorder, log *logger.Logger) *Service {
	return &Service{leads: leads, store: store, bucket: bucket, recorder: recorder, log: log, now: time.Now}
}

func (s *Service) Enabled() bool { return s.store != nil }

// ExportLeads writes every lead matching req to a CSV object.
func (s *Service) ExportLeads(ctx context.Context, actor uuid.UUID, req LeadExportRequest) (ExportResponse, error) {
	if !s.Enabled() {
		return ExportResponse{}, apperr.Unavailable("exports are not configured")
	}

	leads, err := s.collect(ctx, req)
	if err != nil {
		return ExportResponse{}, err
	}

	var buf bytes.Buffer
	if err := WriteLeadsCSV(&buf, leads); err != nil {
		return ExportResponse{}, fmt.Errorf("write leads csv: %w", err)
	}

	now := s.now().UTC()
	folder := "leads/" + now.Format("2006-01-02")
	fileName := "leads-" + now.Format("20060102-150405") + ".csv"
	key, err := s.store.UploadFile(ctx, s.bucket, folder, fileName, contentType, bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		return ExportResponse{}, apperr.Wrap(apperr.KindUnavailable, "Failed to store export", err)
	}

	link, err := s.store.GenerateDownloadURL(ctx, s.bucket, key)
	if err != nil {
		return ExportResponse{}, apperr.Wrap(apperr.KindUnavailable, "Failed to create download link", err)
	}

	s.recorder.Record(ctx, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionExport,
		EntityType: activity.EntityLead,
		Details:    fmt.Sprintf("Exported %d leads to %s", len(leads), key),
	})
	s.log.Info("leads exported", "rows", len(leads), "key", key)

	return ExportResponse{URL: link.URL, FileKey: key, ExpiresAt: link.ExpiresAt, Rows: len(leads)}, nil
}

func (s *Service) collect(ctx context.Context, req LeadExportRequest) ([]repository.Lead, error) {
	status := ""
	if req.Status != "" {
		parsed, _ := domain.ParseStatus(req.Status)
		status = parsed.String()
	}
	params := repository.ListParams{
		Status:     status,
		Origin:     req.Origin,
		AssignedTo: req.AssignedTo,
		Search:     strings.TrimSpace(req.Search),
		HidePaid:   req.HidePaid,
		Limit:      pageSize,
	}

	out := make([]repository.Lead, 0)
	for {
		page, total, err := s.leads.List(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < pageSize || len(out) >= total {
			return out, nil
		}
		params.Offset += pageSize
	}
}
