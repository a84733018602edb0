// Package activity is the append-only audit trail every module writes to,
// plus the admin listing over it.
package activity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/platform/logger"
)

// Actions written by the modules.
const (
	ActionLogin        = "LOGIN"
	ActionLogout       = "LOGOUT"
	ActionCreateLead   = "CREATE_LEAD"
	ActionUpdateLead   = "UPDATE_LEAD"
	ActionDeleteLead   = "DELETE_LEAD"
	ActionCreateUser   = "CREATE_USER"
	ActionUpdateUser   = "UPDATE_USER"
	ActionDeleteUser   = "DELETE_USER"
	ActionCreate       = "CREATE"
	ActionUpdate       = "UPDATE"
	ActionDelete       = "DELETE"
	ActionSendEmail    = "SEND_EMAIL"
	ActionTrackingSync = "TRACKING_SYNC"
	ActionUpdateConfig = "UPDATE_SETTINGS"
	ActionExport       = "EXPORT"
)

// Entity types.
const (
	EntityUser          = "user"
	EntityLead          = "lead"
	EntityInstaller     = "installer"
	EntityBooklet       = "sample_booklet"
	EntityRepair        = "repair_request"
	EntityEmailTemplate = "email_template"
	EntitySMTPSettings  = "smtp_settings"
	EntityLeadOrigin    = "lead_origin"
	EntityInstallation  = "installation"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Recorder is what other modules depend on to write the trail.
type Recorder interface {
	Record(ctx context.Context, e Entry)
}

type store interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, p ListParams) ([]Record, int, error)
}

// Service writes entries on behalf of other modules and serves the listing.
type Service struct {
	repo store
	log  *logger.Logger
	now  func() time.Time
}

func NewService(repo store, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

var _ Recorder = (*Service)(nil)

// Record appends e. A failed write is logged and swallowed: the audit trail
// never fails the operation it describes.
func (s *Service) Record(ctx context.Context, e Entry) {
	if err := s.repo.Insert(ctx, e); err != nil {
		s.log.WithContext(ctx).Warn("activity log write failed", "action", e.Action, "entity", e.EntityType, "error", err)
	}
}

// Query is the admin listing filter as received from the API.
type Query struct {
	Search     string
	EntityType string
	Action     string
	Days       int
	Limit      int
	Offset     int
}

// Page is one page of the listing.
type Page struct {
	Items  []Record
	Total  int
	Limit  int
	Offset int
}

func (s *Service) List(ctx context.Context, q Query) (Page, error) {
	p := ListParams{
		Search:     strings.TrimSpace(q.Search),
		EntityType: q.EntityType,
		Action:     q.Action,
		Limit:      q.Limit,
		Offset:     q.Offset,
	}
	if p.Limit <= 0 {
		p.Limit = defaultListLimit
	}
	if p.Limit > maxListLimit {
		p.Limit = maxListLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	if q.Days > 0 {
		since := s.now().AddDate(0, 0, -q.Days)
		p.Since = &since
	}

	items, total, err := s.repo.List(ctx, p)
	if err != nil {
		return Page{}, err
	}
	return Page{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset}, nil
}

// UpdateDetails renders the change description used for edits, for example
// "Updated lead: Jane Doe - Changes: remarks, notes". The status field of a
// lead is listed under its column name, remarks.
func UpdateDetails(entityLabel, name string, changed []string) string {
	if len(changed) == 0 {
		return fmt.Sprintf("Updated %s: %s - No changes", entityLabel, name)
	}
	return fmt.Sprintf("Updated %s: %s - Changes: %s", entityLabel, name, strings.Join(changed, ", "))
}
