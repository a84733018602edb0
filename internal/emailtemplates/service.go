// Package emailtemplates stores the admin-editable email templates and fills
// their {{variable}} placeholders.
package emailtemplates

import (
	"context"
	"regexp"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

// Template types.
const (
	TypeShippingNotification  = "shipping_notification"
	TypeInstallerNotification = "installer_notification"
	TypeCustomerInfo          = "customer_info"
	TypeFollowupReminder      = "followup_reminder"
	TypeQuoteSent             = "quote_sent"
	TypeAppointmentReminder   = "appointment_reminder"
)

// KnownVariables are the placeholders the senders know how to fill. Anything
// else in a template is left as written and not listed in its variables.
var KnownVariables = []string{
	"customer_name", "customer_email", "customer_phone",
	"order_number", "tracking_number", "tracking_url", "product_type", "address",
	"installation_date", "installer_name", "installer_phone", "project_amount",
	"company_name", "company_phone", "company_email",
}

var placeholder = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

var known = func() map[string]bool {
	m := make(map[string]bool, len(KnownVariables))
	for _, v := range KnownVariables {
		m[v] = true
	}
	return m
}()

// ExtractVariables lists the known placeholders used in the given texts, in
// order of first appearance.
func ExtractVariables(texts ...string) []string {
	seen := make(map[string]bool)
	out := make([]string, 0)
	for _, text := range texts {
		for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
			name := strings.ToLower(m[1])
			if !known[name] || seen[name] {
				continue
			}
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// Render replaces each known placeholder that has a value in vars. Unknown
// placeholders and ones without a value are kept verbatim.
func Render(text string, vars map[string]string) string {
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		name := strings.ToLower(placeholder.FindStringSubmatch(match)[1])
		if !known[name] {
			return match
		}
		if v, ok := vars[name]; ok {
			return v
		}
		return match
	})
}

type CreateRequest struct {
	Name     string `json:"name" validate:"required,max=200"`
	Type     string `json:"type" validate:"required,oneof=shipping_notification installer_notification customer_info followup_reminder quote_sent appointment_reminder"`
	Subject  string `json:"subject" validate:"required,max=500"`
	Body     string `json:"body" validate:"required,max=50000"`
	IsActive *bool  `json:"isActive,omitempty"`
}

// UpdateRequest is a partial update.
type UpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Type     *string `json:"type,omitempty" validate:"omitempty,oneof=shipping_notification installer_notification customer_info followup_reminder quote_sent appointment_reminder"`
	Subject  *string `json:"subject,omitempty" validate:"omitempty,min=1,max=500"`
	Body     *string `json:"body,omitempty" validate:"omitempty,min=1,max=50000"`
	IsActive *bool   `json:"isActive,omitempty"`
}

type ListRequest struct {
	Type string `form:"type" validate:"omitempty,oneof=shipping_notification installer_notification customer_info followup_reminder quote_sent appointment_reminder"`
}

type PreviewRequest struct {
	Values map[string]string `json:"values"`
}

type PreviewResponse struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
	// Missing lists variables the template uses that had no value.
	Missing []string `json:"missing"`
}

type Response struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Variables []string  `json:"variables"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Service struct {
	repo Repository
	log  *logger.Logger
}

func NewService(repo Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) List(ctx context.Context, templateType string) ([]Response, error) {
	items, err := s.repo.List(ctx, templateType)
	if err != nil {
		return nil, err
	}
	out := make([]Response, len(items))
	for i, t := range items {
		out[i] = toResponse(t)
	}
	return out, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Response, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}
	return toResponse(t), nil
}

func (s *Service) Create(ctx context.Context, actor uuid.UUID, req CreateRequest) (Response, error) {
	f := Fields{
		Name:     strings.TrimSpace(req.Name),
		Type:     req.Type,
		Subject:  req.Subject,
		Body:     req.Body,
		IsActive: req.IsActive == nil || *req.IsActive,
	}
	f.Variables = ExtractVariables(f.Subject, f.Body)

	t, err := s.repo.Create(ctx, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionCreate,
		EntityType: activity.EntityEmailTemplate,
		Details:    "Created email template: " + f.Name,
	})
	if err != nil {
		return Response{}, err
	}
	s.log.Info("email template created", "id", t.ID, "type", t.Type)
	return toResponse(t), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, id uuid.UUID, req UpdateRequest) (Response, error) {
	cur, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Response{}, err
	}

	f := Fields{Name: cur.Name, Type: cur.Type, Subject: cur.Subject, Body: cur.Body, IsActive: cur.IsActive}
	changed := make([]string, 0)
	if req.Name != nil && strings.TrimSpace(*req.Name) != cur.Name {
		f.Name = strings.TrimSpace(*req.Name)
		changed = append(changed, "name")
	}
	if req.Type != nil && *req.Type != cur.Type {
		f.Type = *req.Type
		changed = append(changed, "type")
	}
	if req.Subject != nil && *req.Subject != cur.Subject {
		f.Subject = *req.Subject
		changed = append(changed, "subject")
	}
	if req.Body != nil && *req.Body != cur.Body {
		f.Body = *req.Body
		changed = append(changed, "body")
	}
	if req.IsActive != nil && *req.IsActive != cur.IsActive {
		f.IsActive = *req.IsActive
		changed = append(changed, "is_active")
	}
	f.Variables = ExtractVariables(f.Subject, f.Body)

	t, err := s.repo.Update(ctx, id, f, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdate,
		EntityType: activity.EntityEmailTemplate,
		Details:    activity.UpdateDetails("email template", f.Name, changed),
	})
	if err != nil {
		return Response{}, err
	}
	return toResponse(t), nil
}

func (s *Service) Delete(ctx context.Context, actor uuid.UUID, id uuid.UUID) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionDelete,
		EntityType: activity.EntityEmailTemplate,
		Details:    "Deleted email template: " + t.Name,
	})
}

// Preview renders a stored template with the supplied values.
func (s *Service) Preview(ctx context.Context, id uuid.UUID, req PreviewRequest) (PreviewResponse, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return PreviewResponse{}, err
	}
	vars := normalizeKeys(req.Values)

	missing := make([]string, 0)
	for _, v := range ExtractVariables(t.Subject, t.Body) {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	return PreviewResponse{
		Subject: Render(t.Subject, vars),
		Body:    Render(t.Body, vars),
		Missing: missing,
	}, nil
}

// RenderActive fills the newest active template of templateType. found is
// false when no such template exists, so the caller can use its built-in
// email instead.
func (s *Service) RenderActive(ctx context.Context, templateType string, vars map[string]string) (string, string, bool, error) {
	t, err := s.repo.FindActive(ctx, templateType)
	if err != nil {
		return "", "", false, err
	}
	if t == nil {
		return "", "", false, nil
	}
	if strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Body) == "" {
		return "", "", false, apperr.Validation("email template " + t.Name + " is incomplete")
	}
	vars = normalizeKeys(vars)
	return Render(t.Subject, vars), Render(t.Body, vars), true, nil
}

func normalizeKeys(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[strings.ToLower(strings.TrimSpace(k))] = v
	}
	return out
}

func toResponse(t Template) Response {
	return Response{
		ID: t.ID, Name: t.Name, Type: t.Type, Subject: t.Subject, Body: t.Body,
		Variables: t.Variables, IsActive: t.IsActive, CreatedAt: t.CreatedAt, UpdatedAt: t.UpdatedAt,
	}
}
