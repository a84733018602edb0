// Package smtpsettings stores the outgoing mail server configuration and
// feeds it to the email transport.
package smtpsettings

import (
	"context"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/smtpsettings/smtpcrypto"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

// UpdateRequest replaces the settings. An empty password keeps the stored one.
type UpdateRequest struct {
	Host      string `json:"host" validate:"required,hostname_rfc1123|ip,max=255"`
	Port      int    `json:"port" validate:"required,min=1,max=65535"`
	Username  string `json:"username" validate:"max=255"`
	Password  string `json:"password" validate:"max=500"`
	FromEmail string `json:"fromEmail" validate:"required,email"`
	FromName  string `json:"fromName" validate:"required,max=200"`
	UseTLS    bool   `json:"useTls"`
	IsActive  *bool  `json:"isActive,omitempty"`
}

// TestRequest sends a probe email with the stored settings.
type TestRequest struct {
	To string `json:"to" validate:"required,email"`
}

// Response never carries the password.
type Response struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Host        string     `json:"host"`
	Port        int        `json:"port"`
	Username    string     `json:"username"`
	HasPassword bool       `json:"hasPassword"`
	FromEmail   string     `json:"fromEmail"`
	FromName    string     `json:"fromName"`
	UseTLS      bool       `json:"useTls"`
	IsActive    bool       `json:"isActive"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	Configured  bool       `json:"configured"`
}

type Service struct {
	repo store
	key  []byte
	log  *logger.Logger
	// deliver builds the transport used by Test.
	deliver func(email.Settings) email.Transport
}

func NewService(repo store, key []byte, log *logger.Logger) *Service {
	return &Service{
		repo: repo,
		key:  key,
		log:  log,
		deliver: func(s email.Settings) email.Transport {
			return email.NewSMTPTransport(s)
		},
	}
}

func (s *Service) Get(ctx context.Context) (Response, error) {
	row, err := s.repo.Active(ctx)
	if err != nil {
		return Response{}, err
	}
	if row == nil {
		return Response{Port: 587, UseTLS: true}, nil
	}
	return toResponse(*row), nil
}

func (s *Service) Update(ctx context.Context, actor uuid.UUID, req UpdateRequest) (Response, error) {
	if len(s.key) != smtpcrypto.KeySize {
		return Response{}, apperr.Unavailable("SMTP_ENCRYPTION_KEY is not configured")
	}

	current, err := s.repo.Active(ctx)
	if err != nil {
		return Response{}, err
	}

	row := Row{
		ID:        uuid.New(),
		Host:      strings.TrimSpace(req.Host),
		Port:      req.Port,
		Username:  strings.TrimSpace(req.Username),
		FromEmail: strings.TrimSpace(req.FromEmail),
		FromName:  strings.TrimSpace(req.FromName),
		UseTLS:    req.UseTLS,
		IsActive:  req.IsActive == nil || *req.IsActive,
		UpdatedBy: &actor,
	}
	if current != nil {
		row.ID = current.ID
		row.PasswordEncrypted = current.PasswordEncrypted
	}
	if req.Password != "" {
		sealed, err := smtpcrypto.Encrypt(req.Password, s.key)
		if err != nil {
			return Response{}, err
		}
		row.PasswordEncrypted = sealed
	}

	saved, err := s.repo.Save(ctx, row, activity.Entry{
		UserID:     &actor,
		Action:     activity.ActionUpdateConfig,
		EntityType: activity.EntitySMTPSettings,
		Details:    "Updated SMTP settings: " + row.Host,
	})
	if err != nil {
		return Response{}, err
	}
	s.log.Info("smtp settings updated", "host", saved.Host, "active", saved.IsActive)
	return toResponse(saved), nil
}

// Test sends a probe email with the active settings.
func (s *Service) Test(ctx context.Context, req TestRequest) error {
	settings, err := s.ActiveSettings(ctx)
	if err != nil {
		return err
	}
	if settings == nil {
		return apperr.BadRequest("no active SMTP settings")
	}
	if err := email.SendTestEmail(ctx, s.deliver(*settings), req.To, settings.Host); err != nil {
		s.log.WithContext(ctx).Warn("smtp test failed", "host", settings.Host, "error", err)
		return apperr.Wrap(apperr.KindBadRequest, "SMTP test failed: "+err.Error(), err)
	}
	return nil
}

// ActiveSettings implements email.SettingsSource.
func (s *Service) ActiveSettings(ctx context.Context) (*email.Settings, error) {
	row, err := s.repo.Active(ctx)
	if err != nil || row == nil {
		return nil, err
	}

	password := ""
	if row.PasswordEncrypted != "" {
		password, err = smtpcrypto.Decrypt(row.PasswordEncrypted, s.key)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindInternal, "stored SMTP password cannot be decrypted", err)
		}
	}

	return &email.Settings{
		Host:      row.Host,
		Port:      row.Port,
		Username:  row.Username,
		Password:  password,
		FromEmail: row.FromEmail,
		FromName:  row.FromName,
		UseTLS:    row.UseTLS,
	}, nil
}

func toResponse(r Row) Response {
	id := r.ID
	updated := r.UpdatedAt
	return Response{
		ID:          &id,
		Host:        r.Host,
		Port:        r.Port,
		Username:    r.Username,
		HasPassword: r.PasswordEncrypted != "",
		FromEmail:   r.FromEmail,
		FromName:    r.FromName,
		UseTLS:      r.UseTLS,
		IsActive:    r.IsActive,
		UpdatedAt:   &updated,
		Configured:  true,
	}
}

var _ email.SettingsSource = (*Service)(nil)
