// Package installations serves the installation schedule, which is a view
// over sold leads, and sends the confirmation and assignment emails for it.
package installations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/email"
	leadsrepo "wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"

	"github.com/google/uuid"
)

// Email recipients.
const (
	TypeClient    = "client"
	TypeInstaller = "installer"
)

const (
	completedLimit = 10
	dateLayout     = "Monday, January 2, 2006"
)

// LeadReader is the slice of the leads repository this module reads.
type LeadReader interface {
	leadsrepo.InstallationReader
	GetByID(ctx context.Context, id uuid.UUID) (leadsrepo.Lead, error)
}

// InstallerDirectory resolves an installer's email by display name. An empty
// result means the installer has no address on file.
type InstallerDirectory interface {
	EmailFor(ctx context.Context, name string) (string, error)
}

// EmailQueue defers sending to the background worker.
type EmailQueue interface {
	Enabled() bool
	EnqueueInstallationEmail(ctx context.Context, actor uuid.UUID, leadID uuid.UUID, emailType, customMessage string) error
}

type Service struct {
	leads      LeadReader
	installers InstallerDirectory
	sender     email.Sender
	recorder   activity.Recorder
	queue      EmailQueue
	fallback   string
	log        *logger.Logger
}

// NewService wires the service. fallbackInstallerEmail receives installer
// emails when the named installer has no address of their own.
func NewService(leads LeadReader, installers InstallerDirectory, sender email.Sender, recorder activity.Recorder, fallbackInstallerEmail string, log *logger.Logger) *Service {
	return &Service{
		leads:      leads,
		installers: installers,
		sender:     sender,
		recorder:   recorder,
		fallback:   strings.TrimSpace(fallbackInstallerEmail),
		log:        log,
	}
}

// SetQueue enables deferred delivery.
func (s *Service) SetQueue(q EmailQueue) {
	s.queue = q
}

func (s *Service) List(ctx context.Context, req ListRequest) ([]Response, error) {
	leads, err := s.leads.ListInstallations(ctx, leadsrepo.InstallationFilter{
		Installer: strings.TrimSpace(req.Installer),
		From:      req.From,
		To:        req.To,
	})
	if err != nil {
		return nil, err
	}
	return toResponses(leads), nil
}

func (s *Service) Completed(ctx context.Context, search string) ([]Response, error) {
	leads, err := s.leads.ListCompleted(ctx, strings.TrimSpace(search), completedLimit)
	if err != nil {
		return nil, err
	}
	return toResponses(leads), nil
}

// SendEmail sends the email now, or queues it when req.Defer is set and a
// queue is wired. Recipient checks run before queueing so the caller hears
// about a missing address immediately.
func (s *Service) SendEmail(ctx context.Context, actor uuid.UUID, req SendEmailRequest) (SendEmailResponse, error) {
	lead, to, err := s.prepare(ctx, req.InstallationID, req.Type)
	if err != nil {
		return SendEmailResponse{}, err
	}

	if req.Defer && s.queue != nil && s.queue.Enabled() {
		if err := s.queue.EnqueueInstallationEmail(ctx, actor, lead.ID, req.Type, req.CustomMessage); err != nil {
			return SendEmailResponse{}, apperr.Wrap(apperr.KindUnavailable, "could not queue email", err)
		}
		s.log.Info("installation email queued", "leadId", lead.ID, "type", req.Type)
		return SendEmailResponse{Message: "Email queued", Recipient: to, Type: req.Type, Queued: true}, nil
	}

	subject, err := s.deliver(ctx, lead, to, req.Type, req.CustomMessage)
	if err != nil {
		return SendEmailResponse{}, err
	}
	s.recordSent(ctx, &actor, lead, to, req.Type)

	return SendEmailResponse{
		Message:   "Email sent successfully",
		Recipient: to,
		Subject:   subject,
		Type:      req.Type,
	}, nil
}

// Deliver is the worker side of a deferred SendEmail. The lead is re-read so
// the email reflects its state at delivery time.
func (s *Service) Deliver(ctx context.Context, actor *uuid.UUID, leadID uuid.UUID, emailType, customMessage string) error {
	lead, to, err := s.prepare(ctx, leadID, emailType)
	if err != nil {
		return err
	}
	if _, err := s.deliver(ctx, lead, to, emailType, customMessage); err != nil {
		return err
	}
	s.recordSent(ctx, actor, lead, to, emailType)
	return nil
}

func (s *Service) prepare(ctx context.Context, leadID uuid.UUID, emailType string) (leadsrepo.Lead, string, error) {
	if emailType != TypeClient && emailType != TypeInstaller {
		return leadsrepo.Lead{}, "", apperr.Validation("Invalid email type")
	}

	lead, err := s.leads.GetByID(ctx, leadID)
	if err != nil {
		if apperr.Is(err, apperr.KindNotFound) {
			return leadsrepo.Lead{}, "", apperr.NotFound("Installation not found")
		}
		return leadsrepo.Lead{}, "", err
	}
	if lead.InstallationDate == nil {
		return leadsrepo.Lead{}, "", apperr.BadRequest("Installation date not set")
	}

	to, err := s.recipient(ctx, lead, emailType)
	if err != nil {
		return leadsrepo.Lead{}, "", err
	}
	return lead, to, nil
}

func (s *Service) recipient(ctx context.Context, lead leadsrepo.Lead, emailType string) (string, error) {
	if emailType == TypeClient {
		if lead.Email == nil || strings.TrimSpace(*lead.Email) == "" {
			return "", apperr.BadRequest("Client email not available")
		}
		return strings.TrimSpace(*lead.Email), nil
	}

	if lead.AssignedInstaller == nil || strings.TrimSpace(*lead.AssignedInstaller) == "" {
		return "", apperr.BadRequest("No installer assigned")
	}
	addr := ""
	if s.installers != nil {
		found, err := s.installers.EmailFor(ctx, *lead.AssignedInstaller)
		if err != nil {
			return "", err
		}
		addr = found
	}
	if addr == "" {
		addr = s.fallback
	}
	if addr == "" {
		return "", apperr.BadRequest("Installer email not available")
	}
	return addr, nil
}

func (s *Service) deliver(ctx context.Context, lead leadsrepo.Lead, to, emailType, customMessage string) (string, error) {
	data := emailData(lead, customMessage)

	var (
		subject string
		err     error
	)
	if emailType == TypeClient {
		subject, err = s.sender.SendInstallationConfirmation(ctx, to, data)
	} else {
		subject, err = s.sender.SendInstallerAssignment(ctx, to, data)
	}
	if err != nil {
		s.log.WithContext(ctx).Error("installation email failed", "leadId", lead.ID, "type", emailType, "error", err)
		return "", apperr.Wrap(apperr.KindInternal, "Failed to send email", err)
	}
	return subject, nil
}

func (s *Service) recordSent(ctx context.Context, actor *uuid.UUID, lead leadsrepo.Lead, to, emailType string) {
	s.recorder.Record(ctx, activity.Entry{
		UserID:     actor,
		Action:     activity.ActionSendEmail,
		EntityType: activity.EntityInstallation,
		EntityID:   lead.ID.String(),
		Details:    fmt.Sprintf("Sent %s installation email for %s to %s", emailType, lead.Name, to),
	})
	s.log.Info("installation email sent", "leadId", lead.ID, "type", emailType)
}

func emailData(lead leadsrepo.Lead, customMessage string) email.InstallationEmail {
	data := email.InstallationEmail{
		CustomerName:  lead.Name,
		Phone:         phone.Display(lead.Phone),
		FormattedDate: FormatInstallationDate(*lead.InstallationDate),
		ProjectAmount: lead.ProjectAmount,
		DepositPaid:   lead.DepositPaid,
		BalancePaid:   lead.BalancePaid,
		CustomMessage: strings.TrimSpace(customMessage),
	}
	if lead.Email != nil {
		data.CustomerEmail = *lead.Email
	}
	if lead.AssignedInstaller != nil {
		data.Installer = *lead.AssignedInstaller
	}
	if lead.AdditionalNotes != nil {
		data.InstallationNotes = *lead.AdditionalNotes
	}
	return data
}

// FormatInstallationDate renders a YYYY-MM-DD date as "Monday, January 2,
// 2006". The date is built in UTC from its parts so the weekday never shifts
// with the server zone. Unparseable input is returned as is.
func FormatInstallationDate(raw string) string {
	d, ok := calendar.Parse(raw)
	if !ok {
		return raw
	}
	return d.Time(time.UTC).Format(dateLayout)
}
