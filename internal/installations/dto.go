package installations

import (
	leadsrepo "wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/platform/phone"

	"github.com/google/uuid"
)

type ListRequest struct {
	Installer string `form:"installer" validate:"max=100"`
	From      string `form:"from" validate:"omitempty,calendardate"`
	To        string `form:"to" validate:"omitempty,calendardate"`
}

type CompletedRequest struct {
	Search string `form:"search" validate:"max=200"`
}

type SendEmailRequest struct {
	InstallationID uuid.UUID `json:"installationId" validate:"required"`
	Type           string    `json:"type" validate:"required,oneof=client installer"`
	CustomMessage  string    `json:"customMessage" validate:"max=5000"`
	Defer          bool      `json:"defer"`
}

type SendEmailResponse struct {
	Message   string `json:"message"`
	Recipient string `json:"recipient"`
	Subject   string `json:"subject,omitempty"`
	Type      string `json:"type"`
	Queued    bool   `json:"queued,omitempty"`
}

// Response is one scheduled or completed installation.
type Response struct {
	ID                uuid.UUID `json:"id"`
	CustomerName      string    `json:"customerName"`
	Phone             string    `json:"phone"`
	PhoneDisplay      string    `json:"phoneDisplay"`
	Email             *string   `json:"email,omitempty"`
	InstallationDate  *string   `json:"installationDate"`
	FormattedDate     string    `json:"formattedDate,omitempty"`
	AssignedInstaller *string   `json:"assignedInstaller,omitempty"`
	AssignedTo        *string   `json:"assignedTo,omitempty"`
	ProjectAmount     *float64  `json:"projectAmount,omitempty"`
	DepositPaid       bool      `json:"depositPaid"`
	BalancePaid       bool      `json:"balancePaid"`
	Notes             *string   `json:"notes,omitempty"`
	AdditionalNotes   *string   `json:"additionalNotes,omitempty"`
}

func toResponse(l leadsrepo.Lead) Response {
	r := Response{
		ID:                l.ID,
		CustomerName:      l.Name,
		Phone:             l.Phone,
		PhoneDisplay:      phone.Display(l.Phone),
		Email:             l.Email,
		InstallationDate:  l.InstallationDate,
		AssignedInstaller: l.AssignedInstaller,
		AssignedTo:        l.AssignedTo,
		ProjectAmount:     l.ProjectAmount,
		DepositPaid:       l.DepositPaid,
		BalancePaid:       l.BalancePaid,
		Notes:             l.Notes,
		AdditionalNotes:   l.AdditionalNotes,
	}
	if l.InstallationDate != nil {
		r.FormattedDate = FormatInstallationDate(*l.InstallationDate)
	}
	return r
}

func toResponses(leads []leadsrepo.Lead) []Response {
	out := make([]Response, len(leads))
	for i, l := range leads {
		out[i] = toResponse(l)
	}
	return out
}
