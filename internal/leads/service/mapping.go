package service

import (
	"strings"

	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/leads/transport"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/phone"
	"wrapcrm_backend/platform/sanitize"
)

func fieldsOf(l repository.Lead) repository.Fields {
	return repository.Fields{
		Name:              l.Name,
		Phone:             l.Phone,
		Email:             l.Email,
		LeadOrigin:        l.LeadOrigin,
		DateCreated:       l.DateCreated,
		NextFollowupDate:  l.NextFollowupDate,
		Remarks:           l.Remarks,
		AssignedTo:        l.AssignedTo,
		ProjectAmount:     l.ProjectAmount,
		Notes:             l.Notes,
		AdditionalNotes:   l.AdditionalNotes,
		DepositPaid:       l.DepositPaid,
		BalancePaid:       l.BalancePaid,
		InstallationDate:  l.InstallationDate,
		AssignedInstaller: l.AssignedInstaller,
	}
}

// applyUpdate merges req into cur. A follow-up date set on a New lead moves it
// to In Progress unless the request names a status itself.
func applyUpdate(cur repository.Fields, req transport.UpdateLeadRequest) (repository.Fields, error) {
	out := cur

	if req.Name != nil {
		out.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		out.Phone = phone.NormalizeE164(*req.Phone)
	}
	if req.Email != nil {
		out.Email = trimmedOrNil(req.Email)
	}
	if req.LeadOrigin != nil {
		out.LeadOrigin = strings.TrimSpace(*req.LeadOrigin)
	}
	if req.DateCreated != nil {
		out.DateCreated = *req.DateCreated
	}
	if req.NextFollowupDate != nil {
		d, err := optionalDate(*req.NextFollowupDate, "invalid follow-up date")
		if err != nil {
			return cur, err
		}
		out.NextFollowupDate = d
	}
	if req.InstallationDate != nil {
		d, err := optionalDate(*req.InstallationDate, "invalid installation date")
		if err != nil {
			return cur, err
		}
		out.InstallationDate = d
	}
	if req.AssignedTo != nil {
		out.AssignedTo = trimmedOrNil(req.AssignedTo)
	}
	if req.AssignedInstaller != nil {
		out.AssignedInstaller = trimmedOrNil(req.AssignedInstaller)
	}
	if req.ProjectAmount != nil {
		out.ProjectAmount = req.ProjectAmount
	}
	if req.Notes != nil {
		out.Notes = sanitize.TextPtr(req.Notes)
	}
	if req.AdditionalNotes != nil {
		out.AdditionalNotes = sanitize.TextPtr(req.AdditionalNotes)
	}
	if req.DepositPaid != nil {
		out.DepositPaid = *req.DepositPaid
	}
	if req.BalancePaid != nil {
		out.BalancePaid = *req.BalancePaid
	}

	if req.Status != nil {
		status, ok := domain.ParseStatus(*req.Status)
		if !ok {
			return cur, apperr.Validation("invalid status")
		}
		out.Remarks = status.String()
	} else if req.NextFollowupDate != nil {
		current, ok := domain.ParseStatus(out.Remarks)
		if ok {
			out.Remarks = domain.StatusAfterFollowupChange(current, out.NextFollowupDate).String()
		}
	}

	return out, nil
}

func optionalDate(raw, message string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if _, ok := calendar.Parse(raw); !ok {
		return nil, apperr.Validation(message)
	}
	return &raw, nil
}

// changedFields lists the column names that differ, in column order. The
// status column is reported as remarks.
func changedFields(a, b repository.Fields) []string {
	changed := make([]string, 0)
	add := func(name string, differs bool) {
		if differs {
			changed = append(changed, name)
		}
	}
	add("name", a.Name != b.Name)
	add("phone", a.Phone != b.Phone)
	add("email", !equalStr(a.Email, b.Email))
	add("lead_origin", a.LeadOrigin != b.LeadOrigin)
	add("date_created", a.DateCreated != b.DateCreated)
	add("next_followup_date", !equalStr(a.NextFollowupDate, b.NextFollowupDate))
	add(domain.StatusFieldKey, !sameStatus(a.Remarks, b.Remarks))
	add("assigned_to", !equalStr(a.AssignedTo, b.AssignedTo))
	add("project_amount", !equalFloat(a.ProjectAmount, b.ProjectAmount))
	add("notes", !equalStr(a.Notes, b.Notes))
	add("additional_notes", !equalStr(a.AdditionalNotes, b.AdditionalNotes))
	add("deposit_paid", a.DepositPaid != b.DepositPaid)
	add("balance_paid", a.BalancePaid != b.BalancePaid)
	add("installation_date", !equalStr(a.InstallationDate, b.InstallationDate))
	add("assigned_installer", !equalStr(a.AssignedInstaller, b.AssignedInstaller))
	return changed
}

// sameStatus compares two remarks values by canonical status, so rewriting a
// legacy "sold" as "Sold" is not a transition.
func sameStatus(a, b string) bool {
	sa, okA := domain.ParseStatus(a)
	sb, okB := domain.ParseStatus(b)
	if okA && okB {
		return sa == sb
	}
	return a == b
}

func equalStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
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

func toResponse(l repository.Lead) transport.LeadResponse {
	status := l.LeadStatus()
	return transport.LeadResponse{
		ID:                l.ID,
		Name:              l.Name,
		Phone:             l.Phone,
		PhoneDisplay:      phone.Display(l.Phone),
		Email:             l.Email,
		LeadOrigin:        l.LeadOrigin,
		DateCreated:       l.DateCreated,
		NextFollowupDate:  l.NextFollowupDate,
		Status:            status.String(),
		IsActive:          status.IsActive(),
		AssignedTo:        l.AssignedTo,
		ProjectAmount:     l.ProjectAmount,
		Notes:             l.Notes,
		AdditionalNotes:   l.AdditionalNotes,
		DepositPaid:       l.DepositPaid,
		BalancePaid:       l.BalancePaid,
		InstallationDate:  l.InstallationDate,
		AssignedInstaller: l.AssignedInstaller,
		CreatedAt:         l.CreatedAt,
		UpdatedAt:         l.UpdatedAt,
	}
}

func toResponses(leads []repository.Lead) []transport.LeadResponse {
	out := make([]transport.LeadResponse, len(leads))
	for i, l := range leads {
		out[i] = toResponse(l)
	}
	return out
}
