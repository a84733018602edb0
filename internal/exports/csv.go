package exports

import (
	"encoding/csv"
	"io"
	"strconv"

	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/platform/phone"
)

var leadHeaders = []string{
	"Name", "Phone", "Email", "Lead Origin", "Date Created", "Next Follow-up",
	"Status", "Assigned To", "Project Amount", "Deposit Paid", "Balance Paid",
	"Installation Date", "Installer", "Notes",
}

func leadRecord(l repository.Lead) []string {
	return []string{
		l.Name,
		phone.Display(l.Phone),
		deref(l.Email),
		l.LeadOrigin,
		l.DateCreated,
		deref(l.NextFollowupDate),
		l.LeadStatus().String(),
		deref(l.AssignedTo),
		formatAmount(l.ProjectAmount),
		yesNo(l.DepositPaid),
		yesNo(l.BalancePaid),
		deref(l.InstallationDate),
		deref(l.AssignedInstaller),
		deref(l.Notes),
	}
}

// WriteLeadsCSV writes a header row and one row per lead.
func WriteLeadsCSV(w io.Writer, leads []repository.Lead) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(leadHeaders); err != nil {
		return err
	}
	for _, l := range leads {
		if err := writer.Write(leadRecord(l)); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatAmount(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
