package domain

type testLead struct {
	id       string
	status   Status
	followup *string
	created  string
	paid     bool
}

func (l testLead) LeadID() string        { return l.id }
func (l testLead) LeadStatus() Status    { return l.status }
func (l testLead) FollowupDate() *string { return l.followup }
func (l testLead) CreatedDate() string   { return l.created }
func (l testLead) IsBalancePaid() bool   { return l.paid }

func strPtr(s string) *string { return &s }

func ids(leads []testLead) []string {
	out := make([]string, len(leads))
	for i, l := range leads {
		out[i] = l.id
	}
	return out
}
