package service

import (
	"context"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/leads/domain"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/leads/transport"
	"wrapcrm_backend/internal/shared/calendar"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SoldDateNone is reported when no source can date the sale.
const SoldDateNone = "none"

// Classification is the follow-up dashboard before it is rendered.
type Classification struct {
	Today   calendar.Date
	Leads   []repository.Lead
	Buckets domain.FollowupBuckets[repository.Lead]
}

// Classify loads every lead and the sold-today signal concurrently and runs
// the classifier for the business-local today.
func (s *Service) Classify(ctx context.Context) (Classification, error) {
	today := s.today()

	var leads []repository.Lead
	var sold domain.SoldTodaySignal

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		leads, err = s.repo.ListAll(gctx)
		return err
	})
	g.Go(func() error {
		sold = s.soldTodaySignal(gctx, today)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Classification{}, err
	}

	buckets := domain.ClassifyFollowups(leads, today, sold)
	if s.observer != nil {
		s.observer.ObserveFollowups(buckets.Counts())
	}
	return Classification{Today: today, Leads: leads, Buckets: buckets}, nil
}

// Followups renders the follow-up dashboard. With hidePaid the three
// follow-up buckets drop Sold leads whose balance is paid; the cohorts are
// left untouched.
func (s *Service) Followups(ctx context.Context, hidePaid bool) (transport.FollowupsResponse, error) {
	c, err := s.Classify(ctx)
	if err != nil {
		return transport.FollowupsResponse{}, err
	}

	b := c.Buckets
	if hidePaid {
		b.Overdue = domain.ExcludeFullyPaid(b.Overdue)
		b.DueToday = domain.ExcludeFullyPaid(b.DueToday)
		b.Upcoming = domain.ExcludeFullyPaid(b.Upcoming)
	}

	return transport.FollowupsResponse{
		Today:           c.Today.String(),
		Overdue:         toResponses(b.Overdue),
		DueToday:        toResponses(b.DueToday),
		Upcoming:        toResponses(b.Upcoming),
		NewToday:        toResponses(b.NewToday),
		SoldToday:       toResponses(b.SoldToday),
		SoldTodaySource: string(b.SoldTodaySource),
		Counts:          b.Counts(),
	}, nil
}

// DashboardStats returns the headline counts.
func (s *Service) DashboardStats(ctx context.Context) (transport.DashboardStatsResponse, error) {
	c, err := s.Classify(ctx)
	if err != nil {
		return transport.DashboardStatsResponse{}, err
	}

	sold := 0
	for _, l := range c.Leads {
		if l.LeadStatus() == domain.StatusSold {
			sold++
		}
	}

	return transport.DashboardStatsResponse{
		TotalLeads:     len(c.Leads),
		SoldLeads:      sold,
		TodayFollowups: len(c.Buckets.DueToday),
		NewToday:       len(c.Buckets.NewToday),
	}, nil
}

// soldTodaySignal asks the status history first and the activity log second.
// Each failure is logged and degrades one tier; when both fail the returned
// signal is unavailable and the classifier falls back to creation dates.
func (s *Service) soldTodaySignal(ctx context.Context, today calendar.Date) domain.SoldTodaySignal {
	from := today.Time(s.loc)
	to := today.AddDays(1).Time(s.loc)
	log := s.log.WithContext(ctx)

	ids, err := s.repo.LeadsTransitionedTo(ctx, domain.StatusSold.String(), from, to)
	if err == nil {
		out := make([]string, len(ids))
		for i, id := range ids {
			out[i] = id.String()
		}
		return domain.NewSoldTodaySignal(domain.SoldTodayFromStatusHistory, out)
	}
	log.Warn("status history unavailable for sold-today, trying activity log", "error", err)

	records, err := s.audit.ListActionSince(ctx, activity.EntityLead, activity.ActionUpdateLead, from)
	if err == nil {
		entries := toAuditEntries(records)
		return domain.NewSoldTodaySignal(domain.SoldTodayFromActivityLog,
			domain.SoldTodayLeadIDsFromActivity(entries, today, s.loc))
	}
	log.Warn("activity log unavailable for sold-today, falling back to creation date", "error", err)

	return domain.SoldTodaySignal{}
}

// SoldDate reports when a lead became Sold. The status history is
// authoritative; a Sold lead missing from it is dated from the activity log,
// then by its creation date.
func (s *Service) SoldDate(ctx context.Context, id uuid.UUID) (transport.SoldDateResponse, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.SoldDateResponse{}, err
	}
	log := s.log.WithContext(ctx)
	resp := transport.SoldDateResponse{LeadID: id, Source: SoldDateNone}

	at, err := s.repo.LatestTransitionTo(ctx, id, domain.StatusSold.String())
	switch {
	case err != nil:
		log.Warn("status history lookup failed", "leadId", id, "error", err)
	case at != nil:
		day := calendar.Of(at.In(s.loc)).String()
		resp.SoldDate = &day
		resp.Source = string(domain.SoldTodayFromStatusHistory)
		return resp, nil
	}

	// The remarks heuristic cannot tell which status a change went to, so it
	// only dates leads that are Sold now.
	if lead.LeadStatus() != domain.StatusSold {
		return resp, nil
	}

	records, err := s.audit.ListForEntity(ctx, activity.EntityLead, id.String(), activity.ActionUpdateLead)
	if err != nil {
		log.Warn("activity log lookup failed", "leadId", id, "error", err)
	} else if day := domain.ResolveSoldDate(id.String(), toAuditEntries(records), s.loc); day != nil {
		resp.SoldDate = day
		resp.Source = string(domain.SoldTodayFromActivityLog)
		return resp, nil
	}

	day := lead.DateCreated
	resp.SoldDate = &day
	resp.Source = string(domain.SoldTodayFromCreationDate)
	return resp, nil
}

func toAuditEntries(records []activity.Record) []domain.AuditEntry {
	out := make([]domain.AuditEntry, 0, len(records))
	for _, r := range records {
		entityID := ""
		if r.EntityID != nil {
			entityID = *r.EntityID
		}
		createdAt := r.CreatedAt
		out = append(out, domain.AuditEntry{
			EntityID:  entityID,
			Action:    r.Action,
			Details:   r.Details,
			CreatedAt: &createdAt,
		})
	}
	return out
}

// DueByAssignee groups overdue and due-today leads by assigned rep, skipping
// Sold leads that are fully paid. Unassigned leads are keyed by "".
func (s *Service) DueByAssignee(ctx context.Context) (calendar.Date, map[string][]repository.Lead, error) {
	c, err := s.Classify(ctx)
	if err != nil {
		return calendar.Date{}, nil, err
	}

	out := make(map[string][]repository.Lead)
	due := append(domain.ExcludeFullyPaid(c.Buckets.Overdue), domain.ExcludeFullyPaid(c.Buckets.DueToday)...)
	for _, l := range due {
		key := ""
		if l.AssignedTo != nil {
			key = *l.AssignedTo
		}
		out[key] = append(out[key], l)
	}
	return c.Today, out, nil
}
