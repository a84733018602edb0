// Package followups sends each sales rep a daily email listing the leads
// that are due or overdue for a follow-up call.
package followups

import (
	"context"
	"sort"
	"strings"
	"time"

	"wrapcrm_backend/internal/auth"
	"wrapcrm_backend/internal/email"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/internal/shared/calendar"
	"wrapcrm_backend/platform/logger"
	"wrapcrm_backend/platform/phone"
)

// DueSource groups the due leads by assigned rep.
type DueSource interface {
	DueByAssignee(ctx context.Context) (calendar.Date, map[string][]repository.Lead, error)
}

// Result summarises one digest run.
type Result struct {
	Day        string
	Sent       int
	Skipped    int
	Unrouted   int
	Recipients []string
}

// Digester builds and sends the digests.
type Digester struct {
	due    DueSource
	users  auth.Directory
	sender email.Sender
	log    *logger.Logger
}

func NewDigester(due DueSource, users auth.Directory, sender email.Sender, log *logger.Logger) *Digester {
	return &Digester{due: due, users: users, sender: sender, log: log}
}

// SendDigests mails every active rep with due leads. day is the business-local
// day the run was scheduled for; a run picked up after that day has passed is
// dropped. Leads without an assignee go to the active admins.
func (d *Digester) SendDigests(ctx context.Context, day string) (Result, error) {
	today, byRep, err := d.due.DueByAssignee(ctx)
	if err != nil {
		return Result{}, err
	}
	res := Result{Day: today.String()}
	log := d.log.WithContext(ctx)

	if day != "" && day != today.String() {
		log.Warn("stale follow-up digest dropped", "scheduledFor", day, "today", today.String())
		return res, nil
	}

	users, err := d.users.ActiveContacts(ctx)
	if err != nil {
		return res, err
	}
	byName := make(map[string]auth.Contact, len(users))
	for _, u := range users {
		byName[strings.ToLower(u.Username)] = u
	}

	unassigned := byRep[""]
	for rep, leads := range byRep {
		if rep == "" {
			continue
		}
		u, ok := byName[strings.ToLower(rep)]
		if !ok || u.Email == nil || *u.Email == "" {
			log.Warn("no mailbox for sales rep, leads added to the admin digest", "rep", rep, "leads", len(leads))
			unassigned = append(unassigned, leads...)
			continue
		}
		if err := d.send(ctx, u, today, leads); err != nil {
			log.Error("follow-up digest failed", "rep", rep, "error", err)
			res.Skipped++
			continue
		}
		res.Sent++
		res.Recipients = append(res.Recipients, *u.Email)
	}

	if len(unassigned) > 0 {
		admins := 0
		for _, u := range users {
			if u.Role != auth.RoleAdmin || u.Email == nil || *u.Email == "" {
				continue
			}
			admins++
			if err := d.send(ctx, u, today, unassigned); err != nil {
				log.Error("follow-up digest failed", "rep", u.Username, "error", err)
				res.Skipped++
				continue
			}
			res.Sent++
			res.Recipients = append(res.Recipients, *u.Email)
		}
		if admins == 0 {
			res.Unrouted = len(unassigned)
		}
	}

	sort.Strings(res.Recipients)
	return res, nil
}

// RunDigest is SendDigests for the background worker.
func (d *Digester) RunDigest(ctx context.Context, day string) error {
	started := time.Now()
	res, err := d.SendDigests(ctx, day)
	d.log.JobRun("followups.digest", started, res.Sent, err)
	return err
}

func (d *Digester) send(ctx context.Context, u auth.Contact, today calendar.Date, leads []repository.Lead) error {
	return d.sender.SendFollowupDigest(ctx, *u.Email, email.FollowupDigest{
		RepName: u.Username,
		Today:   today.String(),
		Items:   digestItems(leads, today),
	})
}

// digestItems lists overdue leads first, each group ordered by follow-up date.
func digestItems(leads []repository.Lead, today calendar.Date) []email.DigestItem {
	items := make([]email.DigestItem, 0, len(leads))
	for _, l := range leads {
		followup := ""
		if l.NextFollowupDate != nil {
			followup = *l.NextFollowupDate
		}
		overdue := false
		if d, ok := calendar.Parse(followup); ok {
			overdue = d.Before(today)
		}
		items = append(items, email.DigestItem{
			Name:         l.Name,
			Phone:        phone.Display(l.Phone),
			FollowupDate: followup,
			Status:       l.LeadStatus().String(),
			Overdue:      overdue,
		})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Overdue != items[j].Overdue {
			return items[i].Overdue
		}
		return items[i].FollowupDate < items[j].FollowupDate
	})
	return items
}
