package activity

import (
	"context"
	"errors"
	"testing"
	"time"

	"wrapcrm_backend/platform/logger"
)

type fakeStore struct {
	inserted []Entry
	lastList ListParams
	err      error
}

func (f *fakeStore) Insert(_ context.Context, e Entry) error {
	if f.err != nil {
		return f.err
	}
	f.inserted = append(f.inserted, e)
	return nil
}

func (f *fakeStore) List(_ context.Context, p ListParams) ([]Record, int, error) {
	f.lastList = p
	return []Record{}, 0, f.err
}

func TestUpdateDetails(t *testing.T) {
	got := UpdateDetails("lead", "Jane Doe", []string{"remarks", "notes"})
	want := "Updated lead: Jane Doe - Changes: remarks, notes"
	if got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := UpdateDetails("installer", "Sam", nil); got != "Updated installer: Sam - No changes" {
		t.Fatalf("no-change details = %q", got)
	}
}

func TestRecordSwallowsStoreErrors(t *testing.T) {
	store := &fakeStore{err: errors.New("db down")}
	svc := NewService(store, logger.Nop())

	svc.Record(context.Background(), Entry{Action: ActionLogin, EntityType: EntityUser})
	if len(store.inserted) != 0 {
		t.Fatalf("unexpected insert")
	}
}

func TestListClampsPagingAndDerivesSince(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store, logger.Nop())
	fixed := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	cases := []struct {
		name      string
		q         Query
		wantLimit int
		wantSince *time.Time
	}{
		{"defaults", Query{}, defaultListLimit, nil},
		{"capped", Query{Limit: 10000}, maxListLimit, nil},
		{"days", Query{Limit: 20, Days: 7}, 20, ptrTime(fixed.AddDate(0, 0, -7))},
	}
	for _, tc := range cases {
		page, err := svc.List(context.Background(), tc.q)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if page.Limit != tc.wantLimit || store.lastList.Limit != tc.wantLimit {
			t.Errorf("%s: limit = %d, want %d", tc.name, page.Limit, tc.wantLimit)
		}
		switch {
		case tc.wantSince == nil && store.lastList.Since != nil:
			t.Errorf("%s: unexpected since %v", tc.name, store.lastList.Since)
		case tc.wantSince != nil && (store.lastList.Since == nil || !store.lastList.Since.Equal(*tc.wantSince)):
			t.Errorf("%s: since = %v, want %v", tc.name, store.lastList.Since, tc.wantSince)
		}
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
