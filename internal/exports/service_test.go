package exports

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"wrapcrm_backend/internal/activity"
	"wrapcrm_backend/internal/adapters/storage"
	"wrapcrm_backend/internal/leads/repository"
	"wrapcrm_backend/platform/apperr"
	"wrapcrm_backend/platform/logger"

	"github.com/google/uuid"
)

type pagedLeads struct {
	all   []repository.Lead
	calls []repository.ListParams
}

func (p *pagedLeads) List(_ context.Context, params repository.ListParams) ([]repository.Lead, int, error) {
	p.calls = append(p.calls, params)
	end := params.Offset + params.Limit
	if end > len(p.all) {
		end = len(p.all)
	}
	if params.Offset >= len(p.all) {
		return nil, len(p.all), nil
	}
	return p.all[params.Offset:end], len(p.all), nil
}

type memStore struct {
	objects map[string][]byte
	failPut bool
}

func (m *memStore) UploadFile(_ context.Context, bucket, folder, fileName, _ string, reader io.Reader, size int64) (string, error) {
	if m.failPut {
		return "", errors.New("connection refused")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if int64(len(data)) != size {
		return "", fmt.Errorf("size %d, read %d", size, len(data))
	}
	key := storage.ObjectKey(folder, fileName, uuid.New())
	if m.objects == nil {
		m.objects = make(map[string][]byte)
	}
	m.objects[bucket+"/"+key] = data
	return key, nil
}

func (m *memStore) GenerateDownloadURL(_ context.Context, bucket, key string) (*storage.PresignedURL, error) {
	return &storage.PresignedURL{URL: "https://files.example.com/" + bucket + "/" + key, FileKey: key, ExpiresAt: time.Now().Add(storage.PresignedURLTTL)}, nil
}

func (m *memStore) DeleteObject(context.Context, string, string) error { return nil }
func (m *memStore) EnsureBucketExists(context.Context, string) error { return nil }
func (m *memStore) ValidateFileSize(int64) error { return nil }

type recorded struct{ entries []activity.Entry }

func (r *recorded) Record(_ context.Context, e activity.Entry) { r.entries = append(r.entries, e) }

func makeLeads(n int) []repository.Lead {
	out := make([]repository.Lead, n)
	for i := range out {
		out[i] = repository.Lead{
			ID: uuid.New(), Name: fmt.Sprintf("Lead %d", i), Phone: "+16502530000",
			LeadOrigin: "google", DateCreated: "2025-03-01", Remarks: "New",
		}
	}
	return out
}

func TestExportLeadsPagesAndUploads(t *testing.T) {
	leads := &pagedLeads{all: makeLeads(pageSize + 3)}
	store := &memStore{}
	rec := &recorded{}
	svc := NewService(leads, store, "crm-exports", rec, logger.Nop())
	svc.now = func() time.Time { return time.Date(2025, 3, 10, 14, 5, 9, 0, time.UTC) }

	out, err := svc.ExportLeads(context.Background(), uuid.New(), LeadExportRequest{Status: "sold", Search: "  kim "})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if out.Rows != pageSize+3 {
		t.Errorf("rows = %d, want %d", out.Rows, pageSize+3)
	}
	if len(leads.calls) != 2 || leads.calls[1].Offset != pageSize {
		t.Errorf("list calls = %+v", leads.calls)
	}
	if leads.calls[0].Status != "Sold" || leads.calls[0].Search != "kim" {
		t.Errorf("filter = %+v", leads.calls[0])
	}

	data, ok := store.objects["crm-exports/"+out.FileKey]
	if !ok {
		t.Fatalf("object %q not stored", out.FileKey)
	}
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(records) != pageSize+4 {
		t.Errorf("csv rows = %d, want header plus %d", len(records), pageSize+3)
	}
	if records[1][0] != "Lead 0" || records[1][6] != "New" {
		t.Errorf("first row = %v", records[1])
	}
	if len(rec.entries) != 1 || rec.entries[0].Action != activity.ActionExport {
		t.Errorf("activity = %+v", rec.entries)
	}
}

func TestExportLeadsDisabledWithoutStore(t *testing.T) {
	svc := NewService(&pagedLeads{}, nil, "crm-exports", &recorded{}, logger.Nop())
	_, err := svc.ExportLeads(context.Background(), uuid.New(), LeadExportRequest{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
}

func TestExportLeadsStorageFailure(t *testing.T) {
	rec := &recorded{}
	svc := NewService(&pagedLeads{all: makeLeads(2)}, &memStore{failPut: true}, "b", rec, logger.Nop())
	_, err := svc.ExportLeads(context.Background(), uuid.New(), LeadExportRequest{})
	if !apperr.Is(err, apperr.KindUnavailable) {
		t.Fatalf("err = %v, want unavailable", err)
	}
	if len(rec.entries) != 0 {
		t.Errorf("activity written for a failed export")
	}
}

func TestWriteLeadsCSVFormatsFields(t *testing.T) {
	amount := 12500.5
	email := "jane@example.com"
	var buf bytes.Buffer
	err := WriteLeadsCSV(&buf, []repository.Lead{{
		Name: "Jane, Doe", Phone: "+16502530000", Email: &email, LeadOrigin: "referral",
		DateCreated: "2025-01-02", Remarks: "sold", ProjectAmount: &amount, DepositPaid: true,
	}})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	row := records[1]
	if row[0] != "Jane, Doe" || row[2] != email || row[6] != "Sold" || row[8] != "12500.50" || row[9] != "Yes" || row[10] != "No" {
		t.Errorf("row = %v", row)
	}
}
