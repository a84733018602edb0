package storage

import (
	"testing"

	"github.com/google/uuid"
)

func TestObjectKey(t *testing.T) {
	id := uuid.MustParse("0f8fad5b-d9cb-469f-a165-70867728950e")
	tests := []struct {
		folder, file, want string
	}{
		{"leads/2025-03-10", "leads.csv", "leads/2025-03-10/leads_0f8fad5b.csv"},
		{"", "report", "report_0f8fad5b"},
		{"a/b/", "x.tar.gz", "a/b/x.tar_0f8fad5b.gz"},
	}
	for _, tt := range tests {
		if got := ObjectKey(tt.folder, tt.file, id); got != tt.want {
			t.Errorf("ObjectKey(%q, %q) = %q, want %q", tt.folder, tt.file, got, tt.want)
		}
	}
}

func TestValidateFileSize(t *testing.T) {
	s := &MinIOService{maxFileSize: 10}
	if err := s.ValidateFileSize(0); err == nil {
		t.Error("empty file accepted")
	}
	if err := s.ValidateFileSize(11); err == nil {
		t.Error("oversized file accepted")
	}
	if err := s.ValidateFileSize(10); err != nil {
		t.Errorf("limit-sized file rejected: %v", err)
	}
}
