package password

import "testing"

func TestHashAndCompare(t *testing.T) {
	hash, err := Hash("Secret123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if err := Compare(hash, "Secret123"); err != nil {
		t.Fatalf("Compare matching: %v", err)
	}
	if err := Compare(hash, "secret123"); err == nil {
		t.Fatal("Compare accepted wrong password")
	}
}
