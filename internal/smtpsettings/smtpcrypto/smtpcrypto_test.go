package smtpcrypto

import (
	"bytes"
	"errors"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	key := bytes.Repeat([]byte{7}, KeySize)
	sealed, err := Encrypt("app-password", key)
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if sealed == "app-password" {
		t.Fatal("ciphertext equals plaintext")
	}
	got, err := Decrypt(sealed, key)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if got != "app-password" {
		t.Fatalf("got %q", got)
	}
}

func TestWrongKeyFails(t *testing.T) {
	sealed, err := Encrypt("secret", bytes.Repeat([]byte{1}, KeySize))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if _, err := Decrypt(sealed, bytes.Repeat([]byte{2}, KeySize)); err == nil {
		t.Fatal("decrypt with wrong key succeeded")
	}
}

func TestKeySize(t *testing.T) {
	if _, err := Encrypt("x", []byte("short")); !errors.Is(err, ErrKeySize) {
		t.Fatalf("err = %v, want ErrKeySize", err)
	}
}
