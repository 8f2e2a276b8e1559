package storage

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func testService(t *testing.T) *S3Service {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &S3Service{encryptionKey: key}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	s := testService(t)
	plain := []byte("%PDF-1.7 supplier quote body")

	encrypted, err := s.encryptData(plain)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if bytes.Contains(encrypted, plain) {
		t.Fatal("ciphertext contains plaintext")
	}

	decrypted, err := s.decryptData(encrypted)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if !bytes.Equal(decrypted, plain) {
		t.Fatal("round trip mismatch")
	}

	other := testService(t)
	if _, err := other.decryptData(encrypted); err == nil {
		t.Fatal("decrypt with a different key must fail")
	}
	if _, err := s.decryptData(encrypted[:4]); err == nil {
		t.Fatal("truncated ciphertext must fail")
	}
}

func TestValidateFileIntegrity(t *testing.T) {
	s := testService(t)
	data := []byte("door schedule revision C")
	hash := sha256.Sum256(data)
	expected := hex.EncodeToString(hash[:])

	if err := s.ValidateFileIntegrity(data, expected); err != nil {
		t.Fatalf("matching hash rejected: %v", err)
	}
	if err := s.ValidateFileIntegrity(append(data, 'x'), expected); err == nil {
		t.Fatal("tampered data must be rejected")
	}
}
