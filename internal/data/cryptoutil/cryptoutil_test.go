package cryptoutil

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func newTestEncryptor(t *testing.T) *AESGCMEncryptor {
	t.Helper()
	enc, err := NewAESGCMEncryptor(bytes.Repeat([]byte{7}, keySize))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	return enc
}

func TestAESGCMEncryptor_RoundTrip(t *testing.T) {
	enc := newTestEncryptor(t)

	sealed, err := enc.Encrypt([]byte("hunter2"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if !strings.HasPrefix(sealed, sealedPrefixV1) {
		t.Fatalf("sealed value %q lacks version prefix", sealed)
	}
	if strings.Contains(sealed, "hunter2") {
		t.Fatal("sealed value leaks plaintext")
	}

	pt, err := enc.Decrypt(sealed)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != "hunter2" {
		t.Fatalf("got %q", pt)
	}
}

func TestAESGCMEncryptor_RandomNonce(t *testing.T) {
	enc := newTestEncryptor(t)
	a, _ := enc.Encrypt([]byte("same"))
	b, _ := enc.Encrypt([]byte("same"))
	if a == b {
		t.Fatal("expected distinct ciphertexts for repeated encryption")
	}
}

func TestAESGCMEncryptor_ReadsNoopValues(t *testing.T) {
	enc := newTestEncryptor(t)
	plain, _ := NoopEncryptor{}.Encrypt([]byte("legacy"))

	pt, err := enc.Decrypt(plain)
	if err != nil {
		t.Fatalf("decrypt: %v", err)
	}
	if string(pt) != "legacy" {
		t.Fatalf("got %q", pt)
	}
}

func TestAESGCMEncryptor_Rejects(t *testing.T) {
	enc := newTestEncryptor(t)

	if _, err := enc.Decrypt("plaintext"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
	if _, err := enc.Decrypt(sealedPrefixV1 + "AA=="); err == nil {
		t.Fatal("expected short ciphertext error")
	}

	other, err := NewAESGCMEncryptor(bytes.Repeat([]byte{9}, keySize))
	if err != nil {
		t.Fatalf("new encryptor: %v", err)
	}
	sealed, _ := other.Encrypt([]byte("x"))
	if _, err := enc.Decrypt(sealed); err == nil {
		t.Fatal("expected failure opening with the wrong key")
	}
}

func TestNewAESGCMEncryptor_KeySize(t *testing.T) {
	if _, err := NewAESGCMEncryptor([]byte("short")); err == nil {
		t.Fatal("expected key size error")
	}
}

func TestDeriveKey(t *testing.T) {
	hexKey := strings.Repeat("ab", keySize)
	k, err := DeriveKey(hexKey)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !bytes.Equal(k, bytes.Repeat([]byte{0xab}, keySize)) {
		t.Fatal("hex key should decode verbatim")
	}

	k, err = DeriveKey("a passphrase")
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if len(k) != keySize {
		t.Fatalf("derived key length %d", len(k))
	}

	if _, err := DeriveKey("  "); err == nil {
		t.Fatal("expected error for empty material")
	}
}

func TestNoopEncryptor(t *testing.T) {
	sealed, err := NoopEncryptor{}.Encrypt([]byte("pw"))
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	pt, err := NoopEncryptor{}.Decrypt(sealed)
	if err != nil || string(pt) != "pw" {
		t.Fatalf("got %q, %v", pt, err)
	}
	if _, err := (NoopEncryptor{}).Decrypt("v1:abc"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
