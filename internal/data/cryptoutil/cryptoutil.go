package cryptoutil

// Package cryptoutil seals user secrets before they reach the session store.

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Encryptor seals and opens secret strings.
type Encryptor interface {
	Encrypt(plaintext []byte) (string, error)
	Decrypt(ciphertext string) ([]byte, error)
}

const (
	// sealedPrefixV1 versions the ciphertext format so keys can rotate later.
	sealedPrefixV1 = "v1:"
	plainPrefix    = "noop:"
	keySize        = 32
)

// ErrUnknownFormat is returned when a stored value carries neither known prefix.
var ErrUnknownFormat = errors.New("unknown sealed secret format")

// AESGCMEncryptor seals with AES-256-GCM and a random nonce per call.
type AESGCMEncryptor struct {
	aead cipher.AEAD
}

// NewAESGCMEncryptor builds an encryptor from a 32-byte key.
func NewAESGCMEncryptor(key []byte) (*AESGCMEncryptor, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("aes-gcm key must be %d bytes, got %d", keySize, len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &AESGCMEncryptor{aead: aead}, nil
}

// DeriveKey turns configured key material into a 32-byte key. A 64-character hex string
// is used as-is; anything else is hashed with SHA-256.
func DeriveKey(material string) ([]byte, error) {
	material = strings.TrimSpace(material)
	if material == "" {
		return nil, errors.New("key material is empty")
	}
	if decoded, err := hex.DecodeString(material); err == nil && len(decoded) == keySize {
		return decoded, nil
	}
	sum := sha256.Sum256([]byte(material))
	return sum[:], nil
}

// Encrypt returns "v1:" followed by base64(nonce||ciphertext).
func (e *AESGCMEncryptor) Encrypt(plaintext []byte) (string, error) {
	nonce := make([]byte, e.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}
	sealed := e.aead.Seal(nonce, nonce, plaintext, nil)
	return sealedPrefixV1 + base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens values produced by Encrypt. Values written by NoopEncryptor are still readable,
// so a store populated before a key was configured keeps working.
func (e *AESGCMEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	if rest, ok := strings.CutPrefix(ciphertext, plainPrefix); ok {
		return decodePlain(rest)
	}
	rest, ok := strings.CutPrefix(ciphertext, sealedPrefixV1)
	if !ok {
		return nil, ErrUnknownFormat
	}
	data, err := base64.StdEncoding.DecodeString(rest)
	if err != nil {
		return nil, fmt.Errorf("decode sealed secret: %w", err)
	}
	n := e.aead.NonceSize()
	if len(data) < n {
		return nil, errors.New("sealed secret too short")
	}
	pt, err := e.aead.Open(nil, data[:n], data[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("open sealed secret: %w", err)
	}
	return pt, nil
}

// NoopEncryptor marks values as unsealed without protecting them. Development only.
type NoopEncryptor struct{}

func (NoopEncryptor) Encrypt(plaintext []byte) (string, error) {
	return plainPrefix + base64.StdEncoding.EncodeToString(plaintext), nil
}

func (NoopEncryptor) Decrypt(ciphertext string) ([]byte, error) {
	rest, ok := strings.CutPrefix(ciphertext, plainPrefix)
	if !ok {
		return nil, ErrUnknownFormat
	}
	return decodePlain(rest)
}

func decodePlain(s string) ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode unsealed secret: %w", err)
	}
	return b, nil
}
