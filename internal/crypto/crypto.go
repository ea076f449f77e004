// Package crypto provides the symmetric secret box used to store IMAP
// passwords at rest, plus the lifecycle of the process-wide key material.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/zalando/go-keyring"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

const (
	keySize = 32 // AES-256

	keyringService = "mailroom"
	keyringUser    = "encryption-key"
)

// Box encrypts and decrypts short secrets with AES-256-GCM. The key is
// injected explicitly; use LoadKey to resolve it.
type Box struct {
	key []byte
}

// New returns a Box for the given 32-byte key.
func New(key []byte) (*Box, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("encryption key must be %d bytes, got %d", keySize, len(key))
	}
	return &Box{key: key}, nil
}

// LoadKey resolves the process-wide key material. A key configured via
// file or environment wins; otherwise the OS keyring is consulted; if the
// keyring has no key yet, one is generated and persisted there before
// first use. The key is never regenerated silently once stored.
func LoadKey(configured string) ([]byte, error) {
	if configured != "" {
		if len(configured) != keySize {
			return nil, fmt.Errorf("configured encryption key must be %d bytes, got %d", keySize, len(configured))
		}
		return []byte(configured), nil
	}

	stored, err := keyring.Get(keyringService, keyringUser)
	if err == nil {
		key, err := base64.StdEncoding.DecodeString(stored)
		if err != nil {
			return nil, fmt.Errorf("failed to decode keyring key: %w", err)
		}
		if len(key) != keySize {
			return nil, fmt.Errorf("keyring key has wrong size %d", len(key))
		}
		return key, nil
	}
	if !errors.Is(err, keyring.ErrNotFound) {
		return nil, fmt.Errorf("failed to read key from keyring: %w", err)
	}

	key := make([]byte, keySize)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return nil, fmt.Errorf("failed to generate encryption key: %w", err)
	}
	if err := keyring.Set(keyringService, keyringUser, base64.StdEncoding.EncodeToString(key)); err != nil {
		return nil, fmt.Errorf("failed to persist encryption key: %w", err)
	}
	return key, nil
}

// Encrypt seals plain with a fresh nonce and returns base64 ciphertext.
func (b *Box) Encrypt(plain string) (string, error) {
	block, err := aes.NewCipher(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

// Decrypt opens a ciphertext produced by Encrypt. Key mismatch or
// corruption surfaces as domain.ErrUnauthorized so callers can map it to a
// distinct user-facing failure.
func (b *Box) Decrypt(encrypted string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(encrypted)
	if err != nil {
		return "", fmt.Errorf("%w: failed to decode stored secret", domain.ErrUnauthorized)
	}

	block, err := aes.NewCipher(b.key)
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	if len(data) < gcm.NonceSize() {
		return "", fmt.Errorf("%w: stored secret too short", domain.ErrUnauthorized)
	}
	nonce, ciphertext := data[:gcm.NonceSize()], data[gcm.NonceSize():]

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: key mismatch or corrupted secret", domain.ErrUnauthorized)
	}
	return string(plain), nil
}
