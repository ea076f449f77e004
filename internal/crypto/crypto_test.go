package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/mailroom-dev/mailroom/internal/domain"
)

func testBox(t *testing.T, key string) *Box {
	t.Helper()
	box, err := New([]byte(key))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return box
}

func TestBox_RoundTrip(t *testing.T) {
	box := testBox(t, strings.Repeat("k", 32))

	for _, plain := range []string{"hunter2", "", "päss wörd with ünïcode"} {
		encrypted, err := box.Encrypt(plain)
		if err != nil {
			t.Fatalf("Encrypt(%q) error: %v", plain, err)
		}
		if encrypted == plain {
			t.Errorf("ciphertext equals plaintext for %q", plain)
		}

		got, err := box.Decrypt(encrypted)
		if err != nil {
			t.Fatalf("Decrypt() error: %v", err)
		}
		if got != plain {
			t.Errorf("round trip = %q, want %q", got, plain)
		}
	}
}

func TestBox_FreshNoncePerEncrypt(t *testing.T) {
	box := testBox(t, strings.Repeat("k", 32))

	first, err := box.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	second, err := box.Encrypt("same input")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}
	if first == second {
		t.Error("two encryptions of the same input produced identical ciphertext")
	}
}

func TestBox_WrongKey(t *testing.T) {
	encrypted, err := testBox(t, strings.Repeat("a", 32)).Encrypt("secret")
	if err != nil {
		t.Fatalf("Encrypt() error: %v", err)
	}

	_, err = testBox(t, strings.Repeat("b", 32)).Decrypt(encrypted)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Decrypt() with wrong key error = %v, want ErrUnauthorized", err)
	}
}

func TestBox_CorruptedCiphertext(t *testing.T) {
	box := testBox(t, strings.Repeat("k", 32))

	for _, input := range []string{"not base64 !!!", "c2hvcnQ="} {
		if _, err := box.Decrypt(input); !errors.Is(err, domain.ErrUnauthorized) {
			t.Errorf("Decrypt(%q) error = %v, want ErrUnauthorized", input, err)
		}
	}
}

func TestNew_RejectsBadKeySize(t *testing.T) {
	for _, size := range []int{0, 16, 31, 33} {
		if _, err := New(make([]byte, size)); err == nil {
			t.Errorf("New() with %d-byte key succeeded, want error", size)
		}
	}
}

func TestLoadKey_ConfiguredKeyWins(t *testing.T) {
	key, err := LoadKey(strings.Repeat("z", 32))
	if err != nil {
		t.Fatalf("LoadKey() error: %v", err)
	}
	if string(key) != strings.Repeat("z", 32) {
		t.Errorf("LoadKey() = %q, want the configured key", key)
	}
}

func TestLoadKey_RejectsShortConfiguredKey(t *testing.T) {
	if _, err := LoadKey("too short"); err == nil {
		t.Error("LoadKey() with short key succeeded, want error")
	}
}
